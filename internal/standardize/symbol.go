package standardize

import "strings"

// SuffixRule maps numeric symbol prefixes to an exchange suffix. The rule
// table is data so new listings boards extend it without new branching.
type SuffixRule struct {
	Prefixes []string
	Suffix   string
}

// SymbolSpec normalizes provider symbols into the exchange-qualified form.
type SymbolSpec struct {
	Uppercase bool
	Rules     []SuffixRule
}

// ChinaASuffixRules qualifies bare A-share codes: Shanghai main board and
// STAR market, Shenzhen main board and ChiNext, Beijing stock exchange.
var ChinaASuffixRules = []SuffixRule{
	{Prefixes: []string{"600", "601", "603", "605", "688", "689"}, Suffix: ".SH"},
	{Prefixes: []string{"000", "001", "002", "003", "300", "301"}, Suffix: ".SZ"},
	{Prefixes: []string{"430", "830", "831", "832", "833", "834", "835", "836", "837", "838", "839", "870", "871", "872", "873", "920"}, Suffix: ".BJ"},
}

// Normalize appends the exchange suffix when the provider omitted one.
// Already-qualified symbols pass through untouched apart from casing.
func (s SymbolSpec) Normalize(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if s.Uppercase {
		symbol = strings.ToUpper(symbol)
	}
	if symbol == "" || strings.Contains(symbol, ".") {
		return symbol
	}
	for _, rule := range s.Rules {
		for _, prefix := range rule.Prefixes {
			if strings.HasPrefix(symbol, prefix) {
				return symbol + rule.Suffix
			}
		}
	}
	return symbol
}
