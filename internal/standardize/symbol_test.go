package standardize

import "testing"

func TestSymbolSuffixRules(t *testing.T) {
	spec := SymbolSpec{Rules: ChinaASuffixRules}
	cases := []struct {
		in   string
		want string
	}{
		{"600519", "600519.SH"},
		{"688981", "688981.SH"},
		{"000001", "000001.SZ"},
		{"300750", "300750.SZ"},
		{"430047", "430047.BJ"},
		{"920002", "920002.BJ"},
		{"600519.SH", "600519.SH"}, // already qualified
		{" 000001 ", "000001.SZ"},
		{"999999", "999999"}, // no rule matches
		{"", ""},
	}
	for _, c := range cases {
		if got := spec.Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSymbolUppercase(t *testing.T) {
	spec := SymbolSpec{Uppercase: true}
	if got := spec.Normalize("aapl"); got != "AAPL" {
		t.Fatalf("Normalize(aapl) = %q, want AAPL", got)
	}
}
