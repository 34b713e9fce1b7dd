package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/bus"
	"main/internal/importer"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/plugin"
	"main/internal/plugin/synthetic"
	"main/internal/quality"
	"main/internal/router"
	"main/internal/standardize"
	"main/internal/storage"
	"main/internal/writer"
)

func main() {
	if err := run(); err != nil {
		log.Printf("importer: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "config.yaml", "config file path")
	symbolsFlag := flag.String("symbols", "600519,000001,300750", "comma-separated symbols")
	assetFlag := flag.String("asset", "stock", "asset type")
	dataFlag := flag.String("data", "historical_kline", "data type")
	providerFlag := flag.String("provider", "", "explicit provider override")
	daysFlag := flag.Int("days", 30, "days of history to import")
	flag.Parse()

	if addr := os.Getenv("PYROSCOPE_SERVER"); addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "marketdata/importer",
			ServerAddress:   addr,
			Tags:            map[string]string{"env": "local"},
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	assetType, ok := enum.ParseAssetType(strings.TrimSpace(*assetFlag))
	if !ok {
		return errors.New("unknown asset type: " + *assetFlag)
	}
	dataType, ok := enum.ParseDataType(strings.TrimSpace(*dataFlag))
	if !ok {
		return errors.New("unknown data type: " + *dataFlag)
	}
	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		return errors.New("no symbols; use -symbols")
	}

	loaded, err := ops.Load(*configFlag)
	if err != nil {
		return err
	}

	registry := plugin.NewRegistry(loaded.Priority)
	if err := registry.Register(synthetic.New()); err != nil {
		return err
	}

	engine := standardize.NewEngine(loaded.MaxDropFraction)
	for _, m := range standardize.BuiltinMappings() {
		engine.RegisterMapping(m)
	}
	engine.RegisterMapping(synthetic.Mapping())

	manager := storage.NewManager(loaded.Storage)
	defer func() {
		_ = manager.Close()
	}()

	events := bus.New(loaded.BusCapacity)
	defer events.Close()
	ch, cancelSub := events.Subscribe()
	defer cancelSub()
	go logEvents(ch)

	service := writer.NewService(manager, events, loaded.Writer)
	orchestrator := importer.NewOrchestrator(
		router.New(registry), registry, engine, quality.NewScorer(), service, loaded.Importer)
	metrics := obs.NewMetrics()
	orchestrator.SetMetrics(metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sys.Shutdown():
			cancel()
		case <-ctx.Done():
		}
	}()

	end := time.Now().UTC()
	dateRange := model.DateRange{Start: end.AddDate(0, 0, -*daysFlag), End: end}
	summary, err := orchestrator.Run(ctx, router.Request{
		AssetType:        assetType,
		DataType:         dataType,
		ExplicitProvider: *providerFlag,
	}, symbols, dateRange)
	if err != nil {
		return err
	}
	if summary.State == enum.TaskStateFailed {
		return errors.New("import task " + summary.TaskID + " failed")
	}
	logs.Infof("import %s: %d symbols ok, %d failed, %d records",
		summary.State, summary.SuccessCount, summary.FailureCount, summary.TotalRecords)
	snap := metrics.Snapshot()
	logs.Infof("fetch: %d attempts, %d errors, avg %s; write: avg %s; %d rows dropped",
		snap.FetchAttempts, snap.FetchErrors, snap.FetchLatency.Avg.Round(time.Microsecond),
		snap.WriteLatency.Avg.Round(time.Microsecond), snap.RecordsDropped)
	return nil
}

func logEvents(ch <-chan bus.Event) {
	for e := range ch {
		switch ev := e.(type) {
		case bus.WriteStarted:
			logs.Infof("task %s: started, %d symbols", ev.TaskID, ev.SymbolCount)
		case bus.WriteProgress:
			logs.Infof("task %s: %s done, %.0f%% (%d/%d), %.0f rec/s",
				ev.TaskID, ev.Symbol, ev.ProgressPct, ev.WrittenCount, ev.TotalCount, ev.CumulativeRate)
		case bus.WriteError:
			logs.Warnf("task %s: %s failed at %s: %s", ev.TaskID, ev.Symbol, ev.Kind, ev.Message)
		case bus.WriteCompleted:
			logs.Infof("task %s: completed, %d ok, %d failed, %d records in %s",
				ev.TaskID, ev.SuccessCount, ev.FailureCount, ev.TotalRecords, ev.Duration.Round(time.Millisecond))
		}
	}
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
