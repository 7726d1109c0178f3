// Command trainer trains and evaluates models from the command line,
// writing artifacts into the configured models directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"StockCast/internal/algo"
	"StockCast/internal/di"
	"StockCast/internal/evaluate"
	"StockCast/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	tickers := flag.String("tickers", "", "comma-separated tickers (required)")
	algorithms := flag.String("algorithms", "lstm", "comma-separated algorithms")
	epochs := flag.Int("epochs", 0, "override training epochs")
	period := flag.String("period", "", "override lookback period")
	runEval := flag.Bool("evaluate", false, "score trained models instead of training")
	metric := flag.String("metric", "rmse", "evaluation metric (rmse or mape)")
	testRatio := flag.Float64("test-ratio", 0.2, "evaluation held-out ratio")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	symbols := splitList(*tickers)
	if len(symbols) == 0 {
		log.Fatal("provide -tickers")
	}

	trainer, evaluator, trainCfg, err := di.InitializeTrainer(cfg)
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}

	ctx := context.Background()

	if *runEval {
		opt := evaluate.DefaultOptions()
		opt.Metric = *metric
		opt.TestRatio = *testRatio
		opt.SeqLen = trainCfg.SeqLen
		opt.Period = trainCfg.Period
		opt.ArimaOrder = trainCfg.ArimaOrder

		report, err := evaluator.EvaluateMany(ctx, symbols, opt)
		if err != nil {
			log.Fatalf("evaluation failed: %v", err)
		}
		for symbol, res := range report.Results {
			fmt.Printf("%s: best=%s\n", symbol, res.Best)
		}
		return
	}

	algos := make([]algo.Algorithm, 0)
	for _, s := range splitList(*algorithms) {
		a, err := algo.Parse(s)
		if err != nil {
			log.Fatalf("bad algorithm %q", s)
		}
		algos = append(algos, a)
	}

	if *epochs > 0 {
		trainCfg.Epochs = *epochs
	}
	if *period != "" {
		trainCfg.Period = *period
	}

	status := trainer.TrainMany(ctx, symbols, algos, trainCfg)

	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	failed := false
	for _, k := range keys {
		fmt.Printf("%s: %s\n", k, status[k])
		if status[k] != "ok" {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
