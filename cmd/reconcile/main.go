package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/app"
)

// One-shot upload reconcile sweep, for use from cron or after an incident.
func main() {
	var grace time.Duration
	var rounds int
	flag.DurationVar(&grace, "grace", 0, "only settle intents older than this (default RECONCILE_GRACE)")
	flag.IntVar(&rounds, "rounds", 1, "number of sweep batches to run")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("load config: %v\n", err)
		os.Exit(1)
	}
	if grace <= 0 {
		grace = cfg.ReconcileGrace
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	enc := json.NewEncoder(os.Stdout)
	for i := 0; i < rounds; i++ {
		report, err := application.Services.Reconcile.Sweep(ctx, grace)
		if err != nil {
			fmt.Printf("sweep: %v\n", err)
			application.Close()
			os.Exit(1)
		}
		_ = enc.Encode(report)
		if report.Scanned == 0 {
			break
		}
	}
}
