// Command assess runs one questionnaire submission through the full
// screen-correct-score pipeline and prints the JSON verdict. The core
// packages stay pure libraries; this is the delivery shim.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/esteem-assess/core/internal/config"
	"github.com/esteem-assess/core/internal/pipeline"
	"github.com/esteem-assess/core/internal/refdata"
	"github.com/esteem-assess/core/internal/survey"
)

func main() {
	configPath := flag.String("config", "config.yaml", "threshold configuration file (optional)")
	inputPath := flag.String("input", "", "JSON request file: user_id, responses, response_times, reverse_items")
	useRefdata := flag.Bool("refdata", false, "load a reference matrix from Postgres for the outlier check")
	instrument := flag.String("instrument", "self-esteem-50", "instrument name in the reference pool")
	contribute := flag.Bool("contribute", false, "add accepted submissions to the reference pool (needs -refdata)")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing -input: path to a JSON request file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read request: %v", err)
	}
	var req pipeline.Request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("Failed to parse request: %v", err)
	}

	var store *refdata.Store
	var refs pipeline.ReferenceSource
	if *useRefdata {
		db, err := refdata.Connect()
		if err != nil {
			log.Fatalf("Failed to connect to reference database: %v", err)
		}
		defer db.Close()

		if err := refdata.Migrate(db); err != nil {
			log.Fatalf("Failed to run refdata migration: %v", err)
		}
		store = refdata.NewStore(db, *instrument)
		refs = store
	}

	ctx := context.Background()
	assessor := pipeline.NewAssessor(cfg, refs)
	result, err := assessor.Assess(ctx, req)
	if err != nil {
		var invalid *survey.InvalidInputError
		if errors.As(err, &invalid) {
			log.Fatalf("Rejected input: %v", err)
		}
		log.Fatalf("Assessment failed: %v", err)
	}

	// An accepted submission can grow the reference pool for future
	// outlier checks. Verdicts themselves are never stored.
	if *contribute && store != nil && result.Status == pipeline.StatusSuccess {
		if err := store.AddResponse(ctx, req.Responses); err != nil {
			log.Printf("WARN: failed to add submission to the reference pool: %v", err)
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}
