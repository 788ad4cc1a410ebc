package main

import (
	"context"
	"flag"
	"log"
	"time"

	"retailqa/internal/agent"
	"retailqa/internal/batch"
	"retailqa/internal/config"
	"retailqa/internal/corpus"
	"retailqa/internal/providers"
	"retailqa/internal/warehouse"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	input := flag.String("input", cfg.BatchFile, "JSONL question file")
	output := flag.String("output", cfg.OutputFile, "JSONL result file")
	verbose := flag.Bool("verbose", cfg.Verbose, "log per-stage trace")
	flag.Parse()

	chunks, err := corpus.Load(cfg.DocsDir, cfg.ChunkSize)
	if err != nil {
		log.Fatal(err)
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		log.Fatal(err)
	}

	var db warehouse.Executor
	if cfg.PostgresURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err = warehouse.NewPostgresExecutor(ctx, cfg.PostgresURL)
		cancel()
	} else {
		db, err = warehouse.NewSQLiteExecutor(cfg.SQLitePath)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	a := agent.New(chunks, cfg.TopK, pm.FirstLLMProvider(), db)
	r := batch.NewRunner(a, *verbose)

	log.Printf("retailqa batch starting input=%s output=%s chunks=%d llm_providers=%q", *input, *output, len(chunks), cfg.LLMProviders)
	start := time.Now()
	n, err := r.Run(context.Background(), *input, *output)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("retailqa batch done: %d questions in %s, results in %s", n, time.Since(start).Round(time.Millisecond), *output)
}
