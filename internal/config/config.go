package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIAddr       string
	DocsDir       string
	SQLitePath    string
	PostgresURL   string
	BatchFile     string
	OutputFile    string
	LLMProviders  string
	OllamaBaseURL string
	Model         string
	Temperature   float64
	MaxTokens     int
	ChunkSize     int
	TopK          int
	Verbose       bool
}

func Load() Config {
	return Config{
		APIAddr:       getenv("RETAILQA_API_ADDR", ":8080"),
		DocsDir:       getenv("RETAILQA_DOCS_DIR", "./docs"),
		SQLitePath:    getenv("RETAILQA_DB_PATH", "./data/northwind.db"),
		PostgresURL:   getenv("RETAILQA_POSTGRES_URL", ""),
		BatchFile:     getenv("RETAILQA_BATCH_FILE", "./questions.jsonl"),
		OutputFile:    getenv("RETAILQA_OUTPUT_FILE", "./outputs.jsonl"),
		LLMProviders:  getenv("RETAILQA_LLM_PROVIDERS", "ollama"),
		OllamaBaseURL: getenv("RETAILQA_OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
		Model:         getenv("RETAILQA_MODEL", "phi3.5:3.8b-mini-instruct-q2_K"),
		Temperature:   getenvFloat("RETAILQA_TEMPERATURE", 0.3),
		MaxTokens:     getenvInt("RETAILQA_MAX_TOKENS", 1000),
		ChunkSize:     getenvInt("RETAILQA_CHUNK_SIZE", 1200),
		TopK:          getenvInt("RETAILQA_TOP_K", 3),
		Verbose:       getenv("RETAILQA_VERBOSE", "") != "",
	}
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
