package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/infra/credentials"
)

// studiokey stores the Gemini API key used by the studio in the
// integration_tokens table so the API picks it up on start.
func main() {
	_ = godotenv.Load()

	var (
		keyFlag string
		show    bool
	)
	flag.StringVar(&keyFlag, "key", "", "Gemini API key (falls back to GEMINI_API_KEY, then a hidden prompt)")
	flag.BoolVar(&show, "status", false, "Only report whether a key is stored")
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewCLILogger(false).With().Str("cmd", "studiokey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	if show {
		stored, err := store.GeminiAPIKey(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read api key: %v\n", err)
			os.Exit(1)
		}
		if stored == "" {
			fmt.Println("no API key stored")
			return
		}
		fmt.Println("API key stored")
		return
	}

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = cfg.GeminiAPIKey
	}
	if key == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Gemini API key: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read api key: %v\n", err)
			os.Exit(1)
		}
		key = strings.TrimSpace(string(raw))
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "API key is required via -key, GEMINI_API_KEY or the prompt")
		os.Exit(1)
	}

	if err := store.SetGeminiAPIKey(ctx, key, "cli"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist api key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("API key stored successfully")
}
