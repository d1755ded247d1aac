package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pageza/macrochef/backend/config"
	"github.com/pageza/macrochef/backend/internal/client"
	"github.com/pageza/macrochef/backend/internal/logging"
	"github.com/pageza/macrochef/backend/internal/telemetry"
	"github.com/pageza/macrochef/backend/internal/types"
)

func main() {
	ingredients := flag.String("ingredients", "", "Comma separated ingredient names")
	protein := flag.Int("protein", 150, "Protein target in grams")
	carbs := flag.Int("carbs", 200, "Carbs target in grams")
	fats := flag.Int("fats", 60, "Fats target in grams")
	timeLimit := flag.Int("time", 30, "Time limit in minutes")
	functionURL := flag.String("url", "", "Function URL (defaults to SUPABASE_URL's functions endpoint)")
	token := flag.String("token", os.Getenv("MACROCHEF_ACCESS_TOKEN"), "User access token")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall request timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: "text"})
	logger.SetOutput(os.Stderr)

	shutdownTracing, err := telemetry.Init("macrochef-generate-cli")
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	}
	defer shutdownTracing(context.Background())

	url := *functionURL
	if url == "" && cfg.SupabaseURL != "" {
		url = client.FunctionURL(cfg.SupabaseURL)
	}

	params := types.GenerationRequest{
		IngredientNames: splitList(*ingredients),
		Macros:          types.MacroTargets{Protein: *protein, Carbs: *carbs, Fats: *fats},
		TimeLimit:       *timeLimit,
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	httpClient := &http.Client{Transport: telemetry.Transport(http.DefaultTransport)}
	c := client.New(url, cfg.SupabaseAnonKey, client.StaticToken(*token), httpClient, logging.Component(logger, "client"))
	result := c.GenerateBatch(ctx, params)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.WithError(err).Fatal("Failed to write result")
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
