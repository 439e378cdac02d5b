// Command advisor-chat is a terminal front end for the text dialogue
// session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vihome-ai/advisor-core/internal/dotenv"
	"github.com/vihome-ai/advisor-core/pkg/config"
	"github.com/vihome-ai/advisor-core/pkg/core/providers/gemini"
	"github.com/vihome-ai/advisor-core/pkg/core/retry"
	"github.com/vihome-ai/advisor-core/pkg/dialogue"
	"github.com/vihome-ai/advisor-core/pkg/metrics"
	"github.com/vihome-ai/advisor-core/pkg/tools"
)

func main() {
	dotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration")
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, m, logger)
	}

	book := &tools.MemoryLeadBook{}
	router := tools.NewRouter(logger)
	router.Register(&tools.LeadCapture{Book: book})
	router.Register(&tools.ProjectLookup{Catalog: tools.DemoCatalog()})

	opts := []gemini.Option{gemini.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
	}
	client := gemini.NewClient(cfg.APIKey, opts...)

	session := dialogue.NewSession(client, router, logger, dialogue.Options{
		System:   cfg.System,
		Fallback: cfg.Fallback,
		Retry: retry.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		Metrics: m,
	})

	fmt.Println("advisor-chat — gõ câu hỏi, Ctrl-D để thoát")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		reply, err := session.Send(ctx, text, nil)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("send")
		}
		fmt.Println(reply.Text)
	}

	for _, lead := range book.Leads() {
		logger.Info().Str("name", lead.Name).Str("phone", lead.Phone).Msg("captured lead")
	}
}

func serveMetrics(addr string, m *metrics.Metrics, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics listener")
	}
}
