// Command advisor-voice runs a live voice conversation end to end:
// microphone capture up, synthesized speech back, tool calls resolved
// in-band.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vihome-ai/advisor-core/internal/dotenv"
	"github.com/vihome-ai/advisor-core/pkg/audio"
	"github.com/vihome-ai/advisor-core/pkg/config"
	"github.com/vihome-ai/advisor-core/pkg/metrics"
	"github.com/vihome-ai/advisor-core/pkg/tools"
	"github.com/vihome-ai/advisor-core/pkg/voice"
)

func main() {
	dotenv.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration")
	}
	if cfg.LiveURL == "" {
		logger.Fatal().Msg("ADVISOR_LIVE_URL is required for voice")
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics listener")
			}
		}()
	}

	book := &tools.MemoryLeadBook{}
	router := tools.NewRouter(logger)
	router.Register(&tools.LeadCapture{Book: book})
	router.Register(&tools.ProjectLookup{Catalog: tools.DemoCatalog()})

	sink, err := newOtoSink()
	if err != nil {
		logger.Fatal().Err(err).Msg("open speaker")
	}
	sched := audio.NewScheduler(audio.NewMonotonicClock(), sink)
	sink.OnComplete(sched.Complete)

	session := voice.NewSession(voice.Config{
		Dial: func(ctx context.Context) (voice.Transport, error) {
			return voice.DialLive(ctx, voice.LiveConfig{
				URL:    cfg.LiveURL,
				APIKey: cfg.APIKey,
				Model:  cfg.Model,
				System: cfg.System,
				Tools:  router.Declarations(),
				Logger: logger,
			})
		},
		Mic:       &malgoMic{},
		Router:    router,
		Scheduler: sched,
		OnStatus: func(st voice.Status) {
			ev := logger.Info().Str("state", st.State.String())
			if st.Reason != voice.FailNone {
				ev = ev.Str("reason", string(st.Reason)).AnErr("cause", st.Err)
			}
			ev.Msg("voice session")
		},
		Logger:  logger,
		Metrics: m,
	})

	if err := session.Start(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("start voice session")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	session.Stop()
	sink.Close()

	for _, lead := range book.Leads() {
		logger.Info().Str("name", lead.Name).Str("phone", lead.Phone).Msg("captured lead")
	}
}
