// Command overlayd is the event core behind a browser-rendered stream
// overlay. It:
//   - Loads configuration and initializes structured logging.
//   - Connects the Twitch chat transport and, when a token is configured,
//     the Streamlabs alerts transport, normalizing both into one event
//     stream (with subs/cheers/raids suppressed on the chat side so no
//     alert fires twice).
//   - Runs the overlay state machine: bounded chat message list plus a
//     strictly serialized single-active alert queue.
//   - Exposes an HTTP server with the state snapshot/stream the renderer
//     consumes, /healthz, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM; teardown cancels pending timers,
// reconnects, and open sockets.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/chat-overlay/config"
	"github.com/onnwee/chat-overlay/events"
	"github.com/onnwee/chat-overlay/overlay"
	"github.com/onnwee/chat-overlay/server"
	"github.com/onnwee/chat-overlay/simulate"
	"github.com/onnwee/chat-overlay/streamlabs"
	"github.com/onnwee/chat-overlay/telemetry"
	"github.com/onnwee/chat-overlay/twitchchat"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateLive(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("overlayd", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Overlay state machine: the single consumer of normalized events.
	ov := overlay.New(overlay.Options{
		MaxMessages:     cfg.MaxMessages,
		TypingWindow:    cfg.TypingWindow,
		MessageLifetime: cfg.MessageLifetime,
		AlertDuration:   cfg.AlertDuration,
		RevealRate:      cfg.RevealRate,
		Effects:         overlay.LogEffects{},
	})
	defer ov.Close()

	sink := events.NewSink(events.Handlers{
		OnMessage: ov.SubmitMessage,
		OnFollow:  func(f events.Follow) { ov.SubmitAlert(f) },
		OnSub:     func(s events.Subscription) { ov.SubmitAlert(s) },
		OnCheer:   func(c events.Cheer) { ov.SubmitAlert(c) },
		OnRaid:    func(r events.Raid) { ov.SubmitAlert(r) },
	})

	// Sources: either the synthetic generator (test mode) or the live
	// transports, never both for the same categories.
	var gen *simulate.Generator
	if cfg.TestMode {
		slog.Info("test mode enabled; live transports disabled")
		gen = simulate.New(sink)
		go gen.Run(ctx)
	} else {
		chatOnly := cfg.StreamlabsEnabled()
		go twitchchat.New(twitchchat.Options{
			Channel:    cfg.TwitchChannel,
			Username:   cfg.TwitchUsername,
			OAuthToken: cfg.TwitchOAuthToken,
			ChatOnly:   chatOnly,
		}, sink).Run(ctx)
		go streamlabs.New(streamlabs.Options{
			Token:          cfg.StreamlabsToken,
			ReconnectDelay: cfg.ReconnectDelay,
		}, sink).Run(ctx)
		slog.Info("live ingestion started",
			slog.String("channel", cfg.TwitchChannel),
			slog.Bool("streamlabs", chatOnly))
	}

	// HTTP server (state stream, health, metrics)
	go func() {
		if err := server.Start(ctx, ov, gen, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()
	slog.Info("overlayd running", slog.String("addr", cfg.HTTPAddr))

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
