package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	log "log/slog"

	"neo/internal/assistant"
	"neo/internal/audio"
	"neo/internal/avatar"
	"neo/internal/chat"
	"neo/internal/config"
	"neo/internal/nlu"
	"neo/internal/notify"
	"neo/internal/observe"
	"neo/internal/proxy"
	"neo/internal/tts"
	"neo/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Getenv)

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[cfg.LogLevel],
	})))

	if errors.Is(err, cli.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Error("Bad configuration", "err", err)
		os.Exit(1)
	}

	log.Info("Booting up", "persona", cfg.Persona, "model", cfg.Model)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, 120*time.Second)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	client, err := chat.New(cfg.APIKey, cfg.Model,
		chat.WithBaseURL(cfg.BaseURL),
		chat.WithHTTPClient(httpClient),
		chat.WithTimeout(cfg.ChatTimeout),
	)
	if err != nil {
		log.Error("Failed to init chat client", "err", err)
		os.Exit(1)
	}

	log.Debug("Loaded chat client")

	speaker, err := tts.New(ctx, cfg.TTS, tts.Options{
		Rate:            cfg.Rate,
		Voice:           cfg.Voice,
		Language:        cfg.Language,
		CredentialsFile: cfg.GoogleCredentials,
	})
	if err != nil {
		log.Error("Failed to init tts", "backend", cfg.TTS, "err", err)
		os.Exit(1)
	}
	defer speaker.Close()

	if cfg.Duck {
		speaker = tts.WithDucking(speaker, audio.NewDucker([]string{"neo", "espeak-ng"}, 0.3, 200*time.Millisecond))
	}

	log.Debug("Loaded tts", "backend", speaker.Name())

	listener, cleanup, err := newListener(ctx, cfg)
	if err != nil {
		log.Error("Failed to init listener", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	metrics := observe.NewMetrics()

	loop := assistant.New(assistant.Config{
		Persona:       cfg.Persona,
		ListenTimeout: cfg.ListenTimeout,
		Transcript:    os.Stdout,
		Observer:      metrics,
	}, listener, nlu.NewDispatcher(cfg.Persona, client), speaker)

	log.Info("Boot up - successful")

	// The avatar only lives as long as the dialogue.
	avatarCtx, stopAvatar := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(avatarCtx)
	if cfg.AvatarAddr != "" {
		hub := avatar.NewHub()
		g.Go(func() error { return avatar.NewRenderer(hub, avatar.DefaultRate).Run(gctx) })
		g.Go(func() error { return avatar.NewServer(cfg.AvatarAddr, hub, metrics.Handler()).Run(gctx) })
	}

	err = loop.Run(ctx)
	stopAvatar()

	if gerr := g.Wait(); gerr != nil {
		log.Warn("Avatar stopped with error", "err", gerr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Dialogue failed", "err", err)
		os.Exit(1)
	}

	log.Info("Shut down")
}

// newListener picks the utterance source: typed lines, audio files or the
// microphone. The returned cleanup releases devices and clients.
func newListener(ctx context.Context, cfg config.Config) (assistant.Listener, func(), error) {
	if cfg.Stdin {
		return assistant.NewTextListener(os.Stdin), func() {}, nil
	}

	var (
		capture assistant.Capturer
		cue     assistant.Cue
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if len(cfg.Inputs) > 0 {
		capture = audio.NewFileSource(cfg.Inputs, cfg.PhraseLimit)
	} else {
		rec := audio.NewRecorder(cfg.PhraseLimit)
		if err := rec.Init(); err != nil {
			return nil, nil, err
		}
		closers = append(closers, rec.Close)

		log.Debug("Loaded recorder")

		if err := rec.Calibrate(time.Second); err != nil {
			log.Warn("Failed to calibrate for ambient noise", "err", err)
		}
		capture = rec

		if cfg.Chime != "off" {
			chime, err := notify.NewChime(cfg.Chime)
			if err != nil {
				log.Warn("Failed to load chime", "err", err)
			} else {
				cue = chime
			}
		}
	}

	tr, err := stt.NewTranscriber(ctx, stt.Options{
		Language:        cfg.Language,
		SampleRate:      audio.SampleRate,
		CredentialsFile: cfg.GoogleCredentials,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, func() { _ = tr.Close() })

	log.Debug("Loaded speech client")

	return assistant.NewVoiceListener(capture, tr, cue), cleanup, nil
}
