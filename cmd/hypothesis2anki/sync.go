package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kpauljoseph/annotanki/internal/anki"
	"github.com/kpauljoseph/annotanki/internal/config"
	"github.com/kpauljoseph/annotanki/internal/hypothesis"
	"github.com/kpauljoseph/annotanki/internal/notify"
	"github.com/kpauljoseph/annotanki/internal/retry"
	"github.com/kpauljoseph/annotanki/internal/state"
	"github.com/kpauljoseph/annotanki/internal/syncer"
)

const closeTimeout = 10 * time.Second

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := cfg.Validate(); err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	ankiService := anki.NewService(log,
		anki.WithURL(cfg.Anki.ConnectURL),
		anki.WithHTTPClient(httpClient),
	)

	if viper.GetBool("no-launch") {
		if err := ankiService.CheckConnection(ctx); err != nil {
			return err
		}
	} else {
		launcher := anki.NewLauncher(ankiService, cfg.Anki.LaunchCommand, cfg.Anki.ProcessName, retry.Policy{
			Timeout:  cfg.Anki.StartupTimeout,
			Interval: cfg.Anki.PollInterval,
		}, log)
		if err := launcher.EnsureRunning(ctx); err != nil {
			return fmt.Errorf("failed to start Anki: %w", err)
		}
		if cfg.Anki.CloseAfterRun && !viper.GetBool("keep-open") {
			defer closeAnki(launcher)
		}
	}

	options := []syncer.Option{syncer.WithDeckCreator(ankiService)}
	if cfg.Anki.RemoteSync {
		options = append(options, syncer.WithRemoteSync(ankiService, cfg.Anki.SyncWait))
	}
	if cfg.Email.Enabled {
		notifier, err := newNotifier(cfg)
		if err != nil {
			return err
		}
		options = append(options, syncer.WithNotifier(notifier, cfg.Email.To))
	}

	s := syncer.New(
		hypothesis.NewClient(cfg.Hypothesis.APIURL, cfg.Hypothesis.Token, httpClient, log),
		ankiService,
		state.NewFileStore(cfg.State.CheckpointFile, cfg.State.ProcessedFile),
		syncer.Options{
			Group:     cfg.Hypothesis.Group,
			Limit:     cfg.Hypothesis.Limit,
			DeckName:  cfg.Anki.DeckName,
			ModelName: cfg.Anki.ModelName,
			CustomTag: cfg.Anki.CustomTag,
		},
		log,
		options...,
	)

	report, err := s.Run(ctx)
	if err != nil {
		return explainFetchError(err)
	}

	report.Print(log)
	return nil
}

func closeAnki(launcher *anki.Launcher) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := launcher.Close(ctx); err != nil {
		log.Error("Failed to close Anki: %v", err)
	}
}

func explainFetchError(err error) error {
	var statusErr *hypothesis.StatusError
	switch {
	case errors.Is(err, hypothesis.ErrUnauthorized):
		return fmt.Errorf("%w (check the Hypothes.is API token)", err)
	case errors.Is(err, hypothesis.ErrRateLimited) && errors.As(err, &statusErr) && statusErr.RetryAfter > 0:
		return fmt.Errorf("%w (try again in %s)", err, statusErr.RetryAfter)
	}
	return err
}

func newNotifier(cfg *config.Config) (*notify.Notifier, error) {
	return notify.New(notify.Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		Timeout:  cfg.HTTP.Timeout,
	}, log)
}
