package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kpauljoseph/annotanki/internal/anki"
	"github.com/kpauljoseph/annotanki/internal/hypothesis"
	"github.com/kpauljoseph/annotanki/internal/state"
	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

type Source interface {
	Search(ctx context.Context, params hypothesis.SearchParams) ([]hypothesis.Annotation, error)
}

type NoteSink interface {
	AddNote(ctx context.Context, note anki.Note) (int64, error)
}

type DeckCreator interface {
	CreateDeck(ctx context.Context, name string) error
}

type Store interface {
	LoadCheckpoint() (string, error)
	SaveCheckpoint(checkpoint string) error
	LoadProcessed() (state.IDSet, error)
	SaveProcessed(ids state.IDSet) error
}

type Notifier interface {
	SendSummary(ctx context.Context, to string, cards []models.Flashcard) error
}

type RemoteSyncer interface {
	Sync(ctx context.Context) error
}

type Options struct {
	Group     string
	Limit     int
	DeckName  string
	ModelName string
	CustomTag string
}

type Option func(*Syncer)

// WithDeckCreator makes the syncer create the target deck before the first
// note of a run is submitted.
func WithDeckCreator(decks DeckCreator) Option {
	return func(s *Syncer) {
		s.decks = decks
	}
}

// WithNotifier mails a summary of the cards created in a run to the given
// address.
func WithNotifier(notifier Notifier, to string) Option {
	return func(s *Syncer) {
		s.notifier = notifier
		s.notifyTo = to
	}
}

// WithRemoteSync requests an AnkiWeb sync at the end of every run and then
// waits for it to settle.
func WithRemoteSync(remote RemoteSyncer, wait time.Duration) Option {
	return func(s *Syncer) {
		s.remote = remote
		s.syncWait = wait
	}
}

type Syncer struct {
	source Source
	sink   NoteSink
	store  Store
	opts   Options
	logger *logger.Logger

	decks    DeckCreator
	notifier Notifier
	notifyTo string
	remote   RemoteSyncer
	syncWait time.Duration
	wait     func(ctx context.Context, d time.Duration) error
}

func New(source Source, sink NoteSink, store Store, opts Options, logger *logger.Logger, options ...Option) *Syncer {
	s := &Syncer{
		source: source,
		sink:   sink,
		store:  store,
		opts:   opts,
		logger: logger,
		wait:   anki.WaitForSync,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Run performs one incremental sync: it fetches the annotations created since
// the last checkpoint, submits every one not yet processed as a note, and
// records progress. A fetch failure ends the run before anything is written.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	report := Report{StartTime: time.Now()}
	err := s.run(ctx, &report)
	report.EndTime = time.Now()
	return report, err
}

func (s *Syncer) run(ctx context.Context, report *Report) error {
	checkpoint, err := s.store.LoadCheckpoint()
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	processed, err := s.store.LoadProcessed()
	if err != nil {
		return fmt.Errorf("failed to load processed ids: %w", err)
	}
	report.Checkpoint = checkpoint

	s.logger.Debug("Fetching annotations created since %s", checkpoint)
	annotations, err := s.source.Search(ctx, hypothesis.SearchParams{
		Group: s.opts.Group,
		Limit: s.opts.Limit,
		Since: checkpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch annotations: %w", err)
	}
	report.Fetched = len(annotations)

	if len(annotations) == 0 {
		s.logger.Info("No new annotations since %s", checkpoint)
		s.finish(ctx, report)
		return nil
	}

	succeeded := state.NewIDSet()
	s.submit(ctx, annotations, processed, succeeded, report)

	report.Checkpoint = annotations[len(annotations)-1].Created
	if err := s.store.SaveCheckpoint(report.Checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	processed.Merge(succeeded)
	if err := s.store.SaveProcessed(processed); err != nil {
		return fmt.Errorf("failed to save processed ids: %w", err)
	}

	s.logger.Info("Successfully processed %d new annotations", report.Added)
	s.finish(ctx, report)
	return nil
}

func (s *Syncer) submit(ctx context.Context, annotations []hypothesis.Annotation, processed, succeeded state.IDSet, report *Report) {
	deckReady := s.decks == nil

	for _, ann := range annotations {
		if processed.Has(ann.ID) {
			s.logger.Trace("Skipping processed annotation %s", ann.ID)
			report.Skipped++
			continue
		}

		if !deckReady {
			if err := s.decks.CreateDeck(ctx, s.opts.DeckName); err != nil {
				if errors.Is(err, anki.ErrUnreachable) {
					s.logger.Error("Could not connect to AnkiConnect. Is Anki running? %v", err)
					report.Aborted = true
					return
				}
				s.logger.Error("Error creating deck %s: %v", s.opts.DeckName, err)
			}
			deckReady = true
		}

		card := ann.Flashcard(s.opts.CustomTag)
		noteID, err := s.sink.AddNote(ctx, anki.NewNote(s.opts.DeckName, s.opts.ModelName, card))
		if err != nil {
			if errors.Is(err, anki.ErrUnreachable) {
				s.logger.Error("Could not connect to AnkiConnect. Is Anki running? %v", err)
				report.Aborted = true
				return
			}
			s.logger.Error("Error adding note for annotation %s: %v", ann.ID, err)
			report.Failed++
			continue
		}

		s.logger.Debug("Added note %d for annotation %s", noteID, ann.ID)
		succeeded.Add(ann.ID)
		report.Added++
		report.Cards = append(report.Cards, card)
	}
}

// finish runs the optional end-of-run steps. Their failures are logged and
// never undo the recorded progress.
func (s *Syncer) finish(ctx context.Context, report *Report) {
	if s.notifier != nil && len(report.Cards) > 0 {
		if err := s.notifier.SendSummary(ctx, s.notifyTo, report.Cards); err != nil {
			s.logger.Error("Failed to send summary email: %v", err)
		} else {
			report.Notified = true
			s.logger.Info("Summary email sent to %s", s.notifyTo)
		}
	}

	if s.remote != nil && !report.Aborted {
		s.logger.Info("Syncing with AnkiWeb...")
		if err := s.remote.Sync(ctx); err != nil {
			s.logger.Error("Failed to sync with AnkiWeb: %v", err)
			return
		}
		if err := s.wait(ctx, s.syncWait); err != nil {
			s.logger.Debug("Stopped waiting for AnkiWeb sync: %v", err)
			return
		}
		report.Synced = true
	}
}
