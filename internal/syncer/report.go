package syncer

import (
	"time"

	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

// Report summarises one sync run. Cards holds the flashcards that were
// accepted by Anki, in submission order.
type Report struct {
	StartTime  time.Time
	EndTime    time.Time
	Fetched    int
	Skipped    int
	Added      int
	Failed     int
	Aborted    bool
	Notified   bool
	Synced     bool
	Checkpoint string
	Cards      []models.Flashcard
}

func (r Report) Duration() time.Duration {
	if r.EndTime.Before(r.StartTime) {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

func (r Report) Print(log *logger.Logger) {
	log.Info("Sync complete:")
	log.Info("- Annotations fetched: %d", r.Fetched)
	log.Info("- Already processed: %d", r.Skipped)
	log.Info("- Notes added: %d", r.Added)
	if r.Failed > 0 {
		log.Info("- Notes rejected by Anki: %d", r.Failed)
	}
	if r.Aborted {
		log.Info("- Batch aborted: AnkiConnect became unreachable")
	}
	log.Info("- Checkpoint: %s", r.Checkpoint)
	log.Info("- Time taken: %v", r.Duration().Round(time.Millisecond))
}
