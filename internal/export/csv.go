package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/kpauljoseph/annotanki/pkg/models"
)

var csvHeader = []string{"Front", "Back"}

// WriteCSV writes a Front,Back header followed by one row per card.
func WriteCSV(w io.Writer, cards []models.Flashcard) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, card := range cards {
		if err := cw.Write([]string{card.Front, card.Back}); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteCSVFile creates or truncates path and writes cards to it. It returns
// the number of data rows written.
func WriteCSVFile(path string, cards []models.Flashcard) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	if err := WriteCSV(f, cards); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close output file: %w", err)
	}

	return len(cards), nil
}
