package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/annotanki/internal/anki"
	"github.com/kpauljoseph/annotanki/internal/export"
	"github.com/kpauljoseph/annotanki/internal/pdf"
	"github.com/kpauljoseph/annotanki/internal/scanner"
	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

const (
	defaultDeckName = "PDF Highlights"
	pdfTag          = "pdf"
)

var log = logger.New(logger.WithPrefix("[pdf2anki] "))

var (
	pushToAnki bool
	deckName   string
	rootDeck   string
	ankiURL    string
	modelName  string
	verbose    bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "pdf2anki <input.pdf|dir> <output.csv>",
	Short: "Export PDF highlights as flashcards",
	Long: `pdf2anki reads every highlight annotation in a PDF and writes one flashcard
per highlight to a CSV file with a Front,Back header. The highlighted text is
the front; the comment attached to the highlight, if any, is the back.

When the input is a directory every PDF beneath it is read. With --anki the
cards are also added to Anki through AnkiConnect.`,
	Args: cobra.ExactArgs(2),
	RunE: run,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&pushToAnki, "anki", false, "also add the cards to Anki through AnkiConnect")
	flags.StringVar(&deckName, "deck", defaultDeckName, "Anki deck for --anki")
	flags.StringVar(&rootDeck, "root-deck", "", "with a directory input, file each PDF under this deck following the folder layout")
	flags.StringVar(&ankiURL, "anki-url", anki.DefaultAnkiConnectURL, "AnkiConnect endpoint")
	flags.StringVar(&modelName, "model", "Basic", "Anki note type for --anki")
	flags.BoolVar(&verbose, "verbose", false, "enable verbose logging")
	flags.BoolVar(&debug, "debug", false, "enable debug mode with trace logging")
}

type batch struct {
	deck  string
	cards []models.Flashcard
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	log.SetVerbose(verbose)
	if debug {
		log.SetLevel(logger.LevelTrace)
	}

	inputPath, outputPath := args[0], args[1]

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	extractor := pdf.NewExtractor(log)

	var docs []pdf.Document
	if info.IsDir() {
		var stats scanner.Stats
		docs, stats, err = scanner.New(extractor, log).ScanDirectory(ctx, inputPath)
		if err != nil {
			return err
		}
		log.Debug("Read %d PDFs, %d failed", stats.PDFCount, stats.FailedCount)
	} else {
		doc, err := extractor.Extract(ctx, inputPath)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	var (
		cards   []models.Flashcard
		batches []batch
	)
	for _, doc := range docs {
		docCards := tagCards(doc.Flashcards(), doc.Title)
		cards = append(cards, docCards...)
		batches = append(batches, batch{deck: deckFor(inputPath, doc, info.IsDir()), cards: docCards})
	}

	n, err := export.WriteCSVFile(outputPath, cards)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d flashcards to %s\n", n, outputPath)

	if pushToAnki {
		return addToAnki(ctx, batches)
	}
	return nil
}

// tagCards marks every card as coming from a PDF and, when the document has
// a usable title, with a tag derived from it.
func tagCards(cards []models.Flashcard, title string) []models.Flashcard {
	tag := models.TagFromName(title)
	for i := range cards {
		cards[i].Tags = []string{pdfTag}
		if tag != "" {
			cards[i].Tags = append(cards[i].Tags, tag)
		}
	}
	return cards
}

func deckFor(inputPath string, doc pdf.Document, fromDir bool) string {
	if !fromDir || rootDeck == "" {
		return deckName
	}
	rel, err := filepath.Rel(inputPath, doc.Path)
	if err != nil {
		return deckName
	}
	return anki.GetDeckNameFromPath(rootDeck, rel)
}

func addToAnki(ctx context.Context, batches []batch) error {
	service := anki.NewService(log, anki.WithURL(ankiURL))

	log.Debug("Checking Anki connection...")
	if err := service.CheckConnection(ctx); err != nil {
		return err
	}
	log.Info("Successfully connected to Anki")

	var total, added int
	for _, b := range batches {
		if len(b.cards) == 0 {
			continue
		}
		total += len(b.cards)

		if err := service.CreateDeck(ctx, b.deck); err != nil {
			if errors.Is(err, anki.ErrUnreachable) {
				return err
			}
			log.Error("Error creating deck %s: %v", b.deck, err)
			continue
		}
		log.Debug("Created/Updated deck: %s", b.deck)

		n, err := service.AddFlashcards(ctx, b.deck, modelName, b.cards)
		added += n
		if errors.Is(err, anki.ErrUnreachable) {
			return err
		}
		if err != nil {
			log.Error("Error adding flashcards to deck %s: %v", b.deck, err)
		}
	}

	log.Info("Added %d of %d flashcards to Anki", added, total)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
