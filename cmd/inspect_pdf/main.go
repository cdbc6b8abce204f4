package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/annotanki/internal/pdf"
	"github.com/kpauljoseph/annotanki/pkg/logger"
)

var (
	pdfPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "inspect_pdf [--file] <file.pdf>",
	Short: "Show what pdf2anki sees in a PDF",
	Long: `inspect_pdf validates a PDF, then prints its page dimensions, the entries of
its info dictionary and how many highlight annotations each page carries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pdfPath == "" && len(args) == 1 {
			pdfPath = args[0]
		}
		if pdfPath == "" {
			return fmt.Errorf("please provide a PDF file path using --file")
		}
		cmd.SilenceUsage = true

		log := logger.New(logger.WithPrefix("[inspect_pdf] "))
		log.SetVerbose(verbose)

		fmt.Printf("Analyzing PDF: %s\n", pdfPath)

		summary, err := pdf.Inspect(cmd.Context(), pdfPath, pdf.NewExtractor(log))
		printSummary(summary)
		return err
	},
}

func init() {
	rootCmd.Flags().StringVarP(&pdfPath, "file", "f", "", "path to PDF file")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
}

func printSummary(s pdf.Summary) {
	if s.ValidationErr != nil {
		fmt.Printf("\nValidation: FAILED (%v)\n", s.ValidationErr)
	} else {
		fmt.Printf("\nValidation: OK\n")
	}

	if s.Title != "" {
		fmt.Printf("Title: %s\n", s.Title)
	}

	if len(s.Metadata) > 0 {
		fmt.Printf("\nMetadata:\n")
		keys := make([]string, 0, len(s.Metadata))
		for k := range s.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s.Metadata[k] == "" {
				continue
			}
			fmt.Printf("  %s: %s\n", k, s.Metadata[k])
		}
	}

	for _, page := range s.Pages {
		fmt.Printf("\nPage %d:\n", page.Page)
		fmt.Printf("Dimensions (Width x Height): %.3f x %.3f points\n", page.Width, page.Height)
		fmt.Printf("Highlights: %d\n", page.Highlights)
	}

	if len(s.Pages) > 0 {
		fmt.Printf("\nTotal highlights: %d\n", s.Highlights)
	}
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
