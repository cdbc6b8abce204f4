package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/annotanki/internal/pdf"
	"github.com/kpauljoseph/annotanki/internal/scanner"
	"github.com/kpauljoseph/annotanki/pkg/logger"
)

type fakeExtractor struct {
	docs map[string]pdf.Document
	errs map[string]error
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (pdf.Document, error) {
	name := filepath.Base(path)
	if err, ok := f.errs[name]; ok {
		return pdf.Document{}, err
	}
	doc := f.docs[name]
	doc.Path = path
	return doc, nil
}

var _ = Describe("Scanner", func() {
	var (
		testDir    string
		testLogger *logger.Logger
		ctx        context.Context
	)

	BeforeEach(func() {
		var err error
		testDir, err = os.MkdirTemp("", "scanner-test-*")
		Expect(err).NotTo(HaveOccurred())

		testLogger = logger.New(logger.WithOutput(GinkgoWriter), logger.WithPrefix("[test] "))
		ctx = context.Background()
	})

	AfterEach(func() {
		os.RemoveAll(testDir)
	})

	Context("when scanning an empty directory", func() {
		It("should return an error", func() {
			s := scanner.New(nil, testLogger)
			_, err := s.FindPDFs(ctx, testDir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no PDF files found"))
		})
	})

	Context("when scanning a directory with PDFs", func() {
		BeforeEach(func() {
			for i := 1; i <= 3; i++ {
				err := os.WriteFile(
					filepath.Join(testDir, fmt.Sprintf("test%d.pdf", i)),
					[]byte("dummy pdf content"),
					0644,
				)
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(os.WriteFile(filepath.Join(testDir, "UPPER.PDF"), []byte("dummy"), 0644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(testDir, "test.txt"), []byte("text file"), 0644)).To(Succeed())
		})

		It("should find only PDF files in walk order", func() {
			s := scanner.New(nil, testLogger)
			pdfs, err := s.FindPDFs(ctx, testDir)

			Expect(err).NotTo(HaveOccurred())
			Expect(pdfs).To(Equal([]string{
				filepath.Join(testDir, "UPPER.PDF"),
				filepath.Join(testDir, "test1.pdf"),
				filepath.Join(testDir, "test2.pdf"),
				filepath.Join(testDir, "test3.pdf"),
			}))
		})
	})

	Context("when scanning nested directories", func() {
		BeforeEach(func() {
			nestedDir := filepath.Join(testDir, "nested")
			Expect(os.MkdirAll(nestedDir, 0755)).To(Succeed())

			files := []string{
				filepath.Join(testDir, "root.pdf"),
				filepath.Join(nestedDir, "nested.pdf"),
			}

			for _, file := range files {
				err := os.WriteFile(file, []byte("dummy pdf content"), 0644)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("should find PDFs in all subdirectories", func() {
			s := scanner.New(nil, testLogger)
			pdfs, err := s.FindPDFs(ctx, testDir)

			Expect(err).NotTo(HaveOccurred())
			Expect(pdfs).To(HaveLen(2))

			var filenames []string
			for _, pdf := range pdfs {
				filenames = append(filenames, filepath.Base(pdf))
			}
			Expect(filenames).To(ConsistOf("root.pdf", "nested.pdf"))
		})

		It("should extract every PDF and skip the ones that fail", func() {
			extractor := &fakeExtractor{
				docs: map[string]pdf.Document{
					"root.pdf": {Title: "Root", Highlights: []pdf.Highlight{{Page: 1, Text: "a"}, {Page: 2, Text: "b"}}},
				},
				errs: map[string]error{
					"nested.pdf": errors.New("corrupt"),
				},
			}

			s := scanner.New(extractor, testLogger)
			docs, stats, err := s.ScanDirectory(ctx, testDir)

			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Title).To(Equal("Root"))
			Expect(stats).To(Equal(scanner.Stats{PDFCount: 2, HighlightCount: 2, FailedCount: 1}))
		})

		It("should stop when extraction is cancelled", func() {
			extractor := &fakeExtractor{
				errs: map[string]error{
					"nested.pdf": context.Canceled,
				},
			}

			s := scanner.New(extractor, testLogger)
			_, _, err := s.ScanDirectory(ctx, testDir)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Context("when context is cancelled", func() {
		It("should stop scanning", func() {
			deepDir := filepath.Join(testDir, "deep", "deeper", "deepest")
			err := os.MkdirAll(deepDir, 0755)
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			s := scanner.New(nil, testLogger)
			_, err = s.FindPDFs(ctx, testDir)

			Expect(err).To(Equal(context.Canceled))
		})
	})
})
