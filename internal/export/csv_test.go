package export_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/annotanki/internal/export"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

var _ = Describe("CSV export", func() {
	Describe("WriteCSV", func() {
		It("should write only the header for no cards", func() {
			var buf bytes.Buffer
			Expect(export.WriteCSV(&buf, nil)).To(Succeed())
			Expect(buf.String()).To(Equal("Front,Back\n"))
		})

		It("should leave Back empty when a card has no comment", func() {
			var buf bytes.Buffer
			cards := []models.Flashcard{
				{Front: "mitochondria", Back: "powerhouse of the cell"},
				{Front: "ribosome"},
			}

			Expect(export.WriteCSV(&buf, cards)).To(Succeed())
			Expect(buf.String()).To(Equal("Front,Back\nmitochondria,powerhouse of the cell\nribosome,\n"))
		})

		It("should quote fields that need it", func() {
			var buf bytes.Buffer
			cards := []models.Flashcard{
				{Front: `say "hi", twice`, Back: "line one\nline two"},
			}

			Expect(export.WriteCSV(&buf, cards)).To(Succeed())

			records, err := csv.NewReader(&buf).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(Equal([][]string{
				{"Front", "Back"},
				{`say "hi", twice`, "line one\nline two"},
			}))
		})
	})

	Describe("WriteCSVFile", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "export-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("should truncate an existing file and report the row count", func() {
			path := filepath.Join(tempDir, "out.csv")
			Expect(os.WriteFile(path, []byte("stale content that is longer than the new file\n"), 0644)).To(Succeed())

			n, err := export.WriteCSVFile(path, []models.Flashcard{{Front: "Ünïcode", Back: "ok"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("Front,Back\nÜnïcode,ok\n"))
		})

		It("should fail when the directory does not exist", func() {
			_, err := export.WriteCSVFile(filepath.Join(tempDir, "missing", "out.csv"), nil)
			Expect(err).To(HaveOccurred())
		})
	})
})
