package state_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/annotanki/internal/state"
)

var _ = Describe("FileStore", func() {
	var (
		dir   string
		store *state.FileStore
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		store = state.NewFileStore(
			filepath.Join(dir, "last_run.txt"),
			filepath.Join(dir, "processed_ids.txt"),
		)
	})

	Context("checkpoint", func() {
		It("returns the default when the file does not exist", func() {
			checkpoint, err := store.LoadCheckpoint()
			Expect(err).NotTo(HaveOccurred())
			Expect(checkpoint).To(Equal(state.DefaultCheckpoint))
		})

		It("round-trips the timestamp verbatim", func() {
			Expect(store.SaveCheckpoint("2024-03-01T10:00:00.123456+00:00")).To(Succeed())

			checkpoint, err := store.LoadCheckpoint()
			Expect(err).NotTo(HaveOccurred())
			Expect(checkpoint).To(Equal("2024-03-01T10:00:00.123456+00:00"))

			raw, err := os.ReadFile(store.CheckpointPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal("2024-03-01T10:00:00.123456+00:00"))
		})

		It("trims whitespace written by hand", func() {
			Expect(os.WriteFile(store.CheckpointPath, []byte("2024-01-01T00:00:00+00:00\n"), 0644)).To(Succeed())

			checkpoint, err := store.LoadCheckpoint()
			Expect(err).NotTo(HaveOccurred())
			Expect(checkpoint).To(Equal("2024-01-01T00:00:00+00:00"))
		})
	})

	Context("processed IDs", func() {
		It("returns an empty set when the file does not exist", func() {
			ids, err := store.LoadProcessed()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})

		It("ignores blank lines and surrounding whitespace", func() {
			Expect(os.WriteFile(store.ProcessedPath, []byte("a1\n\n  a2 \n"), 0644)).To(Succeed())

			ids, err := store.LoadProcessed()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids.Sorted()).To(Equal([]string{"a1", "a2"}))
		})

		It("writes one ID per line in sorted order", func() {
			Expect(store.SaveProcessed(state.NewIDSet("b", "a", "c"))).To(Succeed())

			raw, err := os.ReadFile(store.ProcessedPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal("a\nb\nc\n"))

			ids, err := store.LoadProcessed()
			Expect(err).NotTo(HaveOccurred())
			Expect(ids.Has("b")).To(BeTrue())
			Expect(ids).To(HaveLen(3))
		})

		It("leaves no temp files behind", func() {
			Expect(store.SaveProcessed(state.NewIDSet("x"))).To(Succeed())
			Expect(store.SaveCheckpoint("t")).To(Succeed())

			entries, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("creates missing parent directories", func() {
			nested := state.NewFileStore(
				filepath.Join(dir, "state", "last_run.txt"),
				filepath.Join(dir, "state", "processed_ids.txt"),
			)
			Expect(nested.SaveProcessed(state.NewIDSet("x"))).To(Succeed())
			Expect(filepath.Join(dir, "state", "processed_ids.txt")).To(BeAnExistingFile())
		})
	})

	Context("IDSet", func() {
		It("merges without duplicates", func() {
			ids := state.NewIDSet("a1")
			ids.Merge(state.NewIDSet("a1", "a2"))
			Expect(ids.Sorted()).To(Equal([]string{"a1", "a2"}))
		})
	})
})
