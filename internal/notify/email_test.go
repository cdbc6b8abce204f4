package notify_test

import (
	"bytes"
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/wneessen/go-mail"

	"github.com/kpauljoseph/annotanki/internal/notify"
	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/models"
)

var _ = Describe("Notifier", func() {
	var (
		notifier *notify.Notifier
		sent     []*mail.Msg
		ctx      context.Context
		today    = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
		cards    []models.Flashcard
	)

	BeforeEach(func() {
		var err error
		notifier, err = notify.New(notify.Config{
			Host:     "smtp.example.com",
			Username: "me@example.com",
			Password: "secret",
		}, logger.New(logger.WithOutput(GinkgoWriter)))
		Expect(err).NotTo(HaveOccurred())

		sent = nil
		notifier.SetClock(func() time.Time { return today })
		notifier.SetSender(func(_ context.Context, messages ...*mail.Msg) error {
			sent = append(sent, messages...)
			return nil
		})

		ctx = context.Background()
		cards = []models.Flashcard{
			{
				Front: "What is X?",
				Back:  "X is Y\n\nSource: <a href='http://e.com'>Link</a>",
				Tags:  []string{"bio", "Hypothesis"},
			},
			{
				Front: "Second <script>alert(1)</script>card",
				Back:  "plain",
			},
		}
	})

	It("should not send anything for an empty list", func() {
		err := notifier.SendSummary(ctx, "you@example.com", nil)
		Expect(err).To(MatchError(notify.ErrNoFlashcards))
		Expect(sent).To(BeEmpty())
	})

	It("should send one message with the summary", func() {
		Expect(notifier.SendSummary(ctx, "you@example.com", cards)).To(Succeed())
		Expect(sent).To(HaveLen(1))

		var buf bytes.Buffer
		_, err := sent[0].WriteTo(&buf)
		Expect(err).NotTo(HaveOccurred())

		raw := buf.String()
		Expect(raw).To(ContainSubstring("Subject: Daily Learning Summary - 2024-05-02"))
		Expect(raw).To(ContainSubstring("From: <me@example.com>"))
		Expect(raw).To(ContainSubstring("To: <you@example.com>"))
		Expect(raw).To(ContainSubstring("multipart/alternative"))
		Expect(raw).To(ContainSubstring("text/plain"))
		Expect(raw).To(ContainSubstring("text/html"))
	})

	Describe("RenderHTML", func() {
		It("should list every card with its fields", func() {
			html, err := notifier.RenderHTML(cards, today)
			Expect(err).NotTo(HaveOccurred())

			Expect(html).To(ContainSubstring("<h2>Today's Learning Summary (2024-05-02)</h2>"))
			Expect(html).To(ContainSubstring("<p>Processed 2 flashcards:</p>"))
			Expect(html).To(ContainSubstring("<h3>Card #1</h3>"))
			Expect(html).To(ContainSubstring("<h3>Card #2</h3>"))
			Expect(html).To(ContainSubstring("<strong>Tags:</strong> bio, Hypothesis"))
			Expect(html).To(ContainSubstring("Generated by your Learning System"))
		})

		It("should keep source links and drop scripts", func() {
			html, err := notifier.RenderHTML(cards, today)
			Expect(err).NotTo(HaveOccurred())

			Expect(html).To(ContainSubstring(`href="http://e.com"`))
			Expect(html).To(ContainSubstring(">Link</a>"))
			Expect(html).NotTo(ContainSubstring("<script>"))
			Expect(html).NotTo(ContainSubstring("alert(1)"))
		})
	})

	Describe("Compose", func() {
		It("should reject an invalid recipient", func() {
			_, err := notifier.Compose("not an address", cards)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("when the server cannot be reached", func() {
		It("should return the transport error", func() {
			unreachable, err := notify.New(notify.Config{
				Host:     "127.0.0.1",
				Port:     1,
				Username: "me@example.com",
				Password: "secret",
				Timeout:  2 * time.Second,
			}, logger.New(logger.WithOutput(GinkgoWriter)))
			Expect(err).NotTo(HaveOccurred())

			err = unreachable.SendSummary(ctx, "you@example.com", cards)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to send summary email"))
		})
	})

	It("should require a host", func() {
		_, err := notify.New(notify.Config{}, logger.New(logger.WithOutput(GinkgoWriter)))
		Expect(err).To(HaveOccurred())
	})
})
