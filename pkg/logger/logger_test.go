package logger_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/annotanki/pkg/logger"
)

var _ = Describe("Logger", func() {
	var (
		buf *bytes.Buffer
		log *logger.Logger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		log = logger.New(
			logger.WithOutput(buf),
			logger.WithPrefix("[test] "),
			logger.WithFlags(0),
		)
	})

	It("always prints info and error lines with their level", func() {
		log.Info("synced %d notes", 3)
		log.Error("boom: %s", "reason")

		Expect(buf.String()).To(Equal("[test] INFO: synced 3 notes\n[test] ERROR: boom: reason\n"))
	})

	It("only prints debug lines when verbose", func() {
		log.Debug("hidden")
		Expect(buf.String()).To(BeEmpty())

		log.SetVerbose(true)
		log.Debug("shown")
		Expect(buf.String()).To(Equal("[test] DEBUG: shown\n"))
	})

	It("enables verbose output together with trace level", func() {
		log.Trace("hidden")
		Expect(buf.String()).To(BeEmpty())

		log.SetLevel(logger.LevelTrace)

		log.Trace("glyph %q", "a")
		log.Debug("also shown")
		Expect(buf.String()).To(ContainSubstring("TRACE: glyph \"a\""))
		Expect(buf.String()).To(ContainSubstring("DEBUG: also shown"))
	})
})
