package updater_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/kpauljoseph/annotanki/pkg/logger"
	"github.com/kpauljoseph/annotanki/pkg/updater"
)

var _ = Describe("Checker", func() {
	var server *ghttp.Server

	BeforeEach(func() {
		server = ghttp.NewServer()
	})

	AfterEach(func() {
		server.Close()
	})

	newChecker := func(current string) *updater.Checker {
		return updater.NewChecker(logger.New(logger.WithOutput(GinkgoWriter)),
			updater.WithReleaseURL(server.URL()+"/releases/latest"),
			updater.WithCurrentVersion(current),
		)
	}

	It("should report a newer release", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, "/releases/latest"),
			ghttp.RespondWithJSONEncoded(http.StatusOK, updater.GitHubRelease{
				TagName: "v1.10.0",
				Body:    "Faster syncs",
				HTMLURL: "https://github.com/kpauljoseph/annotanki/releases/tag/v1.10.0",
			}),
		))

		info, err := newChecker("v1.9.2").CheckForUpdates(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsAvailable).To(BeTrue())
		Expect(info.CurrentVersion).To(Equal("1.9.2"))
		Expect(info.LatestVersion).To(Equal("1.10.0"))
		Expect(info.UpdateMessage).To(Equal("Faster syncs"))
	})

	It("should not report the running release", func() {
		server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, updater.GitHubRelease{TagName: "v1.0.0"}))

		info, err := newChecker("1.0.0").CheckForUpdates(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsAvailable).To(BeFalse())
	})

	It("should fail on a non-200 response", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusForbidden, "rate limited"))

		_, err := newChecker("1.0.0").CheckForUpdates(context.Background())
		Expect(err).To(MatchError(ContainSubstring("status 403")))
	})
})

var _ = DescribeTable("CompareVersions",
	func(v1, v2 string, expected int) {
		Expect(updater.CompareVersions(v1, v2)).To(Equal(expected))
	},
	Entry("equal", "1.2.3", "1.2.3", 0),
	Entry("older patch", "1.2.3", "1.2.4", -1),
	Entry("numeric, not lexical", "1.10.0", "1.9.0", 1),
	Entry("shorter is older", "1.2", "1.2.1", -1),
	Entry("longer is newer", "2.0.1", "2.0", 1),
)
