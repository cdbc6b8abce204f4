package pdf_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	rscpdf "rsc.io/pdf"

	"github.com/kpauljoseph/annotanki/internal/pdf"
)

// glyphs lays s out one character at a time from (x, y), 6pt per glyph.
func glyphs(s string, x, y float64) []rscpdf.Text {
	var out []rscpdf.Text
	for i, r := range s {
		out = append(out, rscpdf.Text{
			Font:     "Helvetica",
			FontSize: 12,
			X:        x + float64(i)*6,
			Y:        y,
			W:        6,
			S:        string(r),
		})
	}
	return out
}

var _ = Describe("TextInRect", func() {
	page := pdf.NewRect(0, 0, 612, 792)

	It("should return an empty string when nothing is inside", func() {
		Expect(pdf.TextInRect(glyphs("far away", 400, 100), pdf.NewRect(0, 600, 100, 700))).To(BeEmpty())
	})

	It("should order lines from the top of the page down", func() {
		var g []rscpdf.Text
		g = append(g, glyphs("second", 72, 684)...)
		g = append(g, glyphs("first", 72, 700)...)

		Expect(pdf.TextInRect(g, page)).To(Equal("first second"))
	})

	It("should order glyphs within a line by position", func() {
		g := glyphs("ab", 72, 700)
		g[0], g[1] = g[1], g[0]

		Expect(pdf.TextInRect(g, page)).To(Equal("ab"))
	})

	It("should keep glyphs with slightly different baselines on one line", func() {
		g := glyphs("sub", 72, 700)
		g[2].Y = 698

		Expect(pdf.TextInRect(g, page)).To(Equal("sub"))
	})

	It("should insert a space where words are drawn apart", func() {
		var g []rscpdf.Text
		g = append(g, glyphs("word", 72, 700)...)
		g = append(g, glyphs("gap", 72+4*6+5, 700)...)

		Expect(pdf.TextInRect(g, page)).To(Equal("word gap"))
	})

	It("should collapse runs of whitespace", func() {
		Expect(pdf.TextInRect(glyphs("  spaced    out  ", 72, 700), page)).To(Equal("spaced out"))
	})

	It("should only take glyphs whose centre is inside the rectangle", func() {
		// "abcdef" spans x 72..108; the rectangle covers the centres of c and d.
		r := pdf.NewRect(86, 695, 96, 715)
		Expect(pdf.TextInRect(glyphs("abcdef", 72, 700), r)).To(Equal("cd"))
	})
})
