package pdf

import (
	"math"
	"sort"
	"strings"

	rscpdf "rsc.io/pdf"
)

// A glyph's vertical reference point sits this far above its baseline, as a
// fraction of the font size. It keeps descenders and tightly drawn highlight
// boxes from dropping characters.
const glyphMidHeight = 0.35

// TextInRect returns the text of the glyphs whose centre lies inside r, in
// reading order. Lines are joined with a single space and runs of
// whitespace are collapsed.
func TextInRect(glyphs []rscpdf.Text, r Rect) string {
	var inside []rscpdf.Text
	for _, g := range glyphs {
		if r.Contains(g.X+g.W/2, g.Y+g.FontSize*glyphMidHeight) {
			inside = append(inside, g)
		}
	}
	if len(inside) == 0 {
		return ""
	}

	var lines []string
	for _, line := range groupLines(inside) {
		lines = append(lines, joinLine(line))
	}

	return strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
}

// groupLines buckets glyphs into lines, top of the page first. Glyphs whose
// baselines differ by less than half a font size share a line.
func groupLines(glyphs []rscpdf.Text) [][]rscpdf.Text {
	sorted := make([]rscpdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var (
		lines   [][]rscpdf.Text
		current []rscpdf.Text
		lineY   float64
	)
	for _, g := range sorted {
		if len(current) > 0 && math.Abs(g.Y-lineY) > math.Max(g.FontSize, 1)/2 {
			lines = append(lines, current)
			current = nil
		}
		if len(current) == 0 {
			lineY = g.Y
		}
		current = append(current, g)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool {
			return line[i].X < line[j].X
		})
	}
	return lines
}

// joinLine concatenates a line's glyphs, inserting a space where the gap
// between two glyphs is wider than a quarter of the font size and the
// document did not draw one itself.
func joinLine(line []rscpdf.Text) string {
	var b strings.Builder
	for i, g := range line {
		if i > 0 {
			prev := line[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > math.Max(g.FontSize, 1)/4 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(g.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}
