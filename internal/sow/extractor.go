package sow

import (
	"fmt"
	"sort"
	"strings"

	"rsc.io/pdf"
)

// ExtractText pulls the text of every page of a PDF into one blob with
// line structure reconstructed, because the SoW grammar is line oriented.
// This is the only stage of the pipeline allowed to fail hard: a file
// that cannot be opened or read is an error, a file with no matching
// sections is not.
func ExtractText(path string) (text string, err error) {
	// The pdf library panics on malformed files instead of returning
	// errors; uploads are untrusted input, so convert those to errors.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, pageText(p.Content().Text))
	}
	return strings.Join(pages, "\n"), nil
}

// pageText reassembles positioned text runs into lines. Runs sharing a
// baseline (within a small Y tolerance) belong to one line; a horizontal
// gap wider than a fraction of the font size becomes a space.
func pageText(runs []pdf.Text) string {
	if len(runs) == 0 {
		return ""
	}

	sorted := make([]pdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		// PDF origin is bottom-left, so higher Y comes first.
		if !sameBaseline(sorted[i].Y, sorted[j].Y) {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var b strings.Builder
	lineY := sorted[0].Y
	lineEnd := 0.0
	for i, r := range sorted {
		switch {
		case i == 0:
		case !sameBaseline(r.Y, lineY):
			b.WriteByte('\n')
			lineY = r.Y
		case r.X-lineEnd > r.FontSize*0.2:
			b.WriteByte(' ')
		}
		b.WriteString(r.S)
		lineEnd = r.X + r.W
	}
	return b.String()
}

func sameBaseline(a, b float64) bool {
	const tolerance = 2.0
	d := a - b
	return d < tolerance && d > -tolerance
}
