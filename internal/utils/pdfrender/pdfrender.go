package pdfrender

import (
	"bytes"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// RenderResume lays generated resume text out as a single-column A4 PDF.
// Blank lines in the body separate paragraphs.
func RenderResume(fullName, body string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fullName, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, fullName, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, para := range strings.Split(body, "\n") {
		para = strings.TrimRight(para, " \t")
		if para == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 5.5, para, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
