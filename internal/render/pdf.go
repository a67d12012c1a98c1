package render

import (
	"bytes"
	"strings"

	"resumescore/internal/types"

	"github.com/go-pdf/fpdf"
)

const bullet = "- "

// PDFRenderer lays a resume out on A4 pages with the core Helvetica font
type PDFRenderer struct {
	// Compress enables stream compression
	Compress bool
}

func (p *PDFRenderer) ContentType() string { return "application/pdf" }

func (p *PDFRenderer) Extension() string { return ".pdf" }

// Render implements Renderer
func (p *PDFRenderer) Render(resume types.Resume) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(p.Compress)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Core fonts are cp1252; translate from UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(resume.Name), "", 1, "C", false, 0, "")

	if contact := resume.ContactParts(); len(contact) > 0 {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, tr(strings.Join(contact, " | ")), "", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()

	for _, sec := range layout(resume) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(strings.ToUpper(sec.Title)), "", 1, "", false, 0, "")
		y := pdf.GetY()
		pdf.Line(left, y, pageWidth-right, y)
		pdf.Ln(2)

		for _, e := range sec.Entries {
			writePDFEntry(pdf, tr, e)
		}
		pdf.Ln(2)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePDFEntry(pdf *fpdf.Fpdf, tr func(string) string, e entry) {
	if e.Title != "" || e.Meta != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, tr(e.Title), "", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, tr(firstNonEmpty(e.Meta, e.Link)), "", 1, "R", false, 0, e.Link)
	}
	if e.Subtitle != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, tr(e.Subtitle), "", 1, "", false, 0, "")
	}
	if e.Label != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, tr(e.Label), "", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(e.Text), "", "", false)
	} else if e.Text != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(e.Text), "", "", false)
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, b := range e.Bullets {
		pdf.MultiCell(0, 5, tr(bullet+b), "", "", false)
	}
	if e.Note != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, tr(e.Note), "", "", false)
	}
	pdf.Ln(1)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
