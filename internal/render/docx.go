package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"resumescore/internal/types"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/schema/soo/wml"
)

// DOCXRenderer produces a Word document. It uses unioffice when a license
// is registered and writes a minimal WordprocessingML package otherwise.
type DOCXRenderer struct{}

func (d *DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (d *DOCXRenderer) Extension() string { return ".docx" }

// Render implements Renderer
func (d *DOCXRenderer) Render(resume types.Resume) ([]byte, error) {
	if data, err := renderUnioffice(resume); err == nil {
		return data, nil
	}
	return renderMinimalDOCX(resume)
}

// docxLine is one paragraph of the plain document model
type docxLine struct {
	runs    []docxRun
	center  bool
	heading bool
}

type docxRun struct {
	text   string
	bold   bool
	italic bool
	size   float64
}

func docxLines(resume types.Resume) []docxLine {
	lines := []docxLine{{center: true, runs: []docxRun{{text: resume.Name, bold: true, size: 16}}}}
	if contact := resume.ContactParts(); len(contact) > 0 {
		lines = append(lines, docxLine{center: true, runs: []docxRun{{text: strings.Join(contact, " | "), size: 9}}})
	}

	for _, sec := range layout(resume) {
		lines = append(lines, docxLine{heading: true, runs: []docxRun{{text: strings.ToUpper(sec.Title), bold: true, size: 12}}})
		for _, e := range sec.Entries {
			if e.Title != "" || e.Meta != "" {
				runs := []docxRun{{text: e.Title, bold: true}}
				if meta := firstNonEmpty(e.Meta, e.Link); meta != "" {
					runs = append(runs, docxRun{text: "\t" + meta})
				}
				lines = append(lines, docxLine{runs: runs})
			}
			if e.Subtitle != "" {
				lines = append(lines, docxLine{runs: []docxRun{{text: e.Subtitle, italic: true}}})
			}
			if e.Label != "" {
				lines = append(lines, docxLine{runs: []docxRun{{text: e.Label + " ", bold: true}, {text: e.Text}}})
			} else if e.Text != "" {
				lines = append(lines, docxLine{runs: []docxRun{{text: e.Text}}})
			}
			for _, b := range e.Bullets {
				lines = append(lines, docxLine{runs: []docxRun{{text: "• " + b}}})
			}
			if e.Note != "" {
				lines = append(lines, docxLine{runs: []docxRun{{text: e.Note, italic: true, size: 9}}})
			}
		}
	}
	return lines
}

func renderUnioffice(resume types.Resume) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unioffice panicked: %v", r)
		}
	}()

	doc := document.New()
	defer doc.Close()

	for _, line := range docxLines(resume) {
		para := doc.AddParagraph()
		if line.center {
			para.Properties().SetAlignment(wml.ST_JcCenter)
		}
		if line.heading {
			para.SetStyle("Heading2")
		}
		for _, r := range line.runs {
			run := para.AddRun()
			run.AddText(r.text)
			run.Properties().SetBold(r.bold)
			run.Properties().SetItalic(r.italic)
			if r.size > 0 {
				run.Properties().SetSize(measurement.Distance(r.size) * measurement.Point)
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

	relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`
)

// renderMinimalDOCX writes the smallest package Word and unioffice accept
func renderMinimalDOCX(resume types.Resume) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range docxLines(resume) {
		body.WriteString("<w:p>")
		if line.center {
			body.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
		}
		for _, r := range line.runs {
			body.WriteString("<w:r>")
			if r.bold || r.italic || r.size > 0 {
				body.WriteString("<w:rPr>")
				if r.bold {
					body.WriteString("<w:b/>")
				}
				if r.italic {
					body.WriteString("<w:i/>")
				}
				if r.size > 0 {
					fmt.Fprintf(&body, `<w:sz w:val="%d"/>`, int(r.size*2))
				}
				body.WriteString("</w:rPr>")
			}
			body.WriteString(`<w:t xml:space="preserve">`)
			if err := xml.EscapeText(&body, []byte(r.text)); err != nil {
				return nil, err
			}
			body.WriteString("</w:t></w:r>")
		}
		body.WriteString("</w:p>")
	}
	body.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", body.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
