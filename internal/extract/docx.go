package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"resumescore/internal/errors"

	"github.com/unidoc/unioffice/document"
)

// extractDOCX uses unioffice first. Without a license, or on a package it
// cannot load, it falls back to reading word/document.xml directly.
func extractDOCX(data []byte, logger *errors.Logger) (string, error) {
	text, err := extractDOCXUnioffice(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if logger != nil && err != nil {
		logger.Debug("unioffice extraction failed, using xml fallback", "error", err.Error())
	}

	text, err = extractDOCXXML(data)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed, "Could not read DOCX file", err)
	}
	return text, nil
}

func extractDOCXUnioffice(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewInternalError(errors.ErrCodeExtractionFailed, "unioffice panicked", nil)
		}
	}()

	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}
	for _, table := range doc.Tables() {
		for _, row := range table.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var cellText strings.Builder
				for _, para := range cell.Paragraphs() {
					for _, run := range para.Runs() {
						cellText.WriteString(run.Text())
					}
				}
				cells = append(cells, cellText.String())
			}
			sb.WriteString(strings.Join(cells, " | "))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// extractDOCXXML collects w:t text nodes, one output line per w:p paragraph
func extractDOCXXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.NewValidationError(errors.ErrCodeExtractionFailed, "word/document.xml not found in docx", nil)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var content string
				if err := decoder.DecodeElement(&content, &el); err == nil {
					sb.WriteString(content)
				}
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}
