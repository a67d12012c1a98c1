package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumescore/internal/errors"
)

const plainResume = `John Smith
john@example.com
Experienced software engineer with a background in distributed systems.`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		declared Format
		want     Format
		wantErr  bool
	}{
		{"resume.pdf", "", FormatPDF, false},
		{"RESUME.PDF", "", FormatPDF, false},
		{"resume.docx", "", FormatDOCX, false},
		{"resume.txt", "", FormatText, false},
		{"resume.md", "", FormatText, false},
		{"resume.html", "", FormatHTML, false},
		{"resume.htm", "", FormatHTML, false},
		{"resume.doc", "", "", true},
		{"resume", "", "", true},
		{"upload.bin", FormatText, FormatText, false},
		{"resume.txt", Format("rtf"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"/"+string(tt.declared), func(t *testing.T) {
			got, err := DetectFormat(tt.filename, tt.declared)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractValidation(t *testing.T) {
	e := newTestExtractor(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		doc      Document
		wantCode string
	}{
		{"empty data", Document{Filename: "a.txt"}, errors.ErrCodeEmptyDocument},
		{"unsupported extension", Document{Filename: "a.exe", Data: []byte(plainResume)}, errors.ErrCodeUnsupportedFormat},
		{"too short", Document{Filename: "a.txt", Data: []byte("Short resume text")}, errors.ErrCodeContentTooShort},
		{"whitespace padded short", Document{Filename: "a.txt", Data: []byte("   tiny   \n\n\n\n" + strings.Repeat(" ", 80))}, errors.ErrCodeContentTooShort},
		{"corrupt pdf", Document{Filename: "a.pdf", Data: []byte("not really a pdf document at all, just some text bytes")}, errors.ErrCodeExtractionFailed},
		{"corrupt docx", Document{Filename: "a.docx", Data: []byte("not a zip archive")}, errors.ErrCodeExtractionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(ctx, tt.doc)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("expected *AppError, got %T", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", appErr.Code, tt.wantCode)
			}
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	e := newTestExtractor(t)
	text, err := e.Extract(context.Background(), Document{Filename: "resume.txt", Data: []byte(plainResume)})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != plainResume {
		t.Errorf("Extract() = %q, want input unchanged", text)
	}
}

func TestExtractHTML(t *testing.T) {
	page := `<html><head><title>ignored</title><style>p{color:red}</style></head>
<body><nav>Home | About</nav>
<h1>Jane Doe</h1>
<p>Senior engineer building   reliable payment systems for ten years.</p>
<ul><li>Led migration to Kubernetes</li><li>Reduced latency by 40%</li></ul>
<script>alert("x")</script>
</body></html>`

	e := newTestExtractor(t)
	text, err := e.Extract(context.Background(), Document{Filename: "resume.html", Data: []byte(page)})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, want := range []string{"Jane Doe", "Senior engineer building reliable payment systems", "- Led migration to Kubernetes", "- Reduced latency by 40%"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in extracted text:\n%s", want, text)
		}
	}
	for _, unwanted := range []string{"alert", "color:red", "Home | About", "ignored"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("did not expect %q in extracted text:\n%s", unwanted, text)
		}
	}
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	xmlDoc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(xmlDoc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDOCXXMLFallback(t *testing.T) {
	data := buildDOCX(t, "Alex Morgan", "Product manager with eight years of experience", "Managed a team of 12 across three time zones")

	text, err := extractDOCXXML(data)
	if err != nil {
		t.Fatalf("extractDOCXXML() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), text)
	}
	if lines[0] != "Alex Morgan" {
		t.Errorf("first line = %q", lines[0])
	}

	e := newTestExtractor(t)
	full, err := e.Extract(context.Background(), Document{Filename: "resume.docx", Data: data})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(full, "Managed a team of 12") {
		t.Errorf("expected paragraph text in %q", full)
	}
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := extractDOCXXML(buf.Bytes()); err == nil {
		t.Error("expected error for docx without word/document.xml")
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(path, []byte(plainResume), 0600); err != nil {
		t.Fatal(err)
	}

	e := newTestExtractor(t)
	text, err := e.ExtractFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if !strings.Contains(text, "distributed systems") {
		t.Errorf("unexpected text %q", text)
	}

	if _, err := e.ExtractFile(context.Background(), filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCustomMinTextLength(t *testing.T) {
	e, err := New(Config{MinTextLength: 10}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.MinTextLength() != 10 {
		t.Errorf("MinTextLength() = %d", e.MinTextLength())
	}
	if _, err := e.Extract(context.Background(), Document{Filename: "a.txt", Data: []byte("Twelve chars")}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
