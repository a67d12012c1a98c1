package render

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/types"
)

func sampleResume() types.Resume {
	return types.Resume{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+44 20 0000 0000",
		LinkedIn: "linkedin.com/in/ada",
		Education: []types.Education{
			{Institution: "University of London", Degree: "BSc", Field: "Mathematics", DateRange: "1832 - 1835", GPA: "3.9"},
		},
		Skills: []types.SkillGroup{
			{Category: "Languages", Skills: []string{"Go", "Python"}},
		},
		Experiences: []types.Experience{
			{Company: "Analytical Engines Ltd", Position: "Programmer", DateRange: "1842 - 1843",
				Description: []string{"Wrote the first published algorithm", "  "}},
		},
	}
}

func TestLayoutOmitsEmptySections(t *testing.T) {
	sections := layout(sampleResume())

	var titles []string
	for _, s := range sections {
		titles = append(titles, s.Title)
	}
	want := []string{SectionEducation, SectionSkills, SectionExperience}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("sections = %v, want %v", titles, want)
	}

	exp := sections[2].Entries[0]
	if len(exp.Bullets) != 1 {
		t.Errorf("blank bullets should be dropped, got %q", exp.Bullets)
	}
	if sections[0].Entries[0].Subtitle != "BSc in Mathematics" {
		t.Errorf("education subtitle = %q", sections[0].Entries[0].Subtitle)
	}
}

func TestLayoutOrder(t *testing.T) {
	r := sampleResume()
	r.Summary = "Mathematician."
	r.Projects = []types.Project{{Name: "Notes", Description: []string{"Annotated a paper"}, Technologies: []string{"pen"}}}
	r.Achievements = []types.Achievement{{Title: "First program", Description: "Bernoulli numbers"}}
	r.Certifications = []types.Certification{{Name: "Royal Society", Issuer: "RS"}}
	r.CodingProfiles = []types.CodingProfile{{Platform: "GitHub", URL: "https://github.com/ada"}}

	var titles []string
	for _, s := range layout(r) {
		titles = append(titles, s.Title)
	}
	want := []string{
		SectionSummary, SectionEducation, SectionSkills, SectionExperience,
		SectionProjects, SectionAchievements, SectionCertifications, SectionCodingProfiles,
	}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("sections = %v, want %v", titles, want)
	}
}

func TestHTMLRenderer(t *testing.T) {
	resume := sampleResume()
	resume.Name = "Ada <script>"

	out, err := (&HTMLRenderer{}).Render(resume)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)

	for _, want := range []string{"EDUCATION", "SKILLS", "EXPERIENCE", "ada@example.com | ", "Wrote the first published algorithm"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
	for _, absent := range []string{"PROJECTS", "ACHIEVEMENTS", "CERTIFICATIONS", "<script>"} {
		if strings.Contains(html, absent) {
			t.Errorf("html should not contain %q", absent)
		}
	}
}

func TestPDFRenderer(t *testing.T) {
	out, err := (&PDFRenderer{}).Render(sampleResume())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
	if !bytes.Contains(out, []byte("EXPERIENCE")) {
		t.Error("uncompressed PDF should contain section title")
	}
	if bytes.Contains(out, []byte("PROJECTS")) {
		t.Error("empty projects section should be omitted")
	}
}

func TestDOCXRendererRoundTrip(t *testing.T) {
	out, err := (&DOCXRenderer{}).Render(sampleResume())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	ex, err := extract.New(extract.Config{MinTextLength: 10}, nil)
	if err != nil {
		t.Fatalf("extract.New: %v", err)
	}
	text, err := ex.Extract(context.Background(), extract.Document{Filename: "resume.docx", Data: out})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{"Ada Lovelace", "EDUCATION", "Wrote the first published algorithm"} {
		if !strings.Contains(text, want) {
			t.Errorf("docx text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "PROJECTS") {
		t.Error("empty projects section should be omitted")
	}
}

func TestRenderDoesNotMutate(t *testing.T) {
	resume := sampleResume()
	before := sampleResume()
	registry := NewRegistry()

	for _, format := range registry.Formats() {
		if _, _, err := registry.Render(format, resume); err != nil {
			t.Fatalf("Render(%s): %v", format, err)
		}
	}
	if !reflect.DeepEqual(resume, before) {
		t.Error("rendering modified the resume")
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if got := registry.Formats(); !reflect.DeepEqual(got, []string{"docx", "html", "pdf"}) {
		t.Errorf("Formats = %v", got)
	}

	r, err := registry.Get("")
	if err != nil || r.ContentType() != "application/pdf" {
		t.Errorf("default renderer = %v, %v", r, err)
	}
	if r, err := registry.Get("HTML"); err != nil || r.Extension() != ".html" {
		t.Errorf("Get(HTML) = %v, %v", r, err)
	}

	_, err = registry.Get("odt")
	if !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDataURL(t *testing.T) {
	got := DataURL("application/pdf", []byte("hi"))
	if got != "data:application/pdf;base64,aGk=" {
		t.Errorf("DataURL = %s", got)
	}
}
