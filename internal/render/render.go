// Package render turns a structured resume into a PDF, HTML or DOCX
// document.
package render

import (
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"strings"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

// Supported output formats
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatDOCX = "docx"

	DefaultFormat = FormatPDF
)

// Renderer produces one document format. Implementations never modify
// the resume they are given.
type Renderer interface {
	Render(resume types.Resume) ([]byte, error)
	ContentType() string
	Extension() string
}

// Registry maps format names to renderers
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry creates a registry with the pdf, html and docx renderers
func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[string]Renderer)}
	r.Register(FormatPDF, &PDFRenderer{Compress: true})
	r.Register(FormatHTML, &HTMLRenderer{})
	r.Register(FormatDOCX, &DOCXRenderer{})
	return r
}

// Register adds or replaces the renderer for format
func (r *Registry) Register(format string, renderer Renderer) {
	r.renderers[strings.ToLower(format)] = renderer
}

// Get returns the renderer for format. An empty format selects the default.
func (r *Registry) Get(format string) (Renderer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = DefaultFormat
	}
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("Unsupported render format %q. Supported formats: %s", format, strings.Join(r.Formats(), ", ")), nil)
	}
	return renderer, nil
}

// Formats lists the registered formats, sorted
func (r *Registry) Formats() []string {
	return slices.Sorted(maps.Keys(r.renderers))
}

// Render renders resume in format
func (r *Registry) Render(format string, resume types.Resume) ([]byte, Renderer, error) {
	renderer, err := r.Get(format)
	if err != nil {
		return nil, nil, err
	}
	data, err := renderer.Render(resume)
	if err != nil {
		return nil, nil, errors.NewInternalError(errors.ErrCodeRenderFailed,
			fmt.Sprintf("Failed to render %s document", format), err)
	}
	return data, renderer, nil
}

// DataURL encodes a rendered document as a base64 data URL
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Section titles in document order
const (
	SectionSummary        = "Summary"
	SectionEducation      = "Education"
	SectionSkills         = "Skills"
	SectionExperience     = "Experience"
	SectionProjects       = "Projects"
	SectionAchievements   = "Achievements"
	SectionCertifications = "Certifications"
	SectionCodingProfiles = "Coding Profiles"
)

// entry is one item of a section, shared by every renderer so that all
// formats agree on content and order
type entry struct {
	Title    string
	Meta     string
	Link     string
	Subtitle string
	Label    string
	Text     string
	Bullets  []string
	Note     string
}

type section struct {
	Title   string
	Entries []entry
}

// layout builds the non-empty sections of a resume
func layout(r types.Resume) []section {
	var sections []section
	add := func(title string, entries []entry) {
		if len(entries) > 0 {
			sections = append(sections, section{Title: title, Entries: entries})
		}
	}

	if s := strings.TrimSpace(r.Summary); s != "" {
		add(SectionSummary, []entry{{Text: s}})
	}

	var education []entry
	for _, e := range r.Education {
		degree := e.Degree
		if e.Field != "" {
			degree = strings.TrimSpace(degree + " in " + e.Field)
		}
		var note string
		if e.GPA != "" {
			note = "GPA/Percentage: " + e.GPA
		}
		education = append(education, entry{Title: e.Institution, Meta: e.DateRange, Subtitle: degree, Note: note})
	}
	add(SectionEducation, education)

	var skills []entry
	for _, s := range r.Skills {
		if len(s.Skills) == 0 {
			continue
		}
		skills = append(skills, entry{Label: s.Category + ":", Text: strings.Join(s.Skills, ", ")})
	}
	add(SectionSkills, skills)

	var experience []entry
	for _, e := range r.Experiences {
		experience = append(experience, entry{Title: e.Position, Meta: e.DateRange, Subtitle: e.Company, Bullets: nonBlank(e.Description)})
	}
	add(SectionExperience, experience)

	var projects []entry
	for _, p := range r.Projects {
		var note string
		if len(p.Technologies) > 0 {
			note = "Technologies: " + strings.Join(p.Technologies, ", ")
		}
		projects = append(projects, entry{Title: p.Name, Link: p.Link, Bullets: nonBlank(p.Description), Note: note})
	}
	add(SectionProjects, projects)

	var achievements []entry
	for _, a := range r.Achievements {
		achievements = append(achievements, entry{Label: a.Title + ":", Text: a.Description})
	}
	add(SectionAchievements, achievements)

	var certifications []entry
	for _, c := range r.Certifications {
		meta := strings.TrimSpace(strings.Join(nonBlank([]string{c.Issuer, c.Date}), ", "))
		certifications = append(certifications, entry{Title: c.Name, Meta: meta})
	}
	add(SectionCertifications, certifications)

	var profiles []entry
	for _, p := range r.CodingProfiles {
		profiles = append(profiles, entry{Label: p.Platform + ":", Link: p.URL, Text: p.URL})
	}
	add(SectionCodingProfiles, profiles)

	return sections
}

func nonBlank(lines []string) []string {
	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
