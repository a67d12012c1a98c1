package optimize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appErrors "resumescore/internal/errors"
	"resumescore/internal/render"
	"resumescore/internal/types"
)

type fakeModel struct {
	mu        sync.Mutex
	rewrite   map[string]string
	fail      map[string]bool
	delay     time.Duration
	active    atomic.Int32
	maxActive atomic.Int32
	sections  []string
}

func (m *fakeModel) OptimizeSection(ctx context.Context, section string, content json.RawMessage, profession string) (json.RawMessage, error) {
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		cur := m.maxActive.Load()
		if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(m.delay)

	m.mu.Lock()
	m.sections = append(m.sections, section)
	m.mu.Unlock()

	if m.fail[section] {
		return content, errors.New("model unavailable")
	}
	if out, ok := m.rewrite[section]; ok {
		return json.RawMessage(out), nil
	}
	return content, nil
}

func (m *fakeModel) ATSScore(ctx context.Context, resume types.Resume) float64 { return 82 }

func (m *fakeModel) ImprovementNotes(ctx context.Context, original, optimized types.Resume) []string {
	return []string{"Stronger verbs."}
}

func testLogger() *appErrors.Logger {
	return appErrors.NewLoggerTo(io.Discard, slog.LevelDebug)
}

func sampleResume() types.Resume {
	return types.Resume{
		Name:             "Grace Hopper",
		TargetProfession: "compiler engineer",
		Education:        []types.Education{{Institution: "Yale", Degree: "PhD"}},
		Experiences: []types.Experience{
			{Company: "Navy", Position: "Programmer", Description: []string{"wrote compilers"}},
		},
		Projects: []types.Project{
			{Name: "COBOL", Description: []string{"designed a language"}},
		},
		Skills: []types.SkillGroup{
			{Category: "Languages", Skills: []string{"COBOL", "FLOW-MATIC"}},
		},
		Achievements: []types.Achievement{
			{Title: "Admiral", Description: "rear admiral"},
		},
	}
}

func TestOptimizeMergesSections(t *testing.T) {
	model := &fakeModel{rewrite: map[string]string{
		SectionExperiences: `[{"company":"Navy","position":"Programmer","description":["Built the first compiler, cutting coding time by 50%"]}]`,
		SectionSkills:      `[{"category":"Languages","skills":["COBOL","FLOW-MATIC","A-0"]}]`,
	}}
	opt := New(model, nil, 0, testLogger())

	input := sampleResume()
	result, err := opt.Optimize(context.Background(), input, Options{SkipRender: true})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if got := result.OptimizedData.Experiences[0].Description[0]; !strings.HasPrefix(got, "Built the first compiler") {
		t.Errorf("experiences not merged: %q", got)
	}
	if got := result.OptimizedData.Skills[0].Skills; len(got) != 3 {
		t.Errorf("skills not merged: %v", got)
	}
	if result.OptimizedData.Projects[0].Name != "COBOL" {
		t.Error("unchanged section lost")
	}
	if len(result.FailedSections) != 0 {
		t.Errorf("FailedSections = %v", result.FailedSections)
	}
	if result.ATSScore != 82 || len(result.ImprovementNotes) != 1 {
		t.Errorf("score/notes = %v %v", result.ATSScore, result.ImprovementNotes)
	}
	if result.Document != "" {
		t.Error("SkipRender should leave Document empty")
	}

	if !reflect.DeepEqual(input, sampleResume()) {
		t.Error("Optimize modified its input")
	}
}

func TestOptimizeKeepsOriginalOnFailure(t *testing.T) {
	model := &fakeModel{
		fail: map[string]bool{SectionProjects: true},
		rewrite: map[string]string{
			// Decodes as JSON but not as achievements
			SectionAchievements: `[{"title": 42}]`,
		},
	}
	opt := New(model, nil, 2, testLogger())

	result, err := opt.Optimize(context.Background(), sampleResume(), Options{SkipRender: true})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	want := []string{SectionProjects, SectionAchievements}
	if !reflect.DeepEqual(result.FailedSections, want) {
		t.Errorf("FailedSections = %v, want %v", result.FailedSections, want)
	}
	if !reflect.DeepEqual(result.OptimizedData.Projects, sampleResume().Projects) {
		t.Errorf("projects should keep original, got %+v", result.OptimizedData.Projects)
	}
	if !reflect.DeepEqual(result.OptimizedData.Achievements, sampleResume().Achievements) {
		t.Errorf("achievements should keep original, got %+v", result.OptimizedData.Achievements)
	}
	if len(model.sections) != 4 {
		t.Errorf("a failure must not cancel siblings, ran %v", model.sections)
	}
}

func TestOptimizeSkipsEmptySections(t *testing.T) {
	model := &fakeModel{}
	opt := New(model, nil, 0, testLogger())

	resume := types.Resume{Name: "Solo", Skills: []types.SkillGroup{{Category: "Tools", Skills: []string{"git"}}}}
	if _, err := opt.Optimize(context.Background(), resume, Options{SkipRender: true}); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !reflect.DeepEqual(model.sections, []string{SectionSkills}) {
		t.Errorf("sections optimized = %v", model.sections)
	}
}

func TestOptimizeWorkerBound(t *testing.T) {
	model := &fakeModel{delay: 30 * time.Millisecond}
	opt := New(model, nil, 2, testLogger())

	if _, err := opt.Optimize(context.Background(), sampleResume(), Options{SkipRender: true}); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if got := model.maxActive.Load(); got > 2 {
		t.Errorf("at most 2 workers should run at once, saw %d", got)
	}
}

func TestOptimizeRejectsUnknownFormatBeforeRewriting(t *testing.T) {
	model := &fakeModel{}
	opt := New(model, render.NewRegistry(), 0, testLogger())

	_, err := opt.Optimize(context.Background(), sampleResume(), Options{Format: "rtf"})
	if !appErrors.IsValidation(err) {
		t.Fatalf("unknown format should be a validation error, got %v", err)
	}
	if len(model.sections) != 0 {
		t.Errorf("sections rewritten before format check: %v", model.sections)
	}

	// SkipRender ignores the format entirely
	if _, err := opt.Optimize(context.Background(), sampleResume(), Options{Format: "rtf", SkipRender: true}); err != nil {
		t.Errorf("SkipRender with unknown format: %v", err)
	}
}

func TestOptimizeRendersDocument(t *testing.T) {
	opt := New(&fakeModel{}, render.NewRegistry(), 0, testLogger())

	result, err := opt.Optimize(context.Background(), sampleResume(), Options{Format: "HTML"})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.DocumentFormat != render.FormatHTML {
		t.Errorf("DocumentFormat = %s", result.DocumentFormat)
	}
	if !strings.HasPrefix(result.Document, "data:text/html; charset=utf-8;base64,") {
		t.Errorf("Document = %.60s", result.Document)
	}

	result, err = opt.Optimize(context.Background(), sampleResume(), Options{})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if result.DocumentFormat != render.FormatPDF || !strings.HasPrefix(result.Document, "data:application/pdf;base64,") {
		t.Errorf("default render = %s %.40s", result.DocumentFormat, result.Document)
	}

	_, err = opt.Optimize(context.Background(), sampleResume(), Options{Format: "rtf"})
	if !appErrors.IsValidation(err) {
		t.Errorf("unknown format should be a validation error, got %v", err)
	}
}
