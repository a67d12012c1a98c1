package keywords

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	appErrors "resumescore/internal/errors"
	"resumescore/internal/types"
)

type stubGenerator struct {
	taxonomy types.KeywordTaxonomy
	ok       bool
	calls    int
}

func (g *stubGenerator) ProfessionKeywords(ctx context.Context, profession, level string) (types.KeywordTaxonomy, bool) {
	g.calls++
	return g.taxonomy, g.ok
}

func testLogger() *appErrors.Logger {
	return appErrors.NewLoggerTo(io.Discard, slog.LevelDebug)
}

const taxonomyYAML = `
professions:
  Data Scientist:
    technical_skills: [python, sql, pandas]
    soft_skills: [storytelling]
  node.js developer:
    technical_skills: [node.js, express]
`

func writeTaxonomy(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write taxonomy: %v", err)
	}
	return path
}

func TestLookupSources(t *testing.T) {
	gen := &stubGenerator{
		taxonomy: types.KeywordTaxonomy{TechnicalSkills: []string{"triage"}},
		ok:       true,
	}
	svc := NewService(gen, testLogger())
	svc.SetCustom(map[string]types.KeywordTaxonomy{
		"Data Scientist": {TechnicalSkills: []string{"python"}},
	})
	ctx := context.Background()

	res, err := svc.Lookup(ctx, "data scientist", "Senior")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Source != SourceCustom || res.ExperienceLevel != "senior" {
		t.Errorf("expected custom source, got %+v", res)
	}
	if gen.calls != 0 {
		t.Error("custom taxonomy should win before the model is asked")
	}

	res, err = svc.Lookup(ctx, "nurse", "")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Source != SourceLLM || res.Keywords.TechnicalSkills[0] != "triage" {
		t.Errorf("expected llm source, got %+v", res)
	}

	gen.ok = false
	res, err = svc.Lookup(ctx, "nurse", "entry")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Source != SourceDefault || res.Keywords.TechnicalSkills[0] != "excel" {
		t.Errorf("expected default source, got %+v", res)
	}
}

func TestLookupWithoutGenerator(t *testing.T) {
	svc := NewService(nil, nil)
	res, err := svc.Lookup(context.Background(), "welder", "mid")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Source != SourceDefault {
		t.Errorf("Source = %s", res.Source)
	}
}

func TestLookupValidation(t *testing.T) {
	svc := NewService(nil, nil)
	tests := []struct {
		name       string
		profession string
		level      string
	}{
		{"missing profession", "  ", ""},
		{"unknown level", "engineer", "principal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Lookup(context.Background(), tt.profession, tt.level)
			if !appErrors.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := writeTaxonomy(t, t.TempDir(), taxonomyYAML)
	svc := NewService(nil, testLogger())

	if err := svc.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	got := svc.CustomProfessions()
	want := []string{"data scientist", "node.js developer"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("CustomProfessions = %v, want %v", got, want)
	}

	res, err := svc.Lookup(context.Background(), "Node.js Developer", "")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Source != SourceCustom || len(res.Keywords.TechnicalSkills) != 2 {
		t.Errorf("unexpected lookup %+v", res)
	}
}

func TestLoadFileErrors(t *testing.T) {
	svc := NewService(nil, nil)
	if err := svc.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if appErrors.TypeOf(svc.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))) != appErrors.ErrorTypeConfig {
		t.Error("expected config error type")
	}
}

func TestIndustry(t *testing.T) {
	ind, err := Industry("Technology")
	if err != nil {
		t.Fatalf("Industry: %v", err)
	}
	if ind.Industry != "technology" || len(ind.Keywords) == 0 {
		t.Errorf("unexpected industry %+v", ind)
	}
	if len(ind.ActionVerbs["leadership"]) == 0 {
		t.Error("expected action verb categories")
	}

	// Returned slices are copies
	ind.Keywords[0] = "changed"
	again, _ := Industry("technology")
	if again.Keywords[0] == "changed" {
		t.Error("Industry leaked the shared keyword table")
	}

	_, err = Industry("astrology")
	if appErrors.TypeOf(err) != appErrors.ErrorTypeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	var appErr *appErrors.AppError
	if !stderrors.As(err, &appErr) || len(appErr.Context["available_industries"].([]string)) != len(Industries()) {
		t.Errorf("not found error should list available industries: %v", err)
	}
}

func TestWatcherReloadsTaxonomy(t *testing.T) {
	dir := t.TempDir()
	path := writeTaxonomy(t, dir, taxonomyYAML)

	svc := NewService(nil, testLogger())
	if err := svc.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	w := NewWatcher(path, svc, 20*time.Millisecond, testLogger())
	reloaded := make(chan error, 4)
	w.onReload = func(err error) { reloaded <- err }
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = w.Stop() }()

	if !w.IsRunning() {
		t.Fatal("watcher should be running")
	}
	if err := w.Start(); err == nil {
		t.Error("second Start should fail")
	}

	updated := "professions:\n  chef:\n    technical_skills: [knife skills]\n"
	if err := os.WriteFile(path, []byte(updated), 0600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("taxonomy was not reloaded")
	}

	got := svc.CustomProfessions()
	if len(got) != 1 || got[0] != "chef" {
		t.Errorf("CustomProfessions after reload = %v", got)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Error("watcher should be stopped")
	}
}
