package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"resumescore/internal/config"
	appErrors "resumescore/internal/errors"
	"resumescore/internal/types"
)

// fakeProvider answers from a per-model script and records every call
type fakeProvider struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   []string
	prompts []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, model, prompt string) (string, *TokenUsage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if err := f.errs[model]; err != nil {
		return "", nil, err
	}
	return f.answers[model], &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu        sync.Mutex
	calls     int
	fallbacks []string
}

func (r *fakeRecorder) RecordLLMCall(ctx context.Context, operation, provider, model string, duration time.Duration, usage *TokenUsage, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func (r *fakeRecorder) RecordFallback(ctx context.Context, operation, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, operation+":"+reason)
}

func testLogger() *appErrors.Logger {
	return appErrors.NewLoggerTo(io.Discard, slog.LevelDebug)
}

func newTestBridge(p Provider, models ...string) *Bridge {
	cfg := &config.AIConfig{
		Provider: "fake",
		Models:   models,
		Timeout:  time.Second,
	}
	return NewBridge(p, cfg, testLogger())
}

func answering(answer string) *fakeProvider {
	return &fakeProvider{answers: map[string]string{"m1": answer}}
}

func TestRecover(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		ok    bool
		shape Shape
		want  string
	}{
		{"fenced json object", "Here you go:\n```json\n{\"a\": 1}\n```\nthanks", true, ShapeObject, `{"a": 1}`},
		{"fenced without language", "```\n[1, 2]\n```", true, ShapeArray, `[1, 2]`},
		{"bare object in prose", `The answer is {"score": 80} as requested.`, true, ShapeObject, `{"score": 80}`},
		{"bare array", `["a","b"]`, true, ShapeArray, `["a","b"]`},
		{"nested fenced object", "```json\n{\"a\":[1,{\"b\":2}]}\n```", true, ShapeObject, `{"a":[1,{"b":2}]}`},
		{"broken fence and span", "```json\n{broken\n```\n{\"ok\": true}", false, ShapeNone, ""},
		{"no json", "I cannot help with that.", false, ShapeNone, ""},
		{"empty", "", false, ShapeNone, ""},
		{"unbalanced", `{"a": [1, 2}`, false, ShapeNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recover(tt.raw)
			if got.OK != tt.ok {
				t.Fatalf("OK = %v, want %v (%+v)", got.OK, tt.ok, got)
			}
			if got.Shape != tt.shape {
				t.Errorf("Shape = %v, want %v", got.Shape, tt.shape)
			}
			if got.Raw != tt.want {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.want)
			}
		})
	}
}

func TestRecoverExpect(t *testing.T) {
	r := Recover(`["x"]`)
	if r.Expect(ShapeArray) != r {
		t.Error("matching shape should pass through")
	}
	if r.Expect(ShapeObject).OK {
		t.Error("mismatched shape should yield the sentinel")
	}
}

func TestDecodeHelpers(t *testing.T) {
	type payload struct {
		Score int `json:"score"`
	}
	p, ok := DecodeObject[payload]("result: ```json\n{\"score\": 42}\n```")
	if !ok || p.Score != 42 {
		t.Errorf("DecodeObject = %+v, %v", p, ok)
	}

	if _, ok := DecodeObject[payload](`["not", "an", "object"]`); ok {
		t.Error("DecodeObject should reject arrays")
	}

	notes, ok := DecodeArray[[]string](`Notes: ["one", "two"]`)
	if !ok || len(notes) != 2 {
		t.Errorf("DecodeArray = %v, %v", notes, ok)
	}

	if _, ok := DecodeArray[[]string](`[1, 2]`); ok {
		t.Error("DecodeArray should fail when elements do not decode")
	}
}

func TestIsModelError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&ModelError{Model: "x", Err: errors.New("boom")}, true},
		{fmt.Errorf("wrapped: %w", &ModelError{Model: "x", Err: errors.New("boom")}), true},
		{errors.New("The model `llama` has been decommissioned"), true},
		{errors.New("rate limit exceeded"), false},
		{context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := IsModelError(tt.err); got != tt.want {
			t.Errorf("IsModelError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestGenerateFallsBackOnceOnModelError(t *testing.T) {
	p := &fakeProvider{
		answers: map[string]string{"m2": "from m2"},
		errs: map[string]error{
			"m1": &ModelError{Model: "m1", Err: errors.New("not found")},
		},
	}
	rec := &fakeRecorder{}
	b := newTestBridge(p, "m1", "m2", "m3").WithRecorder(rec)

	got, err := b.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "from m2" {
		t.Errorf("Generate = %q", got)
	}
	if p.callCount() != 2 {
		t.Errorf("expected 2 calls, got %v", p.calls)
	}
	if rec.calls != 2 || len(rec.fallbacks) != 1 {
		t.Errorf("recorder saw %d calls and fallbacks %v", rec.calls, rec.fallbacks)
	}
}

func TestGenerateRetriesOnlyOnce(t *testing.T) {
	modelErr := errors.New("model not found")
	p := &fakeProvider{errs: map[string]error{"m1": modelErr, "m2": modelErr, "m3": modelErr}}
	b := newTestBridge(p, "m1", "m2", "m3")

	if _, err := b.Generate(context.Background(), "hello"); err == nil {
		t.Fatal("expected failure after fallback")
	}
	if p.callCount() != 2 {
		t.Errorf("expected exactly one fallback, calls = %v", p.calls)
	}
}

func TestGenerateDoesNotFallBackOnOtherErrors(t *testing.T) {
	p := &fakeProvider{errs: map[string]error{"m1": errors.New("rate limit exceeded")}}
	b := newTestBridge(p, "m1", "m2")

	_, err := b.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if appErrors.TypeOf(err) != appErrors.ErrorTypeAI {
		t.Errorf("expected AI error, got %v", appErrors.TypeOf(err))
	}
	if p.callCount() != 1 {
		t.Errorf("expected a single call, got %v", p.calls)
	}
}

func TestGenerateTimeout(t *testing.T) {
	b := NewBridge(blockingProvider{}, &config.AIConfig{Models: []string{"slow"}, Timeout: 20 * time.Millisecond}, testLogger())

	start := time.Now()
	_, err := b.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not applied")
	}
}

type blockingProvider struct{}

func (blockingProvider) Name() string { return "blocking" }

func (blockingProvider) Complete(ctx context.Context, model, prompt string) (string, *TokenUsage, error) {
	<-ctx.Done()
	return "", nil, ctx.Err()
}

func TestUnavailableBridgeDefaults(t *testing.T) {
	var nilBridge *Bridge
	unconfigured := NewBridge(nil, &config.AIConfig{}, testLogger())
	noModels := NewBridge(answering("x"), &config.AIConfig{}, testLogger())

	for name, b := range map[string]*Bridge{"nil": nilBridge, "no provider": unconfigured, "no models": noModels} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if b.Available() {
				t.Fatal("bridge should be unavailable")
			}
			if got := b.ATSScore(ctx, types.Resume{}); got != NoModelATSScore {
				t.Errorf("ATSScore = %v, want %v", got, NoModelATSScore)
			}
			notes := b.ImprovementNotes(ctx, types.Resume{}, types.Resume{})
			if len(notes) != 1 || notes[0] != NoModelNote {
				t.Errorf("ImprovementNotes = %v", notes)
			}
			taxonomy, ok := b.ProfessionKeywords(ctx, "nurse", "")
			if ok || taxonomy.TechnicalSkills[0] != "excel" {
				t.Errorf("ProfessionKeywords = %+v, %v", taxonomy, ok)
			}
			if _, err := b.Insights(ctx, "text"); err == nil {
				t.Error("Insights should report the missing model")
			}
			original := json.RawMessage(`[{"name":"x"}]`)
			got, err := b.OptimizeSection(ctx, "projects", original, "engineer")
			if err == nil || string(got) != string(original) {
				t.Errorf("OptimizeSection = %s, %v", got, err)
			}
			if match := b.JobMatch(ctx, "python developer", types.Resume{}); match.Source != SourceHeuristic {
				t.Errorf("JobMatch source = %s", match.Source)
			}
			if b.Status()["available"] != false {
				t.Error("Status should report unavailable")
			}
		})
	}
}

func TestProfessionKeywords(t *testing.T) {
	answer := "```json\n" + `{
		"technical_skills": ["python", "sql"],
		"soft_skills": "communication, mentoring",
		"certifications": [],
		"experience_terms": ["shipped"],
		"education_requirements": ["bachelor"]
	}` + "\n```"
	b := newTestBridge(answering(answer), "m1")

	taxonomy, ok := b.ProfessionKeywords(context.Background(), "data engineer", "senior")
	if !ok {
		t.Fatal("expected model taxonomy")
	}
	if len(taxonomy.TechnicalSkills) != 2 || taxonomy.TechnicalSkills[1] != "sql" {
		t.Errorf("TechnicalSkills = %v", taxonomy.TechnicalSkills)
	}
	if len(taxonomy.SoftSkills) != 2 || taxonomy.SoftSkills[1] != "mentoring" {
		t.Errorf("comma separated categories should split, got %v", taxonomy.SoftSkills)
	}
}

func TestProfessionKeywordsGarbageFallsBack(t *testing.T) {
	b := newTestBridge(answering("Sorry, I can't produce JSON today."), "m1")

	taxonomy, ok := b.ProfessionKeywords(context.Background(), "nurse", "")
	if ok {
		t.Fatal("expected fallback")
	}
	if got := taxonomy.EducationRequirements; len(got) != 3 || got[2] != "phd" {
		t.Errorf("fallback taxonomy = %+v", taxonomy)
	}
}

func TestATSScore(t *testing.T) {
	tests := []struct {
		answer string
		want   float64
	}{
		{"82", 82},
		{"Score: 91/100", 91},
		{"999", 100},
		{"no idea", FallbackATSScore},
	}
	for _, tt := range tests {
		b := newTestBridge(answering(tt.answer), "m1")
		if got := b.ATSScore(context.Background(), types.Resume{TargetProfession: "analyst"}); got != tt.want {
			t.Errorf("ATSScore(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}

	failing := newTestBridge(&fakeProvider{errs: map[string]error{"m1": errors.New("boom")}}, "m1")
	if got := failing.ATSScore(context.Background(), types.Resume{}); got != FallbackATSScore {
		t.Errorf("ATSScore on failure = %v", got)
	}
}

func TestImprovementNotes(t *testing.T) {
	b := newTestBridge(answering(`Notes: ["Stronger verbs.", "", "More metrics."]`), "m1")
	notes := b.ImprovementNotes(context.Background(), types.Resume{}, types.Resume{})
	if len(notes) != 2 || notes[1] != "More metrics." {
		t.Errorf("ImprovementNotes = %v", notes)
	}

	garbage := newTestBridge(answering("Looks great!"), "m1")
	notes = garbage.ImprovementNotes(context.Background(), types.Resume{}, types.Resume{})
	if len(notes) != len(DefaultImprovementNotes) || notes[0] != DefaultImprovementNotes[0] {
		t.Errorf("default notes = %v", notes)
	}
}

func TestOptimizeSection(t *testing.T) {
	original := json.RawMessage(`[{"name":"API","description":["built it"]}]`)

	b := newTestBridge(answering("```json\n[{\"name\":\"API\",\"description\":[\"Built a REST API serving 10k users\"]}]\n```"), "m1")
	got, err := b.OptimizeSection(context.Background(), "projects", original, "backend engineer")
	if err != nil {
		t.Fatalf("OptimizeSection: %v", err)
	}
	var projects []types.Project
	if err := json.Unmarshal(got, &projects); err != nil || len(projects) != 1 {
		t.Fatalf("unexpected result %s: %v", got, err)
	}
	if projects[0].Description[0] != "Built a REST API serving 10k users" {
		t.Errorf("description = %v", projects[0].Description)
	}

	mismatch := newTestBridge(answering(`{"name":"API"}`), "m1")
	got, err = mismatch.OptimizeSection(context.Background(), "projects", original, "backend engineer")
	if err == nil {
		t.Error("expected shape mismatch error")
	}
	if string(got) != string(original) {
		t.Errorf("mismatch should keep original, got %s", got)
	}
}

func TestInsightsLimit(t *testing.T) {
	b := newTestBridge(answering(`["a", "b", "c", "d"]`), "m1")
	insights, err := b.Insights(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if len(insights) != 3 {
		t.Errorf("expected 3 insights, got %v", insights)
	}
}

func TestInsightsTruncatesOnRuneBoundary(t *testing.T) {
	p := answering(`["a"]`)
	b := newTestBridge(p, "m1")

	// Two-byte runes put the byte limit in the middle of a rune
	text := "x" + strings.Repeat("é", insightTextSize)
	if _, err := b.Insights(context.Background(), text); err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if len(p.prompts) != 1 || !utf8.ValidString(p.prompts[0]) {
		t.Fatal("prompt sent to the model is not valid UTF-8")
	}
}

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"aé", 2, "a"},
		{"日本語", 4, "日"},
		{"é", 1, ""},
	}
	for _, tt := range tests {
		if got := truncateUTF8(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateUTF8(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestJobMatch(t *testing.T) {
	answer := `{"match_score": 68, "key_missing_skills": ["kubernetes"], "tailoring_suggestions": ["Lead with Go"], "keyword_emphasis": ["go", "grpc"]}`
	b := newTestBridge(answering(answer), "m1")

	match := b.JobMatch(context.Background(), "Go engineer with kubernetes", types.Resume{Name: "A"})
	if match.Source != SourceLLM || match.MatchScore != 68 {
		t.Errorf("JobMatch = %+v", match)
	}
	if len(match.KeywordEmphasis) != 2 {
		t.Errorf("KeywordEmphasis = %v", match.KeywordEmphasis)
	}

	incomplete := newTestBridge(answering(`{"match_score": 90}`), "m1")
	match = incomplete.JobMatch(context.Background(), "anything", types.Resume{})
	if match.Source != SourceDefault || match.MatchScore != DefaultMatchScore {
		t.Errorf("incomplete answer should yield default, got %+v", match)
	}
}

func TestHeuristicJobMatch(t *testing.T) {
	jd := "Python developer. Python, Django and PostgreSQL required. Django experience preferred. PostgreSQL tuning."
	resume := types.Resume{
		Name: "Sam",
		Skills: []types.SkillGroup{
			{Category: "Languages", Skills: []string{"Python", "Go"}},
		},
		Experiences: []types.Experience{
			{Company: "Acme", Position: "Engineer", Description: []string{"Built Django services"}},
		},
	}

	match := HeuristicJobMatch(jd, resume)
	if match.Source != SourceHeuristic {
		t.Errorf("Source = %s", match.Source)
	}
	if match.MatchScore <= 0 || match.MatchScore >= 100 {
		t.Errorf("MatchScore = %v, want partial match", match.MatchScore)
	}
	found := false
	for _, s := range match.KeyMissingSkills {
		if s == "postgresql" {
			found = true
		}
	}
	if !found {
		t.Errorf("postgresql should be missing, got %v", match.KeyMissingSkills)
	}
}

func TestCircuitBreakerStats(t *testing.T) {
	cb := NewCircuitBreaker("fake", config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}, nil)

	stats := cb.GetStats()
	if stats["name"] != "LLM-fake" || stats["state"] != "closed" || stats["enabled"] != true {
		t.Errorf("unexpected stats %v", stats)
	}

	fail := func() (completion, error) { return completion{}, errors.New("boom") }
	for range 2 {
		_, _ = cb.Execute(fail)
	}
	if cb.IsHealthy() {
		t.Error("breaker should be open after repeated failures")
	}

	var disabled *CircuitBreaker
	if !disabled.IsHealthy() || disabled.GetStats()["enabled"] != false {
		t.Error("nil breaker should be healthy and disabled")
	}
}

func TestCircuitBreakerIgnoresModelErrors(t *testing.T) {
	cb := NewCircuitBreaker("fake", config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      1,
		FailureThreshold: 0.1,
	}, nil)

	for range 3 {
		_, _ = cb.Execute(func() (completion, error) {
			return completion{}, &ModelError{Model: "gone", Err: errors.New("404")}
		})
	}
	if !cb.IsHealthy() {
		t.Error("model errors should not trip the breaker")
	}
}
