package common

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumescore/internal/config"
	appErrors "resumescore/internal/errors"
	"resumescore/internal/formatters"
	"resumescore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeText = `Jane Doe
jane@example.com | 555-0100

EXPERIENCE
Senior Engineer, Acme Corp 2019-2024
- Led migration of 40 services to Kubernetes, cutting costs by 30%
- Built Go APIs serving 2 million requests per day

EDUCATION
B.S. Computer Science, State University

SKILLS
Go, Python, Kubernetes, PostgreSQL, leadership, communication
`

func testLogger() *appErrors.Logger {
	return appErrors.NewLoggerTo(io.Discard, slog.LevelDebug)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewServicesWithoutLLM(t *testing.T) {
	dir := t.TempDir()
	taxonomy := writeFile(t, dir, "keywords.yaml", `
professions:
  nurse:
    technical_skills: [triage, phlebotomy]
    soft_skills: [empathy]
`)

	cfg := &config.Config{}
	cfg.AI.Provider = config.ProviderNone
	cfg.Keywords.TaxonomyFile = taxonomy

	services, err := NewServices(context.Background(), cfg, testLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(services.Close)

	assert.False(t, services.Bridge.Available())
	assert.Nil(t, services.Watcher)
	assert.Equal(t, "balanced", services.Analyzer.Scheme().Name)
	assert.Equal(t, []string{"nurse"}, services.Keywords.CustomProfessions())

	report, err := services.Analyzer.Analyze(context.Background(), types.AnalyzeTextInput{Text: resumeText})
	require.NoError(t, err)
	assert.Equal(t, "heuristic", report.AnalysisMethod)
}

func TestNewServicesRejectsBadWeights(t *testing.T) {
	cfg := &config.Config{}
	cfg.AI.Provider = config.ProviderNone
	cfg.Scoring.Weights = map[string]float64{types.CategoryFormat: 0.5}

	_, err := NewServices(context.Background(), cfg, testLogger(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrorTypeConfig, appErrors.TypeOf(err))
}

func TestFileProcessor(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(testLogger(), 64)

	jd, err := fp.ReadOptionalText(writeFile(t, dir, "jd.txt", "  Go engineer wanted  \n"))
	require.NoError(t, err)
	assert.Equal(t, "Go engineer wanted", jd)

	empty, err := fp.ReadOptionalText("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = fp.ReadOptionalText(filepath.Join(dir, "missing.txt"))
	assert.True(t, appErrors.IsValidation(err))

	docs, err := fp.ReadDocuments(writeFile(t, dir, "small.txt", "short"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "small.txt", docs[0].Filename)

	_, err = fp.ReadDocuments(writeFile(t, dir, "big.txt", strings.Repeat("x", 65)))
	assert.True(t, appErrors.IsValidation(err))

	resume, err := fp.ReadResume(writeFile(t, dir, "resume.json", `{"name":"Jane Doe","skills":[{"category":"Languages","skills":["Go"]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", resume.Name)
	assert.Equal(t, []string{"Go"}, resume.Skills[0].Skills)

	_, err = fp.ReadResume(writeFile(t, dir, "broken.json", `{"name":`))
	assert.True(t, appErrors.IsValidation(err))
}

func TestOutputHandler(t *testing.T) {
	dir := t.TempDir()
	oh := NewOutputHandler(testLogger())
	var stdout bytes.Buffer
	oh.SetOutput(&stdout)

	job := types.JobMatchAnalysis{MatchScore: 64, Source: "heuristic", KeyMissingSkills: []string{"terraform"}}
	require.NoError(t, oh.HandleOutput(job, CommandConfig{OutputFormat: formatters.FormatText}))
	assert.Contains(t, stdout.String(), "Match Score: 64.0/100")

	out := filepath.Join(dir, "nested", "match.json")
	require.NoError(t, oh.HandleOutput(&job, CommandConfig{OutputFile: out, OutputFormat: formatters.FormatJSON}))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"match_score": 64`)

	err = oh.HandleOutput(job, CommandConfig{OutputFormat: "xml"})
	assert.True(t, appErrors.IsValidation(err))

	assert.True(t, appErrors.IsValidation(oh.HandleBinary([]byte("%PDF"), "")))
	pdf := filepath.Join(dir, "resume.pdf")
	require.NoError(t, oh.HandleBinary([]byte("%PDF"), pdf))
	written, err = os.ReadFile(pdf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(written))
}
