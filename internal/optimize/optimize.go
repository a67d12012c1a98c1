// Package optimize rewrites the sections of a structured resume with a
// language model, scores the result and renders it.
package optimize

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"resumescore/internal/errors"
	"resumescore/internal/render"
	"resumescore/internal/types"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent section rewrites
const DefaultWorkers = 4

// Optimizable sections in merge order
const (
	SectionExperiences  = "experiences"
	SectionProjects     = "projects"
	SectionSkills       = "skills"
	SectionAchievements = "achievements"
)

// Sections lists the optimizable sections
var Sections = []string{SectionExperiences, SectionProjects, SectionSkills, SectionAchievements}

// Model is what the optimizer needs from the language model bridge
type Model interface {
	OptimizeSection(ctx context.Context, section string, content json.RawMessage, profession string) (json.RawMessage, error)
	ATSScore(ctx context.Context, resume types.Resume) float64
	ImprovementNotes(ctx context.Context, original, optimized types.Resume) []string
}

// Options controls one optimization run
type Options struct {
	// Format selects the rendered document; empty means pdf
	Format string
	// SkipRender leaves Document empty
	SkipRender bool
}

// Optimizer runs section rewrites in a bounded worker pool
type Optimizer struct {
	model     Model
	renderers *render.Registry
	workers   int
	logger    *errors.Logger
}

// New creates an Optimizer. workers <= 0 selects DefaultWorkers.
func New(model Model, renderers *render.Registry, workers int, logger *errors.Logger) *Optimizer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if renderers == nil {
		renderers = render.NewRegistry()
	}
	return &Optimizer{
		model:     model,
		renderers: renderers,
		workers:   workers,
		logger:    logger,
	}
}

// sectionResult is what one worker hands back
type sectionResult struct {
	section string
	content json.RawMessage
	err     error
}

// Optimize rewrites every non-empty section concurrently. A failing section
// keeps its original content and is listed in FailedSections; it never
// cancels the others. Only rendering errors fail the call.
func (o *Optimizer) Optimize(ctx context.Context, resume types.Resume, opts Options) (*types.OptimizeResult, error) {
	start := time.Now()

	jobs, err := sectionJobs(resume)
	if err != nil {
		return nil, err
	}

	var renderer render.Renderer
	if !opts.SkipRender {
		if renderer, err = o.renderers.Get(opts.Format); err != nil {
			return nil, err
		}
	}

	results := make([]sectionResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, job := range jobs {
		g.Go(func() error {
			content, err := o.model.OptimizeSection(ctx, job.section, job.content, resume.TargetProfession)
			results[i] = sectionResult{section: job.section, content: content, err: err}
			return nil
		})
	}
	_ = g.Wait()

	optimized, failed := merge(resume, jobs, results, o.logger)

	result := &types.OptimizeResult{
		OptimizedData:    optimized,
		ATSScore:         o.model.ATSScore(ctx, optimized),
		ImprovementNotes: o.model.ImprovementNotes(ctx, resume, optimized),
		FailedSections:   failed,
	}

	if !opts.SkipRender {
		data, err := renderer.Render(optimized)
		if err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeRenderFailed,
				fmt.Sprintf("Failed to render %s document", formatName(opts.Format)), err)
		}
		result.Document = render.DataURL(renderer.ContentType(), data)
		result.DocumentFormat = formatName(opts.Format)
	}

	if o.logger != nil {
		o.logger.Info("Resume optimized",
			"sections", len(jobs),
			"failed_sections", failed,
			"ats_score", result.ATSScore,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return result, nil
}

type sectionJob struct {
	section string
	content json.RawMessage
}

// sectionJobs serializes each non-empty section. Workers get their own
// copy of the data and never touch the input resume.
func sectionJobs(r types.Resume) ([]sectionJob, error) {
	var jobs []sectionJob
	add := func(section string, n int, v any) error {
		if n == 0 {
			return nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return errors.NewInternalError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Failed to encode section %s", section), err)
		}
		jobs = append(jobs, sectionJob{section: section, content: data})
		return nil
	}

	if err := add(SectionExperiences, len(r.Experiences), r.Experiences); err != nil {
		return nil, err
	}
	if err := add(SectionProjects, len(r.Projects), r.Projects); err != nil {
		return nil, err
	}
	if err := add(SectionSkills, len(r.Skills), r.Skills); err != nil {
		return nil, err
	}
	if err := add(SectionAchievements, len(r.Achievements), r.Achievements); err != nil {
		return nil, err
	}
	return jobs, nil
}

// merge builds a fresh resume from the worker results. A section whose
// rewrite failed or does not decode keeps the original.
func merge(original types.Resume, jobs []sectionJob, results []sectionResult, logger *errors.Logger) (types.Resume, []string) {
	merged := original
	merged.Education = slices.Clone(original.Education)
	merged.Certifications = slices.Clone(original.Certifications)
	merged.CodingProfiles = slices.Clone(original.CodingProfiles)
	var failed []string

	for i, res := range results {
		section := jobs[i].section
		if res.err == nil {
			res.err = decodeSection(&merged, section, res.content)
		}
		if res.err != nil {
			failed = append(failed, section)
			if logger != nil {
				logger.Warn("Section optimization failed, keeping original",
					"section", section,
					"error", res.err.Error())
			}
			// Fresh copy of the original section
			_ = decodeSection(&merged, section, jobs[i].content)
		}
	}
	return merged, failed
}

func decodeSection(r *types.Resume, section string, content json.RawMessage) error {
	switch section {
	case SectionExperiences:
		var v []types.Experience
		if err := json.Unmarshal(content, &v); err != nil {
			return err
		}
		r.Experiences = v
	case SectionProjects:
		var v []types.Project
		if err := json.Unmarshal(content, &v); err != nil {
			return err
		}
		r.Projects = v
	case SectionSkills:
		var v []types.SkillGroup
		if err := json.Unmarshal(content, &v); err != nil {
			return err
		}
		r.Skills = v
	case SectionAchievements:
		var v []types.Achievement
		if err := json.Unmarshal(content, &v); err != nil {
			return err
		}
		r.Achievements = v
	default:
		return fmt.Errorf("unknown section %s", section)
	}
	return nil
}

func formatName(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return render.DefaultFormat
	}
	return format
}
