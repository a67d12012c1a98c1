package common

import (
	"context"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/keywords"
	"resumescore/internal/llm"
	"resumescore/internal/optimize"
	"resumescore/internal/render"
	"resumescore/internal/scoring"
)

// Services is the wired set of components shared by the CLI commands and
// the HTTP server
type Services struct {
	Config    *config.Config
	Extractor *extract.Extractor
	Bridge    *llm.Bridge
	Keywords  *keywords.Service
	Watcher   *keywords.Watcher
	Analyzer  *scoring.Analyzer
	Optimizer *optimize.Optimizer
	Renderers *render.Registry
	logger    *errors.Logger
}

// NewServices builds every component from cfg. recorder may be nil.
func NewServices(ctx context.Context, cfg *config.Config, logger *errors.Logger, recorder llm.Recorder) (*Services, error) {
	extractor, err := extract.New(extract.Config{
		MinTextLength:    cfg.Scoring.MinTextLength,
		UnidocLicenseKey: cfg.Extract.UnidocLicenseKey,
	}, logger)
	if err != nil {
		return nil, err
	}

	bridge, err := llm.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if recorder != nil {
		bridge.WithRecorder(recorder)
	}

	var generator keywords.Generator
	if bridge.Available() {
		generator = bridge
	}
	kw := keywords.NewService(generator, logger)

	s := &Services{
		Config:    cfg,
		Extractor: extractor,
		Bridge:    bridge,
		Keywords:  kw,
		Renderers: render.NewRegistry(),
		logger:    logger,
	}

	if file := cfg.Keywords.TaxonomyFile; file != "" {
		if err := kw.LoadFile(file); err != nil {
			return nil, err
		}
		if cfg.Keywords.Watch {
			s.Watcher = keywords.NewWatcher(file, kw, cfg.Keywords.Debounce, logger)
			if err := s.Watcher.Start(); err != nil {
				logger.Warn("Keyword taxonomy watcher not started", "file", file, "error", err)
				s.Watcher = nil
			}
		}
	}

	scheme, err := weightScheme(cfg.Scoring)
	if err != nil {
		s.Close()
		return nil, err
	}

	analyzerCfg := scoring.Config{
		Scheme:        scheme,
		MinTextLength: cfg.Scoring.MinTextLength,
		MaxBatchSize:  cfg.Scoring.MaxBatchSize,
		Extractor:     extractor,
		Keywords:      kw,
	}
	if bridge.Available() {
		analyzerCfg.Insighter = bridge
	}
	s.Analyzer = scoring.NewAnalyzer(analyzerCfg, logger)
	s.Optimizer = optimize.New(bridge, s.Renderers, cfg.Scoring.Workers, logger)

	logger.Debug("Services initialized",
		"weight_scheme", scheme.Name,
		"llm_available", bridge.Available(),
		"custom_professions", len(kw.CustomProfessions()))

	return s, nil
}

// Close stops background components
func (s *Services) Close() {
	if s == nil || s.Watcher == nil {
		return
	}
	if err := s.Watcher.Stop(); err != nil && s.logger != nil {
		s.logger.Warn("Failed to stop keyword watcher", "error", err)
	}
}

func weightScheme(cfg config.ScoringConfig) (scoring.WeightScheme, error) {
	if len(cfg.Weights) > 0 {
		return scoring.NewWeightScheme(cfg.WeightScheme, cfg.Weights)
	}
	return scoring.SchemeByName(cfg.WeightScheme)
}
