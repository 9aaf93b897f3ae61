package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/perceptlab/percept/internal/domain"
	"github.com/perceptlab/percept/internal/store"
	"go.uber.org/zap"
)

var (
	ErrImageNotFound    = errors.New("image not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrStoreUnavailable = errors.New("no store configured")
)

// AnalyzeOptions selects which waves run and what happens with the result.
// Targets narrows the wave set to whatever the registry says is needed for
// those signal patterns; WaveNames and Tag filter further. Empty options
// run everything.
type AnalyzeOptions struct {
	WaveNames []string `json:"wave_names,omitempty"`
	Tag       string   `json:"tag,omitempty"`
	Targets   []string `json:"targets,omitempty"`
	Detect    bool     `json:"detect"`
	Persist   bool     `json:"persist"`
}

// AnalysisReport bundles a completed profile with its contradiction
// findings.
type AnalysisReport struct {
	Profile        *domain.Profile              `json:"profile"`
	Contradictions []domain.ContradictionResult `json:"contradictions,omitempty"`
}

// AnalysisService runs image analyses end to end: wave selection,
// orchestration, contradiction detection and optional persistence. The
// stores and the embedding client may be nil, in which case persistence is
// skipped; everything else still works.
type AnalysisService struct {
	registry     *Registry
	orchestrator *Orchestrator
	detector     *Detector
	profileStore domain.ProfileStore
	findingStore domain.FindingStore
	embedder     domain.EmbeddingClient
	logger       *zap.Logger
}

func NewAnalysisService(
	waves []domain.Wave,
	registry *Registry,
	detector *Detector,
	profileStore domain.ProfileStore,
	findingStore domain.FindingStore,
	embedder domain.EmbeddingClient,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		registry:     registry,
		orchestrator: NewOrchestrator(waves, logger),
		detector:     detector,
		profileStore: profileStore,
		findingStore: findingStore,
		embedder:     embedder,
		logger:       logger,
	}
}

// Analyze runs the selected waves against one image and returns the
// completed profile plus any contradictions. Wave failures surface as
// error signals inside the profile, never as a returned error; only a
// missing image file fails the call.
func (s *AnalysisService) Analyze(ctx context.Context, imagePath string, opts AnalyzeOptions) (*AnalysisReport, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, imagePath)
	}

	waves := s.selectWaves(opts)
	if len(waves) == 0 {
		s.logger.Warn("no waves selected", zap.String("image", imagePath))
	}

	profile := s.orchestrator.RunWaves(ctx, imagePath, waves)
	s.setCaption(profile)

	report := &AnalysisReport{Profile: profile}
	if opts.Detect {
		report.Contradictions = s.detector.DetectInProfile(profile)
	}

	if opts.Persist {
		s.persist(ctx, profile, report.Contradictions)
	}

	return report, nil
}

// Waves returns the full wave set in execution order.
func (s *AnalysisService) Waves() []domain.Wave {
	return s.orchestrator.Waves()
}

func (s *AnalysisService) selectWaves(opts AnalyzeOptions) []domain.Wave {
	waves := s.orchestrator.Waves()

	if len(opts.Targets) > 0 && s.registry != nil {
		required := s.registry.GetRequiredWaves(opts.Targets)
		names := make([]string, len(required))
		for i, m := range required {
			names[i] = m.Name
		}
		waves = WavesNamed(waves, names)
	}
	if len(opts.WaveNames) > 0 {
		waves = WavesNamed(waves, opts.WaveNames)
	}
	if opts.Tag != "" {
		waves = WavesTagged(waves, opts.Tag)
	}
	return waves
}

// setCaption promotes the best summary or caption signal onto the profile
// so persistence and search have a text handle for the image.
func (s *AnalysisService) setCaption(profile *domain.Profile) {
	ac := profile.NewContext()
	profile.Caption = domain.Value(ac, "synthesis.summary", domain.Value(ac, "vision.caption", ""))
}

// persist writes the profile and its findings. Failures degrade to log
// warnings; the caller still gets the in-memory report.
func (s *AnalysisService) persist(ctx context.Context, profile *domain.Profile, contradictions []domain.ContradictionResult) {
	if s.profileStore == nil {
		s.logger.Debug("no profile store configured, skipping persistence")
		return
	}

	if s.embedder != nil && profile.Caption != "" {
		embedding, err := s.embedder.Embed(ctx, profile.Caption)
		if err != nil {
			s.logger.Warn("failed to embed caption", zap.Error(err))
		} else {
			profile.Embedding = embedding
		}
	}

	if err := s.profileStore.Create(ctx, profile); err != nil {
		s.logger.Warn("failed to persist profile",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err))
		return
	}

	if s.findingStore == nil || len(contradictions) == 0 {
		return
	}
	findings := make([]domain.Finding, len(contradictions))
	for i, c := range contradictions {
		findings[i] = domain.NewFinding(profile.ID, c)
	}
	if err := s.findingStore.CreateBatch(ctx, findings); err != nil {
		s.logger.Warn("failed to persist findings",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err))
	}
}

func (s *AnalysisService) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	if s.profileStore == nil {
		return nil, ErrStoreUnavailable
	}
	profile, err := s.profileStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *AnalysisService) ListProfiles(ctx context.Context, limit int) ([]domain.Profile, error) {
	if s.profileStore == nil {
		return nil, ErrStoreUnavailable
	}
	return s.profileStore.List(ctx, limit)
}

func (s *AnalysisService) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	if s.profileStore == nil {
		return ErrStoreUnavailable
	}
	if err := s.profileStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}

// SearchProfiles finds stored profiles whose captions are semantically
// close to the query.
func (s *AnalysisService) SearchProfiles(ctx context.Context, query string, limit int) ([]domain.ProfileWithScore, error) {
	if s.profileStore == nil {
		return nil, ErrStoreUnavailable
	}
	if s.embedder == nil {
		return nil, errors.New("no embedding client configured")
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.profileStore.SearchSimilar(ctx, embedding, limit)
}

func (s *AnalysisService) GetFindings(ctx context.Context, profileID uuid.UUID) ([]domain.Finding, error) {
	if s.findingStore == nil {
		return nil, ErrStoreUnavailable
	}
	return s.findingStore.GetByProfileID(ctx, profileID)
}

func (s *AnalysisService) ListFindingsBySeverity(ctx context.Context, severity domain.Severity, limit int) ([]domain.Finding, error) {
	if s.findingStore == nil {
		return nil, ErrStoreUnavailable
	}
	return s.findingStore.ListBySeverity(ctx, severity, limit)
}

// DetectStored reruns contradiction detection over an already persisted
// profile, useful after the rule set changed.
func (s *AnalysisService) DetectStored(ctx context.Context, profileID uuid.UUID) ([]domain.ContradictionResult, error) {
	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.detector.DetectInProfile(profile), nil
}
