// Package pipeline composes acquisition, normalization, scoring and
// persistence into a single run. Per-record problems are counted and skipped;
// only a total acquisition failure or a dead repository handle fails a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paul-scout/micro-acquisition-scout/config"
	"github.com/paul-scout/micro-acquisition-scout/models"
	"github.com/paul-scout/micro-acquisition-scout/scraper"
	"github.com/paul-scout/micro-acquisition-scout/services"
	"github.com/paul-scout/micro-acquisition-scout/storage"
	"github.com/paul-scout/micro-acquisition-scout/utils"
)

// ErrRateLimited rejects a trigger arriving before the minimum inter-run
// interval has elapsed.
var ErrRateLimited = errors.New("pipeline: run rejected, rate limit interval not elapsed")

// State is the phase a run is in. It ends in StateDone or StateFailed.
type State string

const (
	StateIdle        State = "idle"
	StateAcquiring   State = "acquiring"
	StateNormalizing State = "normalizing"
	StateScoring     State = "scoring"
	StatePersisting  State = "persisting"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Trigger is one pipeline run request. Zero fields take configured defaults.
type Trigger struct {
	Limit    int
	PriceMin int
	PriceMax int
}

// Summary reports what one run did. No error is swallowed without a counter
// here.
type Summary struct {
	State         State
	Synthetic     bool
	Acquired      int
	Normalized    int
	Dropped       int
	Persisted     int
	PersistErrors int
	TopScore      int
	Reason        string
	StartedAt     time.Time
	Duration      time.Duration
}

// Pipeline drives acquire → normalize → score → persist.
type Pipeline struct {
	cfg        *config.Config
	source     scraper.Source
	fallback   scraper.Source
	normalizer *services.Normalizer
	scorer     *services.Scorer
	repo       storage.Repository
	rawWriter  storage.RawListingWriter
	logger     *utils.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// New creates a Pipeline. fallback may equal source (synthetic mode) or be
// nil to disable fallback; rawWriter may be nil to skip the raw CSV dump.
func New(cfg *config.Config, source, fallback scraper.Source, normalizer *services.Normalizer,
	scorer *services.Scorer, repo storage.Repository, rawWriter storage.RawListingWriter,
	logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		source:     source,
		fallback:   fallback,
		normalizer: normalizer,
		scorer:     scorer,
		repo:       repo,
		rawWriter:  rawWriter,
		logger:     logger,
	}
}

// Run executes one pipeline run. It returns the summary in every outcome,
// alongside the error that failed the run, if any.
func (p *Pipeline) Run(ctx context.Context, trigger Trigger) (*Summary, error) {
	if err := p.checkRateLimit(); err != nil {
		return nil, err
	}

	filters := scraper.Filters{
		PriceMin: trigger.PriceMin,
		PriceMax: trigger.PriceMax,
		Limit:    trigger.Limit,
	}.Normalize(p.cfg.PriceMin, p.cfg.PriceMax, p.cfg.DefaultLimit, p.cfg.MaxLimit)
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: bad trigger: %w", err)
	}

	summary := &Summary{State: StateAcquiring, StartedAt: time.Now()}
	defer func() { summary.Duration = time.Since(summary.StartedAt) }()

	raw, err := p.acquire(ctx, filters, summary)
	if err != nil {
		return p.fail(summary, "acquisition failed", err)
	}
	summary.Acquired = len(raw)

	if p.rawWriter != nil {
		if err := p.rawWriter.WriteRaw(raw); err != nil {
			// Raw dump is diagnostics, never worth failing a run over.
			p.logger.Warn("[pipeline] Raw CSV dump failed: %v", err)
		}
	}

	summary.State = StateNormalizing
	listings, dropped := p.normalizer.NormalizeAll(raw)
	summary.Normalized = len(listings)
	summary.Dropped = dropped

	summary.State = StateScoring
	scored := p.scorer.ScoreAll(listings)
	if len(scored) > 0 {
		summary.TopScore = scored[0].Score.Total
	}

	summary.State = StatePersisting
	if err := p.persist(scored, summary); err != nil {
		return p.fail(summary, "repository unavailable", err)
	}

	summary.State = StateDone
	p.logger.Info("[pipeline] Run done — acquired %d, normalized %d, persisted %d (dropped %d, persist errors %d, synthetic %t)",
		summary.Acquired, summary.Normalized, summary.Persisted,
		summary.Dropped, summary.PersistErrors, summary.Synthetic)
	return summary, nil
}

// acquire runs the primary source and falls back to the synthetic strategy on
// a classified acquisition failure. The summary records when fallback data is
// served.
func (p *Pipeline) acquire(ctx context.Context, filters scraper.Filters, summary *Summary) ([]*models.RawListing, error) {
	raw, err := p.source.Acquire(ctx, filters)
	if err == nil {
		return raw, nil
	}

	var aqErr *scraper.AcquisitionError
	if !errors.As(err, &aqErr) || p.fallback == nil || p.fallback == p.source {
		return nil, err
	}

	p.logger.Warn("[pipeline] %s acquisition failed (%s), falling back to %s: %v",
		p.source.Name(), aqErr.Kind, p.fallback.Name(), err)
	summary.Synthetic = true

	raw, err = p.fallback.Acquire(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("fallback after %w: %w", aqErr, err)
	}
	return raw, nil
}

// persist upserts each scored listing and its score. Individual failures are
// counted and skipped; a closed repository aborts the run.
func (p *Pipeline) persist(scored []services.Scored, summary *Summary) error {
	for _, sc := range scored {
		id, err := p.repo.UpsertListing(sc.Listing)
		if err != nil {
			if errors.Is(err, storage.ErrClosed) {
				return err
			}
			p.logger.Error("[pipeline] Upsert failed for %s: %v", sc.Listing.URL, err)
			summary.PersistErrors++
			continue
		}
		if err := p.repo.SaveScore(id, sc.Score); err != nil {
			if errors.Is(err, storage.ErrClosed) {
				return err
			}
			p.logger.Error("[pipeline] Score save failed for %s: %v", id, err)
			summary.PersistErrors++
			continue
		}
		summary.Persisted++
	}
	return nil
}

// checkRateLimit rejects triggers arriving before the minimum inter-run
// interval has elapsed, and stamps the run start otherwise.
func (p *Pipeline) checkRateLimit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	interval := p.cfg.RateLimit()
	if !p.lastRun.IsZero() {
		if elapsed := time.Since(p.lastRun); elapsed < interval {
			return fmt.Errorf("%w (wait %v)", ErrRateLimited, interval-elapsed)
		}
	}
	p.lastRun = time.Now()
	return nil
}

func (p *Pipeline) fail(summary *Summary, reason string, err error) (*Summary, error) {
	summary.State = StateFailed
	summary.Reason = fmt.Sprintf("%s: %v", reason, err)
	p.logger.Error("[pipeline] Run failed — %s", summary.Reason)
	return summary, err
}
