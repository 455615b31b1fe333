// Package drift measures how far a site's current KPI behavior has
// moved from its persisted baseline snapshot.
package drift

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	"github.com/frostdev-ops/ranalyzer-go/internal/database/models"
	"github.com/frostdev-ops/ranalyzer-go/internal/database/repositories"
)

// Config carries the drift tuning constants.
type Config struct {
	// Significance is the per-KPI normalized deviation above which a
	// KPI is listed as a parameter of interest.
	Significance float64
	// FullScale is the mean normalized deviation mapped to score 1.0.
	FullScale float64
	// Epsilon floors the baseline stdev in the deviation denominator.
	Epsilon float64
}

// Detail is the per-KPI breakdown of a comparison.
type Detail struct {
	Deviation    float64 `json:"deviation"`
	CurrentMean  float64 `json:"current_mean"`
	BaselineMean float64 `json:"baseline_mean"`
	Significant  bool    `json:"significant"`
}

// Result is the outcome of one drift comparison. Ephemeral; recomputed
// every run.
type Result struct {
	Score           float64           `json:"drift_score"`
	Parameters      []string          `json:"parameters_of_interest"`
	Details         map[string]Detail `json:"per_kpi_detail"`
	BaselineCreated bool              `json:"baseline_created"`
}

// Comparator compares current aggregates against stored baselines. It
// owns the per-site exclusion between comparisons and refreshes: a
// comparison always reads one fully-formed baseline, never a partially
// written one.
type Comparator struct {
	repo   repositories.BaselineRepository
	cfg    Config
	logger *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// New creates a Comparator, applying defaults for unset config values.
func New(repo repositories.BaselineRepository, cfg Config, logger *logrus.Logger) *Comparator {
	if cfg.Significance <= 0 {
		cfg.Significance = 2.0
	}
	if cfg.FullScale <= 0 {
		cfg.FullScale = 4.0
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 1e-6
	}
	return &Comparator{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		locks:  map[string]*sync.RWMutex{},
	}
}

func (c *Comparator) siteLock(site string) *sync.RWMutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[site] == nil {
		c.locks[site] = &sync.RWMutex{}
	}
	return c.locks[site]
}

// Compare measures the current aggregates against the site's baseline.
// When no baseline exists yet it establishes one from the current
// aggregates and reports zero drift. It never replaces an existing
// baseline; that requires an explicit Refresh.
func (c *Comparator) Compare(ctx context.Context, site string, current map[string]kpi.Statistics, sampleCount int) (*Result, error) {
	lock := c.siteLock(site)
	lock.RLock()
	baseline, err := c.repo.GetBySite(ctx, site)
	lock.RUnlock()
	if err != nil {
		return nil, err
	}

	if baseline == nil {
		if err := c.establish(ctx, site, current, sampleCount); err != nil {
			return nil, err
		}
		return &Result{
			Score:           0,
			Parameters:      []string{},
			Details:         map[string]Detail{},
			BaselineCreated: true,
		}, nil
	}

	return c.compare(baseline, current), nil
}

// Refresh replaces the site's baseline with the current aggregates.
// This is the only operation that overwrites an existing baseline.
func (c *Comparator) Refresh(ctx context.Context, site string, current map[string]kpi.Statistics, sampleCount int) (*models.Baseline, error) {
	lock := c.siteLock(site)
	lock.Lock()
	defer lock.Unlock()

	baseline := &models.Baseline{
		SiteID:      site,
		Stats:       current,
		SampleCount: sampleCount,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.repo.Upsert(ctx, baseline); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"site": site,
		"kpis": len(current),
	}).Info("baseline refreshed")

	return baseline, nil
}

// Get returns the stored baseline for a site, or (nil, nil) when none
// exists.
func (c *Comparator) Get(ctx context.Context, site string) (*models.Baseline, error) {
	lock := c.siteLock(site)
	lock.RLock()
	defer lock.RUnlock()
	return c.repo.GetBySite(ctx, site)
}

// establish writes a first baseline under the write lock, keeping the
// double-checked read cheap for the common compare path.
func (c *Comparator) establish(ctx context.Context, site string, current map[string]kpi.Statistics, sampleCount int) error {
	lock := c.siteLock(site)
	lock.Lock()
	defer lock.Unlock()

	// Another run may have created it between our read and this lock.
	existing, err := c.repo.GetBySite(ctx, site)
	if err != nil || existing != nil {
		return err
	}

	baseline := &models.Baseline{
		SiteID:      site,
		Stats:       current,
		SampleCount: sampleCount,
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.repo.Upsert(ctx, baseline); err != nil {
		return err
	}

	c.logger.WithField("site", site).Info("baseline established")
	return nil
}

// compare computes per-KPI normalized deviations and the overall score.
// Only KPIs present on both sides participate; a KPI seen for the first
// time has nothing to deviate from.
func (c *Comparator) compare(baseline *models.Baseline, current map[string]kpi.Statistics) *Result {
	details := map[string]Detail{}
	var parameters []string
	var sum float64
	var n int

	for name, cur := range current {
		base, ok := baseline.Stats[name]
		if !ok || base.Count == 0 {
			continue
		}

		dev := c.deviation(cur, base)
		significant := dev > c.cfg.Significance
		details[name] = Detail{
			Deviation:    dev,
			CurrentMean:  cur.Mean,
			BaselineMean: base.Mean,
			Significant:  significant,
		}
		if significant {
			parameters = append(parameters, name)
		}
		sum += dev
		n++
	}

	score := 0.0
	if n > 0 {
		score = math.Min(1, math.Max(0, (sum/float64(n))/c.cfg.FullScale))
	}

	if parameters == nil {
		parameters = []string{}
	}
	sort.Strings(parameters)

	return &Result{
		Score:      score,
		Parameters: parameters,
		Details:    details,
	}
}

// deviation normalizes |current.mean - baseline.mean| by the baseline
// spread. With a single-sample baseline the stdev is undefined, so the
// baseline mean stands in as the scale instead.
func (c *Comparator) deviation(cur, base kpi.Statistics) float64 {
	diff := math.Abs(cur.Mean - base.Mean)
	if base.Stdev != nil {
		return diff / math.Max(*base.Stdev, c.cfg.Epsilon)
	}
	return diff / math.Max(math.Abs(base.Mean), c.cfg.Epsilon)
}
