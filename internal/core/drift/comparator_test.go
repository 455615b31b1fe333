package drift

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	"github.com/frostdev-ops/ranalyzer-go/internal/database/models"
	apperr "github.com/frostdev-ops/ranalyzer-go/pkg/errors"
)

// fakeRepo is an in-memory BaselineRepository. corruptSites report a
// BaselineCorruptError on read, mimicking an undecodable stored row.
type fakeRepo struct {
	baselines    map[string]*models.Baseline
	corruptSites map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		baselines:    map[string]*models.Baseline{},
		corruptSites: map[string]bool{},
	}
}

func (r *fakeRepo) GetBySite(_ context.Context, siteID string) (*models.Baseline, error) {
	if r.corruptSites[siteID] {
		return nil, &apperr.BaselineCorruptError{Site: siteID, Err: errors.New("bad payload")}
	}
	return r.baselines[siteID], nil
}

func (r *fakeRepo) Upsert(_ context.Context, baseline *models.Baseline) error {
	r.baselines[baseline.SiteID] = baseline
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, siteID string) error {
	delete(r.baselines, siteID)
	return nil
}

func (r *fakeRepo) ListSites(_ context.Context) ([]string, error) {
	var sites []string
	for site := range r.baselines {
		sites = append(sites, site)
	}
	return sites, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func statsWith(mean, stdev float64) map[string]kpi.Statistics {
	return map[string]kpi.Statistics{
		kpi.SINRAvg: {Mean: mean, Min: mean - 1, Max: mean + 1, Stdev: &stdev, Count: 10},
	}
}

func TestCompareFirstRunEstablishesBaseline(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{}, testLogger())

	result, err := c.Compare(context.Background(), "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)

	assert.True(t, result.BaselineCreated)
	assert.Zero(t, result.Score, "first run has nothing to deviate from")
	assert.Empty(t, result.Parameters)
	require.NotNil(t, repo.baselines["siteA"], "baseline must be persisted")
	assert.Equal(t, 10, repo.baselines["siteA"].SampleCount)
}

func TestCompareAgainstIdenticalBaseline(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{}, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)

	result, err := c.Compare(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)

	assert.False(t, result.BaselineCreated)
	assert.Zero(t, result.Score)
	assert.Empty(t, result.Parameters)
	assert.Contains(t, result.Details, kpi.SINRAvg)
}

func TestCompareDetectsDrift(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{Significance: 2.0, FullScale: 4.0}, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)

	// Mean moved 3 stdevs: deviation 3.0, above significance 2.0.
	result, err := c.Compare(ctx, "siteA", statsWith(11.0, 1.0), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{kpi.SINRAvg}, result.Parameters)
	assert.InDelta(t, 0.75, result.Score, 1e-9) // 3.0 / 4.0
	detail := result.Details[kpi.SINRAvg]
	assert.InDelta(t, 3.0, detail.Deviation, 1e-9)
	assert.True(t, detail.Significant)
}

func TestScoreClampedToOne(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{FullScale: 4.0}, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)

	result, err := c.Compare(ctx, "siteA", statsWith(100.0, 1.0), 10)
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
}

func TestCompareNeverOverwritesBaseline(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{}, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)
	created := repo.baselines["siteA"].CreatedAt

	_, err = c.Compare(ctx, "siteA", statsWith(20.0, 1.0), 10)
	require.NoError(t, err)

	assert.Equal(t, created, repo.baselines["siteA"].CreatedAt)
	assert.Equal(t, 8.0, repo.baselines["siteA"].Stats[kpi.SINRAvg].Mean,
		"only an explicit refresh may replace a baseline")
}

func TestRefreshReplacesBaseline(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{}, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)
	_, err = c.Refresh(ctx, "siteA", statsWith(12.0, 1.0), 20)
	require.NoError(t, err)

	result, err := c.Compare(ctx, "siteA", statsWith(12.0, 1.0), 20)
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.Equal(t, 20, repo.baselines["siteA"].SampleCount)
}

func TestCompareCorruptBaseline(t *testing.T) {
	repo := newFakeRepo()
	repo.corruptSites["siteA"] = true
	c := New(repo, Config{}, testLogger())

	_, err := c.Compare(context.Background(), "siteA", statsWith(8.0, 1.0), 10)
	require.Error(t, err)
	assert.True(t, apperr.IsBaselineCorrupt(err))
}

func TestDeviationWithoutStdevUsesMean(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{Significance: 2.0, FullScale: 4.0}, testLogger())
	ctx := context.Background()

	// Single-sample baseline: no stdev.
	base := map[string]kpi.Statistics{
		kpi.SINRAvg: {Mean: 10.0, Min: 10.0, Max: 10.0, Count: 1},
	}
	_, err := c.Refresh(ctx, "siteA", base, 1)
	require.NoError(t, err)

	result, err := c.Compare(ctx, "siteA", statsWith(15.0, 1.0), 10)
	require.NoError(t, err)

	// |15-10| / |10| = 0.5
	assert.InDelta(t, 0.5, result.Details[kpi.SINRAvg].Deviation, 1e-9)
	assert.Empty(t, result.Parameters)
}

func TestKPIsAbsentFromBaselineAreSkipped(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{}, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)

	current := statsWith(8.0, 1.0)
	current[kpi.BLERP95] = kpi.Statistics{Mean: 4.0, Count: 5}

	result, err := c.Compare(ctx, "siteA", current, 15)
	require.NoError(t, err)
	assert.NotContains(t, result.Details, kpi.BLERP95,
		"a KPI never seen in the baseline has nothing to deviate from")
}

func TestConcurrentCompareAndRefresh(t *testing.T) {
	repo := newFakeRepo()
	c := New(repo, Config{}, testLogger())
	ctx := context.Background()

	_, err := c.Refresh(ctx, "siteA", statsWith(8.0, 1.0), 10)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = c.Refresh(ctx, "siteA", statsWith(8.0+float64(i%3), 1.0), 10)
		}
	}()

	for i := 0; i < 50; i++ {
		result, err := c.Compare(ctx, "siteA", statsWith(8.0, 1.0), 10)
		require.NoError(t, err)
		require.NotNil(t, result)
	}
	<-done
}
