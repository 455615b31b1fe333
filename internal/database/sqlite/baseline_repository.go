package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	"github.com/frostdev-ops/ranalyzer-go/internal/database/models"
	"github.com/frostdev-ops/ranalyzer-go/internal/database/repositories"
	apperr "github.com/frostdev-ops/ranalyzer-go/pkg/errors"
)

// BaselineRepository implements repositories.BaselineRepository on
// sqlite. Per-KPI statistics are stored as a JSON document so the
// Baseline entity round-trips exactly through serialize/deserialize.
type BaselineRepository struct {
	db *sqlx.DB
}

// NewBaselineRepository creates a new BaselineRepository
func NewBaselineRepository(db *sqlx.DB) repositories.BaselineRepository {
	return &BaselineRepository{db: db}
}

type baselineRow struct {
	SiteID      string    `db:"site_id"`
	Stats       string    `db:"stats"`
	SampleCount int       `db:"sample_count"`
	CreatedAt   time.Time `db:"created_at"`
}

// GetBySite retrieves the baseline for a site, or (nil, nil) when none
// has been established yet.
func (r *BaselineRepository) GetBySite(ctx context.Context, siteID string) (*models.Baseline, error) {
	var row baselineRow
	err := r.db.GetContext(ctx, &row, `
		SELECT site_id, stats, sample_count, created_at
		FROM baselines
		WHERE site_id = ?
	`, siteID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get baseline for site %s: %w", siteID, err)
	}

	stats := map[string]kpi.Statistics{}
	if err := json.Unmarshal([]byte(row.Stats), &stats); err != nil {
		return nil, &apperr.BaselineCorruptError{Site: siteID, Err: err}
	}

	return &models.Baseline{
		SiteID:      row.SiteID,
		Stats:       stats,
		SampleCount: row.SampleCount,
		CreatedAt:   row.CreatedAt,
	}, nil
}

// Upsert stores or replaces the baseline for a site.
func (r *BaselineRepository) Upsert(ctx context.Context, baseline *models.Baseline) error {
	stats, err := json.Marshal(baseline.Stats)
	if err != nil {
		return fmt.Errorf("failed to serialize baseline stats: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO baselines (site_id, stats, sample_count, created_at)
		VALUES (?, ?, ?, ?)
	`, baseline.SiteID, string(stats), baseline.SampleCount, baseline.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert baseline for site %s: %w", baseline.SiteID, err)
	}
	return nil
}

// Delete removes the baseline for a site.
func (r *BaselineRepository) Delete(ctx context.Context, siteID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM baselines WHERE site_id = ?`, siteID)
	if err != nil {
		return fmt.Errorf("failed to delete baseline for site %s: %w", siteID, err)
	}
	return nil
}

// ListSites returns the site identifiers with stored baselines.
func (r *BaselineRepository) ListSites(ctx context.Context) ([]string, error) {
	var sites []string
	if err := r.db.SelectContext(ctx, &sites, `SELECT site_id FROM baselines ORDER BY site_id`); err != nil {
		return nil, fmt.Errorf("failed to list baseline sites: %w", err)
	}
	return sites, nil
}
