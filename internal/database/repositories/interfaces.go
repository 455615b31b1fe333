package repositories

import (
	"context"

	"github.com/frostdev-ops/ranalyzer-go/internal/database/models"
)

// BaselineRepository defines baseline snapshot data access methods. The
// drift comparator is the only writer. GetBySite returns (nil, nil)
// when no baseline exists for the site; a stored record that fails to
// deserialize surfaces as *errors.BaselineCorruptError.
type BaselineRepository interface {
	GetBySite(ctx context.Context, siteID string) (*models.Baseline, error)
	Upsert(ctx context.Context, baseline *models.Baseline) error
	Delete(ctx context.Context, siteID string) error
	ListSites(ctx context.Context) ([]string, error)
}
