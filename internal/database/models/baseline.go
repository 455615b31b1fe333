package models

import (
	"time"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
)

// Baseline is the persisted per-site reference snapshot of aggregated
// KPI statistics. It is created on a site's first analysis run and only
// ever replaced by an explicit refresh; a comparison run never mutates it.
type Baseline struct {
	SiteID      string                    `db:"site_id" json:"site_id"`
	Stats       map[string]kpi.Statistics `db:"-" json:"stats"`
	SampleCount int                       `db:"sample_count" json:"sample_count"`
	CreatedAt   time.Time                 `db:"created_at" json:"created_at"`
}
