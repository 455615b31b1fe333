// Package aggregate groups normalized samples and computes descriptive
// statistics per KPI. Statistics are recomputed fresh on every analysis
// run; nothing here persists.
package aggregate

import (
	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
)

// PerKPI aggregates samples by KPI name across all sites.
func PerKPI(samples []kpi.Sample) map[string]kpi.Statistics {
	grouped := map[string][]float64{}
	for _, s := range samples {
		grouped[s.KPI] = append(grouped[s.KPI], s.Value)
	}

	stats := make(map[string]kpi.Statistics, len(grouped))
	for name, values := range grouped {
		stats[name] = kpi.Describe(values)
	}
	return stats
}

// PerSiteKPI aggregates samples by (site, KPI).
func PerSiteKPI(samples []kpi.Sample) map[string]map[string]kpi.Statistics {
	grouped := map[string]map[string][]float64{}
	for _, s := range samples {
		if grouped[s.Site] == nil {
			grouped[s.Site] = map[string][]float64{}
		}
		grouped[s.Site][s.KPI] = append(grouped[s.Site][s.KPI], s.Value)
	}

	stats := make(map[string]map[string]kpi.Statistics, len(grouped))
	for site, kpis := range grouped {
		stats[site] = make(map[string]kpi.Statistics, len(kpis))
		for name, values := range kpis {
			stats[site][name] = kpi.Describe(values)
		}
	}
	return stats
}

// Sites returns the distinct site identifiers present in the samples,
// in first-seen order.
func Sites(samples []kpi.Sample) []string {
	seen := map[string]bool{}
	var sites []string
	for _, s := range samples {
		if !seen[s.Site] {
			seen[s.Site] = true
			sites = append(sites, s.Site)
		}
	}
	return sites
}
