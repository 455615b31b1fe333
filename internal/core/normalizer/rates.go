package normalizer

import (
	"sort"
	"time"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
)

type bucketKey struct {
	site string
	ts   int64
}

// deriveRates computes derived success-rate KPIs from paired
// attempt/success counters at the same (site, timestamp). A bucket
// missing either half of a pair contributes no rate sample at all:
// omitting beats assuming zero, which would fabricate a 0% or divide by
// nothing. Buckets with zero attempts are likewise omitted.
func (n *Normalizer) deriveRates(samples []kpi.Sample) []kpi.Sample {
	if len(n.tables.RatePairs) == 0 || len(samples) == 0 {
		return nil
	}

	type pairSums struct {
		attempts, success float64
		hasAtt, hasSucc   bool
	}

	sums := map[bucketKey]map[string]*pairSums{}
	pairByCounter := map[string]*kpi.RatePair{}
	for i := range n.tables.RatePairs {
		p := &n.tables.RatePairs[i]
		pairByCounter[p.Attempts] = p
		pairByCounter[p.Success] = p
	}

	for _, s := range samples {
		pair, ok := pairByCounter[s.KPI]
		if !ok {
			continue
		}
		key := bucketKey{site: s.Site, ts: s.Timestamp.Unix()}
		if sums[key] == nil {
			sums[key] = map[string]*pairSums{}
		}
		ps := sums[key][pair.Rate]
		if ps == nil {
			ps = &pairSums{}
			sums[key][pair.Rate] = ps
		}
		if s.KPI == pair.Attempts {
			ps.attempts += s.Value
			ps.hasAtt = true
		} else {
			ps.success += s.Value
			ps.hasSucc = true
		}
	}

	var derived []kpi.Sample
	for key, rates := range sums {
		for rate, ps := range rates {
			if !ps.hasAtt || !ps.hasSucc || ps.attempts <= 0 {
				continue
			}
			derived = append(derived, kpi.Sample{
				Timestamp: time.Unix(key.ts, 0).UTC(),
				Site:      key.site,
				KPI:       rate,
				Value:     100 * ps.success / ps.attempts,
			})
		}
	}

	// Map iteration order is random; keep output deterministic.
	sort.Slice(derived, func(i, j int) bool {
		if !derived[i].Timestamp.Equal(derived[j].Timestamp) {
			return derived[i].Timestamp.Before(derived[j].Timestamp)
		}
		if derived[i].Site != derived[j].Site {
			return derived[i].Site < derived[j].Site
		}
		return derived[i].KPI < derived[j].KPI
	})

	return derived
}
