// Package outlier flags anomalous measurement intervals with an
// unsupervised isolation forest over aligned per-timestamp KPI vectors.
// It is independent of the fixed threshold table: a bucket can be
// flagged here without violating any bound, and vice versa.
package outlier

import (
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
)

// Config carries the detector tuning constants.
type Config struct {
	Trees     int
	SubSample int
	// Contamination is the expected fraction of anomalous buckets;
	// the flagging threshold is the score quantile at 1-Contamination.
	Contamination float64
	Seed          int64
}

// Result is the detector's per-run output. Scores and Flags align
// index-for-index with the sorted distinct time buckets of the input.
// AnomalyPeriods is not capped here; display truncation belongs to the
// consumer.
type Result struct {
	Scores         []float64   `json:"scores"`
	Flags          []bool      `json:"flags"`
	AnomalyCount   int         `json:"anomaly_count"`
	AnomalyPeriods []time.Time `json:"anomaly_periods"`
}

// Detector fits a fresh model per analysis run; it holds no learned
// state across invocations.
type Detector struct {
	cfg    Config
	logger *logrus.Logger
}

// New creates a Detector, applying defaults for unset config values.
func New(cfg Config, logger *logrus.Logger) *Detector {
	if cfg.Trees <= 0 {
		cfg.Trees = 100
	}
	if cfg.SubSample <= 0 {
		cfg.SubSample = 256
	}
	if cfg.Contamination <= 0 || cfg.Contamination >= 1 {
		cfg.Contamination = 0.10
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Detect builds the aligned KPI matrix from the samples, fits an
// isolation forest and scores every time bucket.
//
// Matrix policy (explicit, not silent): one row per distinct timestamp,
// one column per KPI; a cell is the mean of that KPI's values at that
// timestamp across sites; cells for KPIs absent from a bucket are
// imputed with the column mean. Fewer than two buckets is too little
// signal to fit anything, so the result is empty.
func (d *Detector) Detect(samples []kpi.Sample) Result {
	buckets, rows := buildMatrix(samples)
	if len(rows) < 2 {
		return Result{Scores: []float64{}, Flags: []bool{}, AnomalyPeriods: []time.Time{}}
	}

	f := newForest(d.cfg.Trees, d.cfg.SubSample, d.cfg.Seed)
	f.fit(rows)

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = f.score(row)
	}

	flags := d.flag(scores)

	result := Result{
		Scores:         scores,
		Flags:          flags,
		AnomalyPeriods: []time.Time{},
	}
	for i, flagged := range flags {
		if flagged {
			result.AnomalyCount++
			result.AnomalyPeriods = append(result.AnomalyPeriods, buckets[i])
		}
	}

	d.logger.WithFields(logrus.Fields{
		"buckets":   len(rows),
		"anomalies": result.AnomalyCount,
	}).Debug("outlier detection complete")

	return result
}

// flag marks the top contamination fraction of buckets by score. The
// cut sits between the k-th and (k+1)-th highest score; comparison
// against it is strict, so buckets tied with the cut stay inliers.
// A window of identical buckets therefore flags nothing, while any
// window with distinct scores flags exactly the top fraction.
func (d *Detector) flag(scores []float64) []bool {
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	k := int(math.Ceil(d.cfg.Contamination * float64(len(scores))))
	if k < 1 {
		k = 1
	}
	if k >= len(sorted) {
		k = len(sorted) - 1
	}
	cut := sorted[k]

	flags := make([]bool, len(scores))
	for i, s := range scores {
		flags[i] = s > cut
	}
	return flags
}

// buildMatrix aligns samples into per-bucket feature rows.
func buildMatrix(samples []kpi.Sample) ([]time.Time, [][]float64) {
	type cell struct {
		sum   float64
		count int
	}

	cells := map[int64]map[string]*cell{}
	kpiSet := map[string]bool{}
	for _, s := range samples {
		ts := s.Timestamp.Unix()
		if cells[ts] == nil {
			cells[ts] = map[string]*cell{}
		}
		c := cells[ts][s.KPI]
		if c == nil {
			c = &cell{}
			cells[ts][s.KPI] = c
		}
		c.sum += s.Value
		c.count++
		kpiSet[s.KPI] = true
	}

	tsList := make([]int64, 0, len(cells))
	for ts := range cells {
		tsList = append(tsList, ts)
	}
	sort.Slice(tsList, func(i, j int) bool { return tsList[i] < tsList[j] })

	kpiNames := make([]string, 0, len(kpiSet))
	for name := range kpiSet {
		kpiNames = append(kpiNames, name)
	}
	sort.Strings(kpiNames)

	rows := make([][]float64, len(tsList))
	for i, ts := range tsList {
		rows[i] = make([]float64, len(kpiNames))
		for j, name := range kpiNames {
			if c, ok := cells[ts][name]; ok {
				rows[i][j] = c.sum / float64(c.count)
			} else {
				rows[i][j] = math.NaN()
			}
		}
	}
	imputeColumnMeans(rows)

	buckets := make([]time.Time, len(tsList))
	for i, ts := range tsList {
		buckets[i] = time.Unix(ts, 0).UTC()
	}
	return buckets, rows
}

// imputeColumnMeans replaces NaN cells with their column's mean over the
// present values. A column with no values at all becomes zero for every
// row, contributing nothing to any split.
func imputeColumnMeans(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	for j := range rows[0] {
		sum, count := 0.0, 0
		for i := range rows {
			if !math.IsNaN(rows[i][j]) {
				sum += rows[i][j]
				count++
			}
		}
		mean := 0.0
		if count > 0 {
			mean = sum / float64(count)
		}
		for i := range rows {
			if math.IsNaN(rows[i][j]) {
				rows[i][j] = mean
			}
		}
	}
}
