// Package classifier evaluates aggregated KPI statistics against the
// static threshold table and classifies the most likely root cause with
// a precedence-ordered rule set.
package classifier

import (
	"math"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
)

// Severity levels for anomalies and overall results.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ViolationType records which side of the bound a KPI crossed.
type ViolationType string

const (
	AboveThreshold ViolationType = "above_threshold"
	BelowThreshold ViolationType = "below_threshold"
)

// Anomaly is one threshold violation. Consumed read-only downstream.
type Anomaly struct {
	KPI       string        `json:"kpi"`
	Type      ViolationType `json:"type"`
	Value     float64       `json:"value"`
	Threshold float64       `json:"threshold"`
	Severity  Severity      `json:"severity"`
}

// Result is the classifier's output for one analysis run: exactly one
// root-cause label, the evidence it was derived from, and the canned
// remediation steps for that label.
type Result struct {
	RootCause       string                    `json:"root_cause"`
	Severity        Severity                  `json:"severity"`
	Evidence        map[string]kpi.Statistics `json:"evidence"`
	Anomalies       []Anomaly                 `json:"anomalies"`
	Recommendations []string                  `json:"recommendations"`
}

// Config carries the classifier tuning constants.
type Config struct {
	// SeverityDeviation is the relative deviation |mean-bound|/bound
	// above which (strictly) a violation is high instead of medium.
	SeverityDeviation float64
}

// Classifier evaluates statistics against a fixed threshold table.
type Classifier struct {
	thresholds []kpi.Threshold
	cfg        Config
}

// New creates a Classifier over the given threshold table.
func New(thresholds []kpi.Threshold, cfg Config) *Classifier {
	if cfg.SeverityDeviation <= 0 {
		cfg.SeverityDeviation = 0.20
	}
	return &Classifier{thresholds: thresholds, cfg: cfg}
}

// Classify evaluates per-KPI statistics and selects one root-cause
// label via the precedence rule table.
func (c *Classifier) Classify(stats map[string]kpi.Statistics) Result {
	anomalies := c.detect(stats)
	label, severity := classify(anomalies)

	return Result{
		RootCause:       label,
		Severity:        severity,
		Evidence:        stats,
		Anomalies:       anomalies,
		Recommendations: recommendationsFor(label),
	}
}

// detect walks the threshold table in order and emits one Anomaly per
// violated bound. KPIs within bounds produce no record; low severity
// only ever applies to the overall result, never to an Anomaly.
func (c *Classifier) detect(stats map[string]kpi.Statistics) []Anomaly {
	var anomalies []Anomaly

	for _, th := range c.thresholds {
		s, ok := stats[th.KPI]
		if !ok || s.Count == 0 {
			continue
		}

		var violated bool
		var vt ViolationType
		switch th.Comparison {
		case kpi.CompareMin:
			violated = s.Mean < th.Bound
			vt = BelowThreshold
		case kpi.CompareMax:
			violated = s.Mean > th.Bound
			vt = AboveThreshold
		}
		if !violated {
			continue
		}

		anomalies = append(anomalies, Anomaly{
			KPI:       th.KPI,
			Type:      vt,
			Value:     s.Mean,
			Threshold: th.Bound,
			Severity:  c.severityFor(s.Mean, th.Bound),
		})
	}

	return anomalies
}

// severityFor grades a violation by relative deviation from the bound.
// The comparison is strict: a deviation of exactly the cutoff stays
// medium. A zero bound makes any violation infinitely deviant, hence high.
func (c *Classifier) severityFor(mean, bound float64) Severity {
	var rel float64
	if bound == 0 {
		rel = math.Inf(1)
	} else {
		rel = math.Abs(mean-bound) / math.Abs(bound)
	}
	if rel > c.cfg.SeverityDeviation {
		return SeverityHigh
	}
	return SeverityMedium
}
