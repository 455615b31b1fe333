// Package analysis orchestrates one complete root-cause analysis run:
// normalize, aggregate, classify, detect outliers, measure drift and
// render a narrative summary.
package analysis

import (
	"context"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/ai"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/aggregate"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/classifier"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/drift"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/normalizer"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/outlier"
)

// Report is the complete output of one analysis run.
type Report struct {
	RootCause        string                    `json:"root_cause"`
	Severity         classifier.Severity       `json:"severity"`
	Evidence         map[string]kpi.Statistics `json:"evidence"`
	Anomalies        []classifier.Anomaly      `json:"anomalies"`
	Recommendations  []string                  `json:"recommendations"`
	KPIData          []kpi.Sample              `json:"kpi_data"`
	Sites            []string                  `json:"sites"`
	AnomalyDetection outlier.Result            `json:"anomaly_detection"`
	Drift            *drift.Result             `json:"drift,omitempty"`
	DriftError       string                    `json:"drift_error,omitempty"`
	AISummary        string                    `json:"ai_summary,omitempty"`
}

// Service runs analyses end to end. The normalizer and classifier are
// stateless per run; the drift comparator holds the persisted
// baselines.
type Service struct {
	normalizer *normalizer.Normalizer
	classifier *classifier.Classifier
	detector   *outlier.Detector
	comparator *drift.Comparator
	summarizer *ai.Summarizer
	logger     *logrus.Logger
}

// NewService wires the analysis pipeline.
func NewService(
	n *normalizer.Normalizer,
	c *classifier.Classifier,
	d *outlier.Detector,
	cmp *drift.Comparator,
	s *ai.Summarizer,
	logger *logrus.Logger,
) *Service {
	return &Service{
		normalizer: n,
		classifier: c,
		detector:   d,
		comparator: cmp,
		summarizer: s,
		logger:     logger,
	}
}

// Analyze parses a PM document and runs the full pipeline. Parse
// failures abort the run; drift failures are reported in the result and
// the rest of the analysis stands.
func (s *Service) Analyze(ctx context.Context, doc *etree.Document) (*Report, error) {
	samples, err := s.normalizer.Normalize(doc)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeSamples(ctx, samples), nil
}

// Normalize parses a PM document into canonical samples without
// running the rest of the pipeline.
func (s *Service) Normalize(doc *etree.Document) ([]kpi.Sample, error) {
	return s.normalizer.Normalize(doc)
}

// AnalyzeSamples runs the pipeline over already-normalized samples.
// An empty sample set still yields a full report with the default
// classification; the caller decides whether to surface it as a warning.
func (s *Service) AnalyzeSamples(ctx context.Context, samples []kpi.Sample) *Report {
	stats := aggregate.PerKPI(samples)
	rca := s.classifier.Classify(stats)
	anomalies := s.detector.Detect(samples)

	report := &Report{
		RootCause:        rca.RootCause,
		Severity:         rca.Severity,
		Evidence:         rca.Evidence,
		Anomalies:        rca.Anomalies,
		Recommendations:  rca.Recommendations,
		KPIData:          samples,
		Sites:            aggregate.Sites(samples),
		AnomalyDetection: anomalies,
	}

	// Drift is measured for the first site in the file, matching the
	// one-file-one-site shape of ENM ROP exports. A drift failure never
	// voids the classification.
	if len(report.Sites) > 0 && s.comparator != nil {
		site := report.Sites[0]
		perSite := aggregate.PerSiteKPI(samples)
		driftResult, err := s.comparator.Compare(ctx, site, perSite[site], countSiteSamples(samples, site))
		if err != nil {
			s.logger.WithError(err).WithField("site", site).Warn("drift comparison failed")
			report.DriftError = err.Error()
		} else {
			report.Drift = driftResult
		}
	}

	if s.summarizer != nil {
		report.AISummary = s.summarizer.Summarize(ctx, rca, anomalies, report.Drift, true)
	}

	s.logger.WithFields(logrus.Fields{
		"samples":    len(samples),
		"sites":      len(report.Sites),
		"root_cause": report.RootCause,
		"severity":   report.Severity,
	}).Info("analysis complete")

	return report
}

// RefreshBaseline replaces a site's baseline from the given samples.
func (s *Service) RefreshBaseline(ctx context.Context, site string, samples []kpi.Sample) error {
	perSite := aggregate.PerSiteKPI(samples)
	_, err := s.comparator.Refresh(ctx, site, perSite[site], countSiteSamples(samples, site))
	return err
}

func countSiteSamples(samples []kpi.Sample, site string) int {
	count := 0
	for _, s := range samples {
		if s.Site == site {
			count++
		}
	}
	return count
}
