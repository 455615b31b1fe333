package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/classifier"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/drift"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/outlier"
)

const summarySystemPrompt = `You are an expert LTE network analyst. You analyze KPI data from
radio access network performance files to help diagnose network issues.
Summarize the provided root-cause analysis in clear, professional prose
suitable for a network operations team. Reference specific KPI values
and thresholds. Do not use LaTeX notation.`

// Summarizer produces a human-readable narrative of one analysis run.
// A configured cloud provider is tried first when permitted; the local
// template renderer always works and is the fallback on any failure.
type Summarizer struct {
	provider   Provider
	allowCloud bool
	logger     *logrus.Logger
}

// NewSummarizer creates a Summarizer. provider may be nil for
// local-only operation.
func NewSummarizer(provider Provider, allowCloud bool, logger *logrus.Logger) *Summarizer {
	return &Summarizer{provider: provider, allowCloud: allowCloud, logger: logger}
}

// Summarize renders the analysis narrative. useLocal forces the
// template renderer even when a cloud provider is configured.
func (s *Summarizer) Summarize(ctx context.Context, rca classifier.Result, anomalies outlier.Result, driftResult *drift.Result, useLocal bool) string {
	if !useLocal && s.allowCloud && s.provider != nil && s.provider.IsAvailable(ctx) {
		answer, err := s.provider.Complete(ctx, summarySystemPrompt, s.buildPrompt(rca, anomalies, driftResult))
		if err == nil && answer != "" {
			return answer
		}
		s.logger.WithError(err).Warn("cloud summary failed, falling back to local renderer")
	}
	return localSummary(rca, anomalies, driftResult)
}

func (s *Summarizer) buildPrompt(rca classifier.Result, anomalies outlier.Result, driftResult *drift.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Root cause: %s (severity %s)\n", rca.RootCause, rca.Severity)
	for _, a := range rca.Anomalies {
		fmt.Fprintf(&b, "Violation: %s mean %.2f vs threshold %.2f (%s, %s)\n",
			a.KPI, a.Value, a.Threshold, a.Type, a.Severity)
	}
	fmt.Fprintf(&b, "Anomalous time periods: %d of %d\n", anomalies.AnomalyCount, len(anomalies.Flags))
	if driftResult != nil {
		fmt.Fprintf(&b, "Drift score: %.2f, drifting parameters: %s\n",
			driftResult.Score, strings.Join(driftResult.Parameters, ", "))
	}
	if len(rca.Recommendations) > 0 {
		fmt.Fprintf(&b, "Recommended actions: %s\n", strings.Join(rca.Recommendations, "; "))
	}
	return b.String()
}

// localSummary renders the structured markdown narrative without any
// external service.
func localSummary(rca classifier.Result, anomalies outlier.Result, driftResult *drift.Result) string {
	var parts []string

	parts = append(parts, "## Root Cause Analysis Summary")
	parts = append(parts, fmt.Sprintf("\n**Primary Issue:** %s", rca.RootCause))
	parts = append(parts, fmt.Sprintf("**Severity Level:** %s", strings.ToUpper(string(rca.Severity))))

	if len(rca.Evidence) > 0 {
		parts = append(parts, "\n### Key Performance Indicators")
		names := make([]string, 0, len(rca.Evidence))
		for name := range rca.Evidence {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) > 5 {
			names = names[:5]
		}
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("- **%s**: Average value %.2f", name, rca.Evidence[name].Mean))
		}
	}

	if anomalies.AnomalyCount > 0 {
		maxScore := 0.0
		for _, s := range anomalies.Scores {
			if s > maxScore {
				maxScore = s
			}
		}
		parts = append(parts, "\n### Anomaly Detection")
		parts = append(parts, fmt.Sprintf("- **%d** anomalous time periods detected", anomalies.AnomalyCount))
		parts = append(parts, fmt.Sprintf("- Maximum anomaly score: %.2f", maxScore))
	}

	if driftResult != nil && driftResult.Score > 0.3 {
		parts = append(parts, "\n### Parameter Drift Detection")
		parts = append(parts, fmt.Sprintf("- Drift score: %.2f (threshold: 0.3)", driftResult.Score))
		if len(driftResult.Parameters) > 0 {
			params := driftResult.Parameters
			if len(params) > 3 {
				params = params[:3]
			}
			parts = append(parts, fmt.Sprintf("- Parameters showing drift: %s", strings.Join(params, ", ")))
		}
	}

	if len(rca.Recommendations) > 0 {
		parts = append(parts, "\n### Recommended Actions")
		recs := rca.Recommendations
		if len(recs) > 5 {
			recs = recs[:5]
		}
		for i, rec := range recs {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, rec))
		}
	}

	parts = append(parts, "\n### Analysis Conclusion")
	switch rca.Severity {
	case classifier.SeverityHigh:
		parts = append(parts, "Immediate attention required. Critical performance issues detected.")
	case classifier.SeverityMedium:
		parts = append(parts, "Moderate performance degradation observed. Monitoring recommended.")
	default:
		parts = append(parts, "System operating within normal parameters with minor observations.")
	}

	return strings.Join(parts, "\n")
}
