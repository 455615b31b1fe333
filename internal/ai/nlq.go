package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/classifier"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
)

const nlqSystemPrompt = `You are an expert LTE network analyst. Answer questions about KPI
metrics, trends, anomalies and root causes based on the provided
analysis context. Be concise, reference specific values and thresholds,
and do not use LaTeX notation.`

// Answer is the response to a natural language question.
type Answer struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// Responder answers plain-English questions about analysis results.
// Without a cloud provider it routes questions through a keyword
// matcher over the computed statistics.
type Responder struct {
	provider   Provider
	allowCloud bool
	logger     *logrus.Logger
}

// NewResponder creates a Responder. provider may be nil for local-only
// operation.
func NewResponder(provider Provider, allowCloud bool, logger *logrus.Logger) *Responder {
	return &Responder{provider: provider, allowCloud: allowCloud, logger: logger}
}

// Ask answers a question against the samples and the most recent
// classification. useLocal forces the keyword matcher even when a
// cloud provider is configured; asking for the cloud without it being
// permitted or configured is answered with an explanation instead of a
// silent downgrade.
func (r *Responder) Ask(ctx context.Context, question string, samples []kpi.Sample, rca *classifier.Result, useLocal bool) Answer {
	if !useLocal {
		if !r.allowCloud {
			return Answer{
				Answer:     "LLM mode is requested but cloud access is not enabled. Set ai.allow_cloud to true to use a remote model.",
				Confidence: 0,
			}
		}
		if r.provider == nil || !r.provider.IsAvailable(ctx) {
			return Answer{
				Answer:     "LLM mode is requested but no API key is configured. Set OPENAI_API_KEY to use a remote model.",
				Confidence: 0,
			}
		}
		answer, err := r.provider.Complete(ctx, nlqSystemPrompt, r.buildPrompt(question, samples, rca))
		if err == nil && answer != "" {
			return Answer{Answer: answer, Confidence: 0.9}
		}
		r.logger.WithError(err).Warn("cloud answer failed, falling back to local matcher")
	}
	return localAnswer(question, samples, rca)
}

func (r *Responder) buildPrompt(question string, samples []kpi.Sample, rca *classifier.Result) string {
	var b strings.Builder
	means := kpiMeans(samples)
	names := sortedKeys(means)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: mean %.2f\n", name, means[name])
	}
	if rca != nil {
		fmt.Fprintf(&b, "Root cause: %s (severity %s), %d threshold violations\n",
			rca.RootCause, rca.Severity, len(rca.Anomalies))
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// localAnswer routes the question by keyword. Confidence reflects how
// directly the matched route answers the question, not model certainty.
func localAnswer(question string, samples []kpi.Sample, rca *classifier.Result) Answer {
	q := strings.ToLower(question)
	means := kpiMeans(samples)

	switch {
	case containsAny(q, "root cause", "what is wrong", "issue", "problem"):
		if rca == nil {
			return Answer{Answer: "Root cause analysis is not available. Please run an analysis first.", Confidence: 0.5}
		}
		answer := fmt.Sprintf("The primary root cause is: %s (Severity: %s). ",
			rca.RootCause, strings.ToUpper(string(rca.Severity)))
		if len(rca.Recommendations) > 0 {
			answer += "Recommended actions include: " + rca.Recommendations[0]
		}
		return Answer{Answer: answer, Confidence: 0.9}

	case containsAny(q, "what is", "value of", "how much", "average"):
		for _, name := range sortedKeys(means) {
			if mentionsKPI(q, name) {
				return Answer{
					Answer:     fmt.Sprintf("The average value for %s is %.2f.", name, means[name]),
					Confidence: 0.85,
				}
			}
		}
		if name, mean, ok := maxMean(means); ok {
			return Answer{
				Answer:     fmt.Sprintf("Key performance indicators show %s at %.2f on average.", name, mean),
				Confidence: 0.7,
			}
		}
		return Answer{Answer: "No KPI data is available to answer that.", Confidence: 0.5}

	case containsAny(q, "trend", "increasing", "decreasing", "improving", "getting worse"):
		return trendAnswer(samples)

	case containsAny(q, "anomaly", "unusual", "abnormal", "outlier"):
		if rca != nil && len(rca.Anomalies) > 0 {
			top := rca.Anomalies[0]
			return Answer{
				Answer: fmt.Sprintf("Analysis detected %d anomaly(ies). Most significant: %s with value %.2f.",
					len(rca.Anomalies), top.KPI, top.Value),
				Confidence: 0.85,
			}
		}
		return Answer{Answer: "No significant anomalies detected in the current data.", Confidence: 0.7}

	case containsAny(q, "compare", "difference", "better", "worse", "best", "worst"):
		return compareAnswer(samples)

	default:
		answer := "I can help you understand KPI metrics, root causes, trends, and anomalies. " +
			"Please try asking about specific KPIs, root causes, or trends in the data."
		if names := sortedKeys(means); len(names) > 0 {
			if len(names) > 3 {
				names = names[:3]
			}
			answer += " Available KPIs include: " + strings.Join(names, ", ") + "."
		}
		return Answer{Answer: answer, Confidence: 0.5}
	}
}

// trendAnswer compares first-half and second-half means of the sample
// stream with a 10% stability band.
func trendAnswer(samples []kpi.Sample) Answer {
	if len(samples) < 2 {
		return Answer{Answer: "Insufficient data to determine trends. More data points are needed.", Confidence: 0.5}
	}

	half := len(samples) / 2
	firstAvg := meanValue(samples[:half])
	secondAvg := meanValue(samples[half:])

	var answer string
	switch {
	case secondAvg > firstAvg*1.1:
		answer = "The metrics show an improving trend over the observed period."
	case secondAvg < firstAvg*0.9:
		answer = "The metrics show a declining trend over the observed period."
	default:
		answer = "The metrics appear relatively stable over the observed period."
	}
	return Answer{Answer: answer, Confidence: 0.75}
}

// compareAnswer ranks sites by their overall mean value.
func compareAnswer(samples []kpi.Sample) Answer {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, s := range samples {
		sums[s.Site] += s.Value
		counts[s.Site]++
	}
	if len(sums) < 2 {
		return Answer{Answer: "Only one site is available for comparison. Multiple sites are needed for comparison.", Confidence: 0.6}
	}

	bestSite, bestAvg := "", 0.0
	for _, site := range sortedKeys(sums) {
		avg := sums[site] / float64(counts[site])
		if bestSite == "" || avg > bestAvg {
			bestSite, bestAvg = site, avg
		}
	}
	return Answer{
		Answer:     fmt.Sprintf("Among the sites analyzed, %s shows the best average performance (%.2f).", bestSite, bestAvg),
		Confidence: 0.8,
	}
}

func kpiMeans(samples []kpi.Sample) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, s := range samples {
		sums[s.KPI] += s.Value
		counts[s.KPI]++
	}
	means := make(map[string]float64, len(sums))
	for name, sum := range sums {
		means[name] = sum / float64(counts[name])
	}
	return means
}

func meanValue(samples []kpi.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Value
	}
	return sum / float64(len(samples))
}

// mentionsKPI matches a KPI name against the question either as the
// whole underscore-flattened name or by any of its word parts.
func mentionsKPI(q, name string) bool {
	flat := strings.ToLower(strings.ReplaceAll(name, "_", " "))
	if strings.Contains(q, flat) {
		return true
	}
	for _, part := range strings.Split(strings.ToLower(name), "_") {
		if part != "" && strings.Contains(q, part) {
			return true
		}
	}
	return false
}

func maxMean(means map[string]float64) (string, float64, bool) {
	best, bestVal, found := "", 0.0, false
	for _, name := range sortedKeys(means) {
		if !found || means[name] > bestVal {
			best, bestVal, found = name, means[name], true
		}
	}
	return best, bestVal, found
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
