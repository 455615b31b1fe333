package ai

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/classifier"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func nlqSamples() []kpi.Sample {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []kpi.Sample{
		{Timestamp: ts, Site: "siteA", KPI: kpi.SINRAvg, Value: 8.0},
		{Timestamp: ts, Site: "siteA", KPI: kpi.BLERP95, Value: 4.0},
		{Timestamp: ts.Add(time.Hour), Site: "siteB", KPI: kpi.SINRAvg, Value: 2.0},
	}
}

func nlqResult() *classifier.Result {
	return &classifier.Result{
		RootCause: classifier.LabelCongestion,
		Severity:  classifier.SeverityHigh,
		Anomalies: []classifier.Anomaly{
			{KPI: kpi.PRBUtilizationAvg, Type: classifier.AboveThreshold, Value: 88.0, Threshold: 70.0, Severity: classifier.SeverityHigh},
		},
		Recommendations: []string{"Review PRB utilization trends and peak hours"},
	}
}

func TestAskRoutesRootCauseQuestions(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "What is the root cause of the degradation?", nlqSamples(), nlqResult(), true)

	assert.Contains(t, answer.Answer, classifier.LabelCongestion)
	assert.Contains(t, answer.Answer, "HIGH")
	assert.InDelta(t, 0.9, answer.Confidence, 1e-9)
}

func TestAskRootCauseWithoutAnalysis(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "what is wrong with the network", nlqSamples(), nil, true)
	assert.Contains(t, answer.Answer, "not available")
	assert.InDelta(t, 0.5, answer.Confidence, 1e-9)
}

func TestAskKPIValueQuestion(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "what is the average sinr?", nlqSamples(), nil, true)
	assert.Contains(t, answer.Answer, kpi.SINRAvg)
	assert.Contains(t, answer.Answer, "5.00") // (8+2)/2
}

func TestAskAnomalyQuestion(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "were there any unusual readings?", nlqSamples(), nlqResult(), true)
	assert.Contains(t, answer.Answer, "1 anomaly")
	assert.Contains(t, answer.Answer, kpi.PRBUtilizationAvg)
}

func TestAskCompareQuestion(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "which site performs best compared to the others?", nlqSamples(), nil, true)
	assert.Contains(t, answer.Answer, "siteA")
}

func TestAskTrendQuestion(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "is the network improving?", nlqSamples(), nil, true)
	assert.NotEmpty(t, answer.Answer)
	assert.InDelta(t, 0.75, answer.Confidence, 1e-9)
}

func TestAskDefaultRoute(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "tell me a joke", nlqSamples(), nil, true)
	assert.Contains(t, answer.Answer, "Available KPIs include")
	assert.InDelta(t, 0.5, answer.Confidence, 1e-9)
}

func TestAskCloudRequestedButNotAllowed(t *testing.T) {
	r := NewResponder(nil, false, testLogger())

	answer := r.Ask(context.Background(), "what is wrong?", nlqSamples(), nlqResult(), false)
	assert.Contains(t, answer.Answer, "cloud access is not enabled")
	assert.Zero(t, answer.Confidence)
}

func TestAskCloudRequestedButNoProvider(t *testing.T) {
	r := NewResponder(nil, true, testLogger())

	answer := r.Ask(context.Background(), "what is wrong?", nlqSamples(), nlqResult(), false)
	assert.Contains(t, answer.Answer, "no API key is configured")
	assert.Zero(t, answer.Confidence)
}

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Complete(context.Context, string, string) (string, error) {
	return s.response, s.err
}
func (s *stubProvider) GetName() string { return "stub" }

func (s *stubProvider) IsAvailable(context.Context) bool { return true }

func TestAskCloudProviderUsed(t *testing.T) {
	r := NewResponder(&stubProvider{response: "The SINR degradation points to interference."}, true, testLogger())

	answer := r.Ask(context.Background(), "why is sinr low?", nlqSamples(), nlqResult(), false)
	assert.Equal(t, "The SINR degradation points to interference.", answer.Answer)
	assert.InDelta(t, 0.9, answer.Confidence, 1e-9)
}

func TestAskCloudFailureFallsBackToLocal(t *testing.T) {
	r := NewResponder(&stubProvider{err: assert.AnError}, true, testLogger())

	answer := r.Ask(context.Background(), "what is the root cause?", nlqSamples(), nlqResult(), false)
	require.NotEmpty(t, answer.Answer)
	assert.Contains(t, answer.Answer, classifier.LabelCongestion,
		"a failing provider must fall back to the local matcher")
}
