package classifier

import "strings"

// Root cause labels. The set is closed: every analysis run produces
// exactly one of these.
const (
	LabelTransportTiming = "Transport/TIMING Fault"
	LabelMicrowaveACM    = "Microwave ACM Fade"
	LabelRFInterference  = "RF Interference / Sector Overshoot"
	LabelTDDMisalignment = "TDD Frame Misalignment"
	LabelCongestion      = "Congestion"
	LabelRFDegradation   = "RF Quality Degradation"
	LabelParamMismatch   = "Parameter Mismatch"
	LabelNewSite         = "New-Site Integration Issue"
	LabelCPEIssue        = "CPE-Specific Issue"
	LabelNoAnomaly       = "No significant anomaly detected"
)

// KPI families used as rule evidence. Each KPI belongs to at most one
// family; a family "fails" when any anomaly references a KPI of it.
type family int

const (
	famS1 family = iota
	famRRCOrERAB
	famPRB
	famSINR
	famBLER
	famPaging
)

func familyOf(kpiName string) (family, bool) {
	switch {
	case strings.Contains(kpiName, "S1"):
		return famS1, true
	case strings.Contains(kpiName, "RRC"), strings.Contains(kpiName, "ERAB"):
		return famRRCOrERAB, true
	case strings.Contains(kpiName, "PRB"):
		return famPRB, true
	case strings.Contains(kpiName, "SINR"):
		return famSINR, true
	case strings.Contains(kpiName, "BLER"):
		return famBLER, true
	case strings.Contains(kpiName, "Paging"):
		return famPaging, true
	}
	return 0, false
}

// flags holds the boolean evidence derived from the anomaly set.
type flags struct {
	s1, rrcOrErab, prb, sinr, bler, paging bool
}

// rule is one row of the decision table: a predicate over evidence
// flags, the label it selects, and the families whose anomalies set the
// overall severity when the rule matches.
type rule struct {
	label    string
	match    func(flags) bool
	families []family
}

// The decision table. Order is precedence: evaluation is top-to-bottom
// and the first match wins. The order encodes domain confidence in the
// fault signatures, so reordering rows changes behavior.
//
// Note: the RF Quality Degradation row is currently shadowed by the two
// sinr+bler rows above it (together they cover every sinr && bler
// combination). It stays as a fallback for partial evidence once the
// SINR/BLER families grow KPIs that feed only one of the earlier rows.
var rules = []rule{
	{
		label:    LabelTransportTiming,
		match:    func(f flags) bool { return f.s1 && f.rrcOrErab },
		families: []family{famS1, famRRCOrERAB},
	},
	{
		label:    LabelMicrowaveACM,
		match:    func(f flags) bool { return f.s1 && f.prb },
		families: []family{famS1, famPRB},
	},
	{
		label:    LabelRFInterference,
		match:    func(f flags) bool { return f.sinr && f.bler && f.prb },
		families: []family{famSINR, famBLER, famPRB},
	},
	{
		label:    LabelTDDMisalignment,
		match:    func(f flags) bool { return f.sinr && f.bler && !f.prb },
		families: []family{famSINR, famBLER},
	},
	{
		label:    LabelCongestion,
		match:    func(f flags) bool { return f.prb && f.rrcOrErab && !f.sinr },
		families: []family{famPRB, famRRCOrERAB},
	},
	{
		label:    LabelRFDegradation,
		match:    func(f flags) bool { return f.sinr && f.bler },
		families: []family{famSINR, famBLER},
	},
	{
		label:    LabelParamMismatch,
		match:    func(f flags) bool { return f.rrcOrErab && !f.s1 && !f.prb },
		families: []family{famRRCOrERAB},
	},
	{
		label:    LabelNewSite,
		match:    func(f flags) bool { return f.paging && f.rrcOrErab },
		families: []family{famPaging, famRRCOrERAB},
	},
	{
		label:    LabelCPEIssue,
		match:    func(f flags) bool { return f.bler && !f.sinr },
		families: []family{famBLER},
	},
}

// classify runs the decision table over the anomaly set and returns the
// selected label plus the overall severity.
func classify(anomalies []Anomaly) (string, Severity) {
	if len(anomalies) == 0 {
		return LabelNoAnomaly, SeverityLow
	}

	f := deriveFlags(anomalies)
	for _, r := range rules {
		if r.match(f) {
			return r.label, maxSeverity(anomalies, r.families)
		}
	}

	// Anomalies exist but match no signature: keep the default label,
	// let the strongest violation set the severity.
	return LabelNoAnomaly, maxSeverity(anomalies, nil)
}

func deriveFlags(anomalies []Anomaly) flags {
	var f flags
	for _, a := range anomalies {
		fam, ok := familyOf(a.KPI)
		if !ok {
			continue
		}
		switch fam {
		case famS1:
			f.s1 = true
		case famRRCOrERAB:
			f.rrcOrErab = true
		case famPRB:
			f.prb = true
		case famSINR:
			f.sinr = true
		case famBLER:
			f.bler = true
		case famPaging:
			f.paging = true
		}
	}
	return f
}

// maxSeverity returns the highest severity among anomalies in the given
// families. A nil family list considers every anomaly.
func maxSeverity(anomalies []Anomaly, fams []family) Severity {
	inScope := func(a Anomaly) bool {
		if fams == nil {
			return true
		}
		af, ok := familyOf(a.KPI)
		if !ok {
			return false
		}
		for _, rf := range fams {
			if af == rf {
				return true
			}
		}
		return false
	}

	max := SeverityLow
	for _, a := range anomalies {
		if !inScope(a) {
			continue
		}
		if a.Severity == SeverityHigh {
			return SeverityHigh
		}
		if a.Severity == SeverityMedium {
			max = SeverityMedium
		}
	}
	return max
}

// recommendationsFor returns the canned remediation steps for a label.
var recommendations = map[string][]string{
	LabelTransportTiming: {
		"Check S1 interface connectivity and latency",
		"Verify timing source (GPS/GNSS) synchronization",
		"Review transport network path and QoS settings",
		"Check for packet loss or jitter on backhaul links",
	},
	LabelMicrowaveACM: {
		"Check microwave link availability and ACM thresholds",
		"Review weather conditions and path clearance",
		"Verify antenna alignment and signal levels",
		"Consider adaptive modulation adjustments",
	},
	LabelTDDMisalignment: {
		"Verify TDD frame configuration across sectors",
		"Check timing advance parameters",
		"Review uplink/downlink subframe allocation",
		"Validate synchronization source accuracy",
	},
	LabelRFInterference: {
		"Perform RF drive test to identify interference sources",
		"Review antenna tilt and azimuth settings",
		"Check for co-channel interference",
		"Consider power reduction or antenna adjustments",
	},
	LabelCongestion: {
		"Review PRB utilization trends and peak hours",
		"Consider capacity expansion or load balancing",
		"Check for traffic offloading opportunities",
		"Review admission control parameters",
	},
	LabelRFDegradation: {
		"Perform RF optimization and site survey",
		"Check antenna system integrity",
		"Review power levels and coverage planning",
		"Validate neighbor cell configuration",
	},
	LabelParamMismatch: {
		"Review RRC and ERAB configuration parameters",
		"Check for parameter drift or misconfiguration",
		"Validate against network standards",
		"Compare with baseline configuration",
	},
	LabelNewSite: {
		"Verify new site integration checklist completion",
		"Check paging configuration and TAC assignment",
		"Review neighbor relations and handover parameters",
		"Validate core network connectivity",
	},
	LabelCPEIssue: {
		"Review CPE firmware versions and capabilities",
		"Check for device-specific issues or limitations",
		"Validate CPE configuration and parameters",
		"Consider CPE replacement or upgrade",
	},
}

func recommendationsFor(label string) []string {
	if recs, ok := recommendations[label]; ok {
		out := make([]string, len(recs))
		copy(out, recs)
		return out
	}
	return []string{
		"Review all KPI metrics and perform detailed analysis",
		"Check for any recent configuration changes",
		"Monitor trends over next 24 hours",
	}
}
