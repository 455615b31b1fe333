package kpi

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Canonical KPI names. Everything downstream of the normalizer refers to
// these, never to raw vendor counter identifiers.
const (
	RRCSetupSuccessRate  = "RRC_Setup_Success_Rate"
	ERABSetupSuccessRate = "ERAB_Setup_Success_Rate"
	PRBUtilizationAvg    = "PRB_Utilization_Avg"
	PRBUtilizationP95    = "PRB_Utilization_P95"
	SINRAvg              = "SINR_Avg"
	SINRP10              = "SINR_P10"
	BLERP95              = "BLER_P95"
	PagingSuccessRate    = "Paging_Success_Rate"
	S1SetupFailureRate   = "S1_Setup_Failure_Rate"
	RRCConnections       = "RRC_Connections"
	ERABConnections      = "ERAB_Connections"
	DownlinkThroughput   = "Downlink_Throughput"
	UplinkThroughput     = "Uplink_Throughput"
	HandoverSuccessRate  = "Handover_Success_Rate"
	CellAvailability     = "Cell_Availability"

	RRCSetupAttempts  = "RRC_Setup_Attempts"
	RRCSetupSuccess   = "RRC_Setup_Success"
	ERABSetupAttempts = "ERAB_Setup_Attempts"
	ERABSetupSuccess  = "ERAB_Setup_Success"
)

// Sample is one normalized measurement: a canonical KPI value for a site
// at the start of a measurement interval. Immutable once produced.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Site      string    `json:"site"`
	KPI       string    `json:"kpi"`
	Value     float64   `json:"value"`
}

// Statistics is a descriptive aggregate over a batch of sample values.
// Stdev is only defined when Count > 1; a single sample carries no
// variance information, so it stays nil rather than zero.
type Statistics struct {
	Mean   float64  `json:"mean"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Median *float64 `json:"median,omitempty"`
	Stdev  *float64 `json:"stdev,omitempty"`
	Count  int      `json:"count"`
}

// Describe computes Statistics over a non-empty value slice. Returns a
// zero Statistics with Count 0 for empty input.
func Describe(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	s := Statistics{
		Mean:  stat.Mean(values, nil),
		Min:   values[0],
		Max:   values[0],
		Count: len(values),
	}
	for _, v := range values[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}

	med := median(values)
	s.Median = &med

	if len(values) > 1 {
		sd := stat.StdDev(values, nil)
		s.Stdev = &sd
	} else {
		// Mean, min, max and median all collapse to the single value;
		// only stdev stays undefined.
		s.Min, s.Max = s.Mean, s.Mean
	}

	return s
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
