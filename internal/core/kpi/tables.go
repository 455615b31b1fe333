package kpi

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Comparison selects which side of a bound a KPI must stay on.
type Comparison string

const (
	CompareMin Comparison = "min"
	CompareMax Comparison = "max"
)

// Threshold is one row of the KPI threshold table.
type Threshold struct {
	KPI        string     `yaml:"kpi"`
	Comparison Comparison `yaml:"comparison"`
	Bound      float64    `yaml:"bound"`
	Unit       string     `yaml:"unit"`
}

// RatePair describes a derived success-rate KPI computed from paired
// attempt/success counters at the same (site, timestamp).
type RatePair struct {
	Rate     string `yaml:"rate"`
	Attempts string `yaml:"attempts"`
	Success  string `yaml:"success"`
}

// Tables bundles the static configuration consumed by the normalizer
// and classifier: vendor counter translations, derived-rate pairs and
// the threshold table. Changing these changes behavior deterministically.
type Tables struct {
	// CounterIDs maps numeric counter identifiers (the measType p
	// attribute) to canonical KPI names.
	CounterIDs map[string]string `yaml:"counter_ids"`
	// CounterNames maps vendor counter names (pmRrcConnEstabAtt, ...)
	// to canonical KPI names.
	CounterNames map[string]string `yaml:"counter_names"`
	RatePairs    []RatePair        `yaml:"rate_pairs"`
	Thresholds   []Threshold       `yaml:"thresholds"`
}

// DefaultTables returns the built-in LTE B41 tables.
func DefaultTables() *Tables {
	return &Tables{
		CounterIDs: map[string]string{
			"1":  RRCSetupSuccessRate,
			"2":  ERABSetupSuccessRate,
			"3":  PRBUtilizationAvg,
			"4":  PRBUtilizationP95,
			"5":  SINRAvg,
			"6":  SINRP10,
			"7":  BLERP95,
			"8":  PagingSuccessRate,
			"9":  S1SetupFailureRate,
			"10": RRCConnections,
			"11": ERABConnections,
			"12": DownlinkThroughput,
			"13": UplinkThroughput,
			"14": HandoverSuccessRate,
			"15": CellAvailability,
		},
		CounterNames: map[string]string{
			"pmRrcConnEstabAtt":  RRCSetupAttempts,
			"pmRrcConnEstabSucc": RRCSetupSuccess,
			"pmRrcConnEstab":     RRCSetupSuccessRate,
			"pmErabEstabAtt":     ERABSetupAttempts,
			"pmErabEstabSucc":    ERABSetupSuccess,
			"pmErabEstab":        ERABSetupSuccessRate,
			"pmPdcpVolDlDrb":     DownlinkThroughput,
			"pmPrbUsedDlAvg":     PRBUtilizationAvg,
			"pmPrbUsedDl":        PRBUtilizationAvg,
			"pmSinrAvg":          SINRAvg,
			"pmSinrP10":          SINRP10,
			"pmBlerP95":          BLERP95,
			"pmPagingSucc":       PagingSuccessRate,
			"pmS1EstabFail":      S1SetupFailureRate,
			"pmCellAvail":        CellAvailability,
		},
		RatePairs: []RatePair{
			{Rate: RRCSetupSuccessRate, Attempts: RRCSetupAttempts, Success: RRCSetupSuccess},
			{Rate: ERABSetupSuccessRate, Attempts: ERABSetupAttempts, Success: ERABSetupSuccess},
		},
		Thresholds: []Threshold{
			{KPI: RRCSetupSuccessRate, Comparison: CompareMin, Bound: 95.0, Unit: "%"},
			{KPI: ERABSetupSuccessRate, Comparison: CompareMin, Bound: 98.0, Unit: "%"},
			{KPI: PRBUtilizationAvg, Comparison: CompareMax, Bound: 70.0, Unit: "%"},
			{KPI: PRBUtilizationP95, Comparison: CompareMax, Bound: 85.0, Unit: "%"},
			{KPI: SINRAvg, Comparison: CompareMin, Bound: 5.0, Unit: "dB"},
			{KPI: SINRP10, Comparison: CompareMin, Bound: 0.0, Unit: "dB"},
			{KPI: BLERP95, Comparison: CompareMax, Bound: 10.0, Unit: "%"},
			{KPI: PagingSuccessRate, Comparison: CompareMin, Bound: 95.0, Unit: "%"},
			{KPI: S1SetupFailureRate, Comparison: CompareMax, Bound: 1.0, Unit: "%"},
			{KPI: CellAvailability, Comparison: CompareMin, Bound: 99.0, Unit: "%"},
		},
	}
}

// LoadTables reads table overrides from a YAML file. Sections left empty
// in the file keep their built-in defaults.
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}

	if len(override.CounterIDs) > 0 {
		tables.CounterIDs = override.CounterIDs
	}
	if len(override.CounterNames) > 0 {
		tables.CounterNames = override.CounterNames
	}
	if len(override.RatePairs) > 0 {
		tables.RatePairs = override.RatePairs
	}
	if len(override.Thresholds) > 0 {
		tables.Thresholds = override.Thresholds
	}

	return tables, nil
}

// TranslateCounterName maps a vendor counter name to its canonical KPI
// name. Unrecognized counters keep their raw name so future rules can
// still reference them; they simply don't participate in threshold
// evaluation until added to the threshold table.
func (t *Tables) TranslateCounterName(name string) string {
	if mapped, ok := t.CounterNames[name]; ok {
		return mapped
	}
	return name
}

// TranslateCounterID maps a numeric counter identifier to its canonical
// KPI name, falling back to a raw Counter_<id> name.
func (t *Tables) TranslateCounterID(id string) string {
	if mapped, ok := t.CounterIDs[id]; ok {
		return mapped
	}
	return "Counter_" + id
}
