// Package normalizer turns decoded PM measurement documents into flat
// streams of canonical KPI samples. Vendors export the same logical
// counters under several structurally different schemas; the normalizer
// sniffs top-level markers in a fixed order and parses the first schema
// that matches, failing closed when none do.
package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	apperr "github.com/frostdev-ops/ranalyzer-go/pkg/errors"
)

// Schema markers, probed in this order.
const (
	markerMDC         = "mdc"
	markerMeasCollec  = "measCollecFile"
	markerPMContainer = "pmContainer"
)

var (
	siteFromDN  = regexp.MustCompile(`eNodeBId=(\d+)|cellName=([^,]+)|ManagedElement=([^,]+)`)
	cellFromLDN = regexp.MustCompile(`=([^,]+)`)
	timeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000", "2006-01-02 15:04:05"}
	unknownSite = "UNKNOWN"
)

// Normalizer maps vendor counter documents to canonical Samples.
type Normalizer struct {
	tables *kpi.Tables
	logger *logrus.Logger

	// now supplies the fallback timestamp for documents without usable
	// time information; injectable for tests.
	now func() time.Time
}

// New creates a Normalizer over the given static tables.
func New(tables *kpi.Tables, logger *logrus.Logger) *Normalizer {
	return &Normalizer{tables: tables, logger: logger, now: time.Now}
}

// Normalize parses a decoded measurement document into Samples.
//
// A document matching none of the known schema markers yields a
// *errors.ParseError naming the markers searched. A document that
// matches structurally but contains no usable measurements is not an
// error: it returns an empty slice so callers can tell "bad file" from
// "file with no data in range".
func (n *Normalizer) Normalize(doc *etree.Document) ([]kpi.Sample, error) {
	root := doc.Root()
	if root == nil {
		return nil, &apperr.ParseError{MarkersSearched: []string{markerMDC, markerMeasCollec, markerPMContainer}}
	}

	var samples []kpi.Sample
	switch {
	case root.Tag == markerMDC:
		samples = n.parseMDC(root)
	case root.Tag == markerMeasCollec || findFirst(root, markerMeasCollec) != nil:
		samples = n.parseMeasCollec(root)
	case len(findAll(root, markerPMContainer)) > 0:
		samples = n.parsePMContainers(root)
	default:
		return nil, &apperr.ParseError{MarkersSearched: []string{markerMDC, markerMeasCollec, markerPMContainer}}
	}

	samples = append(samples, n.deriveRates(samples)...)

	n.logger.WithFields(logrus.Fields{
		"samples": len(samples),
		"schema":  root.Tag,
	}).Debug("normalized PM document")

	return samples, nil
}

// parseMeasCollec handles the measCollecFile schema: a fileHeader with
// the collection begin time, a managedElement naming the site, and
// measInfo blocks pairing measType declarations with measValue rows.
func (n *Normalizer) parseMeasCollec(root *etree.Element) []kpi.Sample {
	fileBegin := n.now()
	if header := findFirst(root, "fileHeader"); header != nil {
		fileBegin = n.parseTimestamp(header.SelectAttrValue("beginTime", ""), fileBegin)
	}

	defaultSite := unknownSite
	if me := findFirst(root, "managedElement"); me != nil {
		if ldn := me.SelectAttrValue("localDn", ""); ldn != "" {
			defaultSite = ldn
		}
	}

	var samples []kpi.Sample
	for _, mi := range findAll(root, "measInfo") {
		samples = append(samples, n.parseMeasInfo(mi, defaultSite, func(mv *etree.Element) time.Time {
			if bt := mv.SelectAttrValue("beginTime", ""); bt != "" {
				return n.parseTimestamp(bt, fileBegin)
			}
			return fileBegin
		})...)
	}
	return samples
}

// parseMDC handles the namespaced managed-data-collection schema. The
// managedElement id carries the site and granPeriod the interval time;
// the measInfo layout matches measCollecFile.
func (n *Normalizer) parseMDC(root *etree.Element) []kpi.Sample {
	defaultSite := unknownSite
	if me := findFirst(root, "managedElement"); me != nil {
		if id := me.SelectAttrValue("id", ""); id != "" {
			defaultSite = id
		} else if label := me.SelectAttrValue("userLabel", ""); label != "" {
			defaultSite = label
		}
	}

	fileTime := n.now()
	if gp := findFirst(root, "granPeriod"); gp != nil {
		fileTime = n.parseTimestamp(gp.SelectAttrValue("endTime", ""), fileTime)
	}

	var samples []kpi.Sample
	for _, mi := range findAll(root, "measInfo") {
		samples = append(samples, n.parseMeasInfo(mi, defaultSite, func(*etree.Element) time.Time {
			return fileTime
		})...)
	}
	return samples
}

// parseMeasInfo extracts samples from one measInfo block. measType
// children declare counter positions (the p attribute); measValue rows
// carry r elements whose p attribute refers back to those positions.
func (n *Normalizer) parseMeasInfo(mi *etree.Element, defaultSite string, valueTime func(*etree.Element) time.Time) []kpi.Sample {
	measTypes := map[string]string{}
	for _, mt := range childElements(mi, "measType") {
		p := mt.SelectAttrValue("p", "")
		if p == "" {
			continue
		}
		if name := strings.TrimSpace(mt.Text()); name != "" {
			measTypes[p] = name
		} else {
			measTypes[p] = "Counter_" + p
		}
	}

	var samples []kpi.Sample
	for _, mv := range findAll(mi, "measValue") {
		ts := valueTime(mv)
		site := siteFromMeasObjLdn(mv.SelectAttrValue("measObjLdn", ""), defaultSite)

		for _, r := range findAll(mv, "r") {
			p := r.SelectAttrValue("p", "")
			value, ok := parseValue(r.Text())
			if p == "" || !ok {
				continue
			}

			var name string
			if declared, found := measTypes[p]; found {
				name = n.tables.TranslateCounterName(declared)
			} else {
				name = n.tables.TranslateCounterID(p)
			}

			samples = append(samples, kpi.Sample{
				Timestamp: ts,
				Site:      site,
				KPI:       name,
				Value:     value,
			})
		}
	}
	return samples
}

// parsePMContainers handles the flat pmContainer schema: each container
// carries a beginTime, a site in a dn attribute or localDn element, and
// measInfo blocks with a single measType per block.
func (n *Normalizer) parsePMContainers(root *etree.Element) []kpi.Sample {
	var samples []kpi.Sample

	for _, pc := range findAll(root, markerPMContainer) {
		ts := n.now()
		if bt := findFirst(pc, "beginTime"); bt != nil {
			ts = n.parseTimestamp(strings.TrimSpace(bt.Text()), ts)
		}

		site := containerSite(pc)

		for _, mi := range findAll(pc, "measInfo") {
			mt := findFirst(mi, "measType")
			if mt == nil {
				continue
			}
			counterID := mt.SelectAttrValue("p", "")
			if counterID == "" {
				counterID = strings.TrimSpace(mt.Text())
			}
			if counterID == "" {
				continue
			}
			name := n.tables.TranslateCounterID(counterID)

			for _, mv := range findAll(mi, "measValue") {
				for _, r := range findAll(mv, "r") {
					value, ok := parseValue(r.Text())
					if !ok {
						continue
					}
					samples = append(samples, kpi.Sample{
						Timestamp: ts,
						Site:      site,
						KPI:       name,
						Value:     value,
					})
				}
			}
		}
	}
	return samples
}

// containerSite extracts the site identifier from a pmContainer: first
// dn attributes anywhere below it, then a localDn element.
func containerSite(pc *etree.Element) string {
	var site string
	walk(pc, func(e *etree.Element) bool {
		if dn := e.SelectAttrValue("dn", ""); dn != "" {
			if m := siteFromDN.FindStringSubmatch(dn); m != nil {
				site = firstGroup(m)
				return false
			}
		}
		return true
	})
	if site != "" {
		return site
	}

	if ldn := findFirst(pc, "localDn"); ldn != nil {
		if m := siteFromDN.FindStringSubmatch(ldn.Text()); m != nil {
			return firstGroup(m)
		}
	}
	return unknownSite
}

func siteFromMeasObjLdn(ldn, defaultSite string) string {
	if ldn == "" {
		return defaultSite
	}
	// "EUtranCellFDD=Cell-1" -> "<site>_Cell-1"
	if m := cellFromLDN.FindStringSubmatch(ldn); m != nil {
		return defaultSite + "_" + m[1]
	}
	return ldn
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return unknownSite
}

// parseValue parses a counter value, rejecting non-numeric and
// non-finite text. Missing or malformed values are dropped, never
// defaulted to zero.
func parseValue(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (n *Normalizer) parseTimestamp(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}

	raw = strings.TrimSuffix(raw, "Z")
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
