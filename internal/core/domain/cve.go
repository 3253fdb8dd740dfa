package domain

import (
	"strings"
	"time"
)

// VulnerabilityRecord is one CVE as returned by the NVD CVE API 2.0
// (the "cve" object of each entry in "vulnerabilities"). Only the fields
// needed for scoring and snapshots are modelled.
type VulnerabilityRecord struct {
	ID               string          `json:"id"` // e.g., "CVE-2021-34527"
	SourceIdentifier string          `json:"sourceIdentifier"`
	Published        string          `json:"published"`
	LastModified     string          `json:"lastModified"`
	VulnStatus       string          `json:"vulnStatus"`
	Descriptions     []Description   `json:"descriptions"`
	Metrics          Metrics         `json:"metrics"`
	Weaknesses       []Weakness      `json:"weaknesses"`
	Configurations   []Configuration `json:"configurations"`
	References       []Reference     `json:"references"`
}

// Description is a language tagged text.
type Description struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// Metrics holds the competing CVSS scorings of a record.
type Metrics struct {
	CvssMetricV2  []CVSSMetric `json:"cvssMetricV2,omitempty"`
	CvssMetricV30 []CVSSMetric `json:"cvssMetricV30,omitempty"`
	CvssMetricV31 []CVSSMetric `json:"cvssMetricV31,omitempty"`
}

// CVSSMetric is a single scoring entry. V2 entries carry their severity next
// to cvssData, V3 entries inside it.
type CVSSMetric struct {
	Source              string   `json:"source"`
	Type                string   `json:"type"`
	CvssData            CVSSData `json:"cvssData"`
	BaseSeverity        string   `json:"baseSeverity,omitempty"`
	ExploitabilityScore float64  `json:"exploitabilityScore,omitempty"`
	ImpactScore         float64  `json:"impactScore,omitempty"`
}

// CVSSData is the union of the v2 and v3 cvssData fields we read.
type CVSSData struct {
	Version               string  `json:"version"`
	VectorString          string  `json:"vectorString"`
	BaseScore             float64 `json:"baseScore"`
	BaseSeverity          string  `json:"baseSeverity,omitempty"`
	AttackVector          string  `json:"attackVector,omitempty"` // v3
	AccessVector          string  `json:"accessVector,omitempty"` // v2
	ConfidentialityImpact string  `json:"confidentialityImpact,omitempty"`
	IntegrityImpact       string  `json:"integrityImpact,omitempty"`
	AvailabilityImpact    string  `json:"availabilityImpact,omitempty"`
}

// Weakness references one or more CWE identifiers.
type Weakness struct {
	Source      string        `json:"source"`
	Type        string        `json:"type"`
	Description []Description `json:"description"`
}

// Configuration is an applicability statement of the record.
type Configuration struct {
	Nodes []Node `json:"nodes"`
}

// Node groups CPE matches with a boolean operator.
type Node struct {
	Operator string     `json:"operator"`
	Negate   bool       `json:"negate"`
	CpeMatch []CPEMatch `json:"cpeMatch"`
}

// CPEMatch is a single platform match of a configuration node.
type CPEMatch struct {
	Vulnerable            bool   `json:"vulnerable"`
	Criteria              string `json:"criteria"`
	MatchCriteriaID       string `json:"matchCriteriaId"`
	VersionStartIncluding string `json:"versionStartIncluding,omitempty"`
	VersionEndExcluding   string `json:"versionEndExcluding,omitempty"`
	VersionEndIncluding   string `json:"versionEndIncluding,omitempty"`
}

// Reference is an advisory, patch or report link.
type Reference struct {
	URL    string   `json:"url"`
	Source string   `json:"source"`
	Tags   []string `json:"tags,omitempty"`
}

// nvdTimeLayouts are the timestamp formats seen in NVD payloads.
var nvdTimeLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseNVDTime parses an NVD timestamp. NVD timestamps carry no zone and are UTC.
func ParseNVDTime(s string) (time.Time, bool) {
	for _, layout := range nvdTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// EnglishDescription returns the first english description, or the first one at all.
func (r VulnerabilityRecord) EnglishDescription() string {
	for _, d := range r.Descriptions {
		if d.Lang == "en" {
			return d.Value
		}
	}
	if len(r.Descriptions) > 0 {
		return r.Descriptions[0].Value
	}
	return ""
}

// CWEs returns the distinct CWE identifiers referenced by the record.
func (r VulnerabilityRecord) CWEs() []string {
	seen := make(map[string]bool)
	var cwes []string
	for _, w := range r.Weaknesses {
		for _, d := range w.Description {
			if !strings.HasPrefix(d.Value, "CWE-") && !strings.HasPrefix(d.Value, "NVD-CWE-") {
				continue
			}
			if !seen[d.Value] {
				seen[d.Value] = true
				cwes = append(cwes, d.Value)
			}
		}
	}
	return cwes
}

// ConfigurationMatches flattens every cpeMatch of every configuration node.
func (r VulnerabilityRecord) ConfigurationMatches() []ConfigurationMatch {
	var matches []ConfigurationMatch
	for _, c := range r.Configurations {
		for _, n := range c.Nodes {
			for _, m := range n.CpeMatch {
				id := m.MatchCriteriaID
				if id == "" {
					id = "No Match ID"
				}
				matches = append(matches, ConfigurationMatch{
					Criteria:        m.Criteria,
					MatchCriteriaID: id,
				})
			}
		}
	}
	return matches
}
