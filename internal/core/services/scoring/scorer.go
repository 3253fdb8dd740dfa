package scoring

import (
	"log/slog"

	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// Scorer implements ports.Scorer. It is stateless.
type Scorer struct{}

var _ ports.Scorer = Scorer{}

func NewScorer() Scorer {
	return Scorer{}
}

// Score picks the newest CVSS standard present on the record (3.1, then 3.0,
// then 2.0) and returns the base score of its first entry.
func (Scorer) Score(record domain.VulnerabilityRecord) (float64, string, bool) {
	m, version, ok := preferredMetric(record.Metrics)
	if !ok {
		return 0, "", false
	}

	score := m.CvssData.BaseScore
	if score == 0 && m.CvssData.VectorString != "" {
		// Some older entries only carry the vector.
		if s, err := baseScoreFromVector(version, m.CvssData.VectorString); err == nil {
			score = s
		} else {
			slog.Warn("Error parsing CVSS vector", "cve", record.ID, "vector", m.CvssData.VectorString, "error", err)
		}
	}
	return score, version, true
}

// RiskLevel maps a score to its tier. v2 has no None or Critical tier.
func (Scorer) RiskLevel(score float64, version string, ok bool) domain.RiskLevel {
	if !ok {
		return domain.RiskUnknown
	}
	switch version {
	case domain.CVSSv31, domain.CVSSv30:
		switch {
		case score <= 0:
			return domain.RiskNone
		case score < 4.0:
			return domain.RiskLow
		case score < 7.0:
			return domain.RiskMedium
		case score < 9.0:
			return domain.RiskHigh
		default:
			return domain.RiskCritical
		}
	case domain.CVSSv20:
		switch {
		case score < 4.0:
			return domain.RiskLow
		case score < 7.0:
			return domain.RiskMedium
		default:
			return domain.RiskHigh
		}
	}
	return domain.RiskUnknown
}

// AttackVector returns the attack (v3) or access (v2) vector of the
// preferred metric in NVD spelling, e.g. "NETWORK". Empty if unknown.
func (Scorer) AttackVector(record domain.VulnerabilityRecord) string {
	m, version, ok := preferredMetric(record.Metrics)
	if !ok {
		return ""
	}
	if m.CvssData.AttackVector != "" {
		return m.CvssData.AttackVector
	}
	if m.CvssData.AccessVector != "" {
		return m.CvssData.AccessVector
	}
	if m.CvssData.VectorString == "" {
		return ""
	}

	av, err := attackVectorFromVector(version, m.CvssData.VectorString)
	if err != nil {
		slog.Debug("No attack vector in CVSS vector", "cve", record.ID, "error", err)
		return ""
	}
	return attackVectorNames[av]
}

var attackVectorNames = map[string]string{
	"N": "NETWORK",
	"A": "ADJACENT_NETWORK",
	"L": "LOCAL",
	"P": "PHYSICAL",
}

func preferredMetric(m domain.Metrics) (domain.CVSSMetric, string, bool) {
	switch {
	case len(m.CvssMetricV31) > 0:
		return m.CvssMetricV31[0], domain.CVSSv31, true
	case len(m.CvssMetricV30) > 0:
		return m.CvssMetricV30[0], domain.CVSSv30, true
	case len(m.CvssMetricV2) > 0:
		return m.CvssMetricV2[0], domain.CVSSv20, true
	}
	return domain.CVSSMetric{}, "", false
}

func baseScoreFromVector(version, vector string) (float64, error) {
	switch version {
	case domain.CVSSv31:
		cvss, err := gocvss31.ParseVector(vector)
		if err != nil {
			return 0, err
		}
		return cvss.BaseScore(), nil
	case domain.CVSSv30:
		cvss, err := gocvss30.ParseVector(vector)
		if err != nil {
			return 0, err
		}
		return cvss.BaseScore(), nil
	default:
		cvss, err := gocvss20.ParseVector(vector)
		if err != nil {
			return 0, err
		}
		return cvss.BaseScore(), nil
	}
}

func attackVectorFromVector(version, vector string) (string, error) {
	switch version {
	case domain.CVSSv31:
		cvss, err := gocvss31.ParseVector(vector)
		if err != nil {
			return "", err
		}
		return cvss.Get("AV")
	case domain.CVSSv30:
		cvss, err := gocvss30.ParseVector(vector)
		if err != nil {
			return "", err
		}
		return cvss.Get("AV")
	default:
		cvss, err := gocvss20.ParseVector(vector)
		if err != nil {
			return "", err
		}
		return cvss.Get("AV")
	}
}
