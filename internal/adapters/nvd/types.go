package nvd

import "github.com/lcalzada-xor/assetvuln/internal/core/domain"

// response is the CVE API 2.0 envelope.
type response struct {
	ResultsPerPage  int       `json:"resultsPerPage"`
	StartIndex      int       `json:"startIndex"`
	TotalResults    int       `json:"totalResults"`
	Format          string    `json:"format"`
	Version         string    `json:"version"`
	Timestamp       string    `json:"timestamp"`
	Vulnerabilities []wrapper `json:"vulnerabilities"`
}

type wrapper struct {
	Cve domain.VulnerabilityRecord `json:"cve"`
}

func (r response) records() []domain.VulnerabilityRecord {
	records := make([]domain.VulnerabilityRecord, 0, len(r.Vulnerabilities))
	for _, v := range r.Vulnerabilities {
		if v.Cve.ID == "" {
			continue
		}
		records = append(records, v.Cve)
	}
	return records
}
