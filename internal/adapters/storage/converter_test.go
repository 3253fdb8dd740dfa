package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

func TestRecordModelRoundTrip(t *testing.T) {
	rec := domain.VulnerabilityRecord{
		ID:               "CVE-2021-34527",
		SourceIdentifier: "secure@microsoft.com",
		Published:        "2021-07-02T22:15:08.597",
		LastModified:     "2024-02-28T18:15:07.233",
		VulnStatus:       "Analyzed",
		Descriptions:     []domain.Description{{Lang: "en", Value: "Windows Print Spooler Remote Code Execution Vulnerability"}},
		Metrics: domain.Metrics{CvssMetricV31: []domain.CVSSMetric{{
			Source:   "nvd@nist.gov",
			CvssData: domain.CVSSData{Version: "3.1", BaseScore: 8.8, VectorString: "CVSS:3.1/AV:N/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:H"},
		}}},
		Weaknesses: []domain.Weakness{{Description: []domain.Description{{Lang: "en", Value: "CWE-269"}}}},
		References: []domain.Reference{{URL: "https://msrc.microsoft.com/update-guide/vulnerability/CVE-2021-34527"}},
	}

	got := recordToDomain(recordToModel(rec))
	assert.Equal(t, rec, got)
}

func TestVulnerabilityModel_DescriptionIsEnglish(t *testing.T) {
	av := domain.AssetVulnerability{
		AssetID: "a1",
		CVEID:   "CVE-2021-34527",
		Descriptions: []domain.Description{
			{Lang: "es", Value: "Vulnerabilidad"},
			{Lang: "en", Value: "Print Spooler"},
		},
	}

	m := vulnerabilityToModel(av)
	assert.Equal(t, "Print Spooler", m.Description)
	assert.Equal(t, av.Descriptions, vulnerabilityToDomain(m).Descriptions)
}
