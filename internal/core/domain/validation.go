package domain

import (
	"regexp"
)

// Validation Helpers

var (
	cveIDRegex = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)
	cpeRegex   = regexp.MustCompile(`^cpe:2\.3:[aho\*]:[^:]+:[^:]+(:[^:]*){8}$`)
)

// IsValidCVEID checks if the string looks like "CVE-YYYY-NNNN..."
func IsValidCVEID(id string) bool {
	return cveIDRegex.MatchString(id)
}

// IsValidCPE checks if the string is a well formed CPE 2.3 formatted name
func IsValidCPE(cpe string) bool {
	return cpeRegex.MatchString(cpe)
}
