package domain

// CanonicalPlatform is a known-good OS name as used by the vulnerability
// database, plus the alternative spellings that should normalize to it.
type CanonicalPlatform struct {
	Name    string   `json:"name" validate:"required"`
	Aliases []string `json:"aliases,omitempty"`
}

// Names returns the canonical name followed by its aliases.
func (p CanonicalPlatform) Names() []string {
	names := make([]string, 0, len(p.Aliases)+1)
	names = append(names, p.Name)
	return append(names, p.Aliases...)
}

// MatchCriterion is a platform-match string (usually a CPE 2.3 name) together
// with the canonical platform name it was recorded for, e.g.
// {"cpe:2.3:o:microsoft:windows_server_2019:-:*:*:*:*:*:*:*", "Windows Server 2019"}.
type MatchCriterion struct {
	Criteria  string `json:"criteria" validate:"required"`
	AssetName string `json:"assetName" validate:"required"`
}
