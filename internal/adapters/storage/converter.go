package storage

import (
	"time"

	"gorm.io/datatypes"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

const nvdTimeLayout = "2006-01-02T15:04:05.000"

func assetToModel(a domain.Asset) AssetModel {
	return AssetModel{
		ID:              a.ID,
		DeviceName:      a.DeviceName,
		ApplicationName: a.ApplicationName,
		OperatingSystem: a.OperatingSystem,
		OSVersion:       a.OSVersion,
		Contact:         a.Contact,
		CreatedAt:       a.CreatedAt,
	}
}

func assetToDomain(m AssetModel) domain.Asset {
	return domain.Asset{
		ID:              m.ID,
		DeviceName:      m.DeviceName,
		ApplicationName: m.ApplicationName,
		OperatingSystem: m.OperatingSystem,
		OSVersion:       m.OSVersion,
		Contact:         m.Contact,
		CreatedAt:       m.CreatedAt,
	}
}

func platformToDomain(m PlatformModel) domain.CanonicalPlatform {
	return domain.CanonicalPlatform{
		Name:    m.Name,
		Aliases: []string(m.Aliases),
	}
}

func criterionToDomain(m CriterionModel) domain.MatchCriterion {
	return domain.MatchCriterion{Criteria: m.Criteria, AssetName: m.AssetName}
}

func criteriaToDomain(models []CriterionModel) []domain.MatchCriterion {
	out := make([]domain.MatchCriterion, len(models))
	for i, m := range models {
		out[i] = criterionToDomain(m)
	}
	return out
}

func recordToModel(r domain.VulnerabilityRecord) CVEModel {
	m := CVEModel{
		ID:               r.ID,
		SourceIdentifier: r.SourceIdentifier,
		VulnStatus:       r.VulnStatus,
		Descriptions:     datatypes.JSONSlice[domain.Description](r.Descriptions),
		Metrics:          datatypes.NewJSONType(r.Metrics),
		Weaknesses:       datatypes.JSONSlice[domain.Weakness](r.Weaknesses),
		Configurations:   datatypes.JSONSlice[domain.Configuration](r.Configurations),
		References:       datatypes.JSONSlice[domain.Reference](r.References),
	}
	if t, ok := domain.ParseNVDTime(r.Published); ok {
		m.Published = t
	}
	if t, ok := domain.ParseNVDTime(r.LastModified); ok {
		m.LastModified = t
	}
	return m
}

func recordToDomain(m CVEModel) domain.VulnerabilityRecord {
	return domain.VulnerabilityRecord{
		ID:               m.ID,
		SourceIdentifier: m.SourceIdentifier,
		Published:        formatNVDTime(m.Published),
		LastModified:     formatNVDTime(m.LastModified),
		VulnStatus:       m.VulnStatus,
		Descriptions:     []domain.Description(m.Descriptions),
		Metrics:          m.Metrics.Data(),
		Weaknesses:       []domain.Weakness(m.Weaknesses),
		Configurations:   []domain.Configuration(m.Configurations),
		References:       []domain.Reference(m.References),
	}
}

func formatNVDTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(nvdTimeLayout)
}

func vulnerabilityToModel(av domain.AssetVulnerability) AssetVulnerabilityModel {
	description := ""
	for _, d := range av.Descriptions {
		if d.Lang == "en" {
			description = d.Value
			break
		}
	}
	return AssetVulnerabilityModel{
		AssetID:         av.AssetID,
		CVEID:           av.CVEID,
		DeviceName:      av.DeviceName,
		ApplicationName: av.ApplicationName,
		OperatingSystem: av.OperatingSystem,
		OSVersion:       av.OSVersion,
		Published:       av.Published,
		LastModified:    av.LastModified,
		VulnStatus:      av.VulnStatus,
		Description:     description,
		Descriptions:    datatypes.JSONSlice[domain.Description](av.Descriptions),
		Configurations:  datatypes.JSONSlice[domain.ConfigurationMatch](av.Configurations),
		Weaknesses:      datatypes.JSONSlice[domain.Weakness](av.Weaknesses),
		RiskLevel:       string(av.RiskLevel),
		CVSSVersion:     av.CVSSVersion,
		CVSSScore:       av.CVSSScore,
		AttackVector:    av.AttackVector,
		CPENamesUsed:    datatypes.JSONSlice[string](av.CPENamesUsed),
		CreatedAt:       av.CreatedAt,
	}
}

func vulnerabilityToDomain(m AssetVulnerabilityModel) domain.AssetVulnerability {
	return domain.AssetVulnerability{
		AssetID:         m.AssetID,
		DeviceName:      m.DeviceName,
		ApplicationName: m.ApplicationName,
		OperatingSystem: m.OperatingSystem,
		OSVersion:       m.OSVersion,
		CVEID:           m.CVEID,
		Published:       m.Published,
		LastModified:    m.LastModified,
		VulnStatus:      m.VulnStatus,
		Descriptions:    []domain.Description(m.Descriptions),
		Configurations:  []domain.ConfigurationMatch(m.Configurations),
		Weaknesses:      []domain.Weakness(m.Weaknesses),
		RiskLevel:       domain.RiskLevel(m.RiskLevel),
		CVSSVersion:     m.CVSSVersion,
		CVSSScore:       m.CVSSScore,
		AttackVector:    m.AttackVector,
		CPENamesUsed:    []string(m.CPENamesUsed),
		CreatedAt:       m.CreatedAt,
	}
}

func vulnerabilitiesToDomain(models []AssetVulnerabilityModel) []domain.AssetVulnerability {
	out := make([]domain.AssetVulnerability, len(models))
	for i, m := range models {
		out[i] = vulnerabilityToDomain(m)
	}
	return out
}

func notificationToModel(e domain.NotificationEvent) NotificationModel {
	return NotificationModel{
		ID:        e.ID,
		Type:      e.Type,
		Message:   e.Message,
		AssetID:   e.AssetID,
		CVEID:     e.CVEID,
		CreatedAt: e.CreatedAt,
	}
}

func notificationToDomain(m NotificationModel) domain.NotificationEvent {
	return domain.NotificationEvent{
		ID:        m.ID,
		Type:      m.Type,
		Message:   m.Message,
		AssetID:   m.AssetID,
		CVEID:     m.CVEID,
		CreatedAt: m.CreatedAt,
	}
}
