package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// NotificationLister returns stored notifications, newest first.
type NotificationLister interface {
	ListNotifications(ctx context.Context, limit int) ([]domain.NotificationEvent, error)
}

// RecordReader returns the raw vulnerability record of a CVE.
type RecordReader interface {
	GetRecord(ctx context.Context, cveID string) (domain.VulnerabilityRecord, error)
}

// VulnerabilityHandler serves the reporting reads.
type VulnerabilityHandler struct {
	Reader        ports.VulnerabilityReader
	Records       RecordReader
	Notifications NotificationLister
}

// NewVulnerabilityHandler creates a new VulnerabilityHandler
func NewVulnerabilityHandler(reader ports.VulnerabilityReader, records RecordReader, notifications NotificationLister) *VulnerabilityHandler {
	return &VulnerabilityHandler{Reader: reader, Records: records, Notifications: notifications}
}

// vulnerabilityDetail is a mapped vulnerability with the metrics and
// references of its raw record.
type vulnerabilityDetail struct {
	domain.AssetVulnerability
	Metrics    *domain.Metrics    `json:"metrics,omitempty"`
	References []domain.Reference `json:"references"`
}

type vulnerabilityList struct {
	Items      []domain.AssetVulnerability `json:"mappedVulnerabilities"`
	TotalCount int64                       `json:"totalCount"`
	Page       int                         `json:"page"`
	Limit      int                         `json:"limit"`
}

// HandleList returns one page of asset vulnerabilities.
func (h *VulnerabilityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, ok := queryInt(r, "page", domain.DefaultPage)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidPage.Error())
		return
	}
	limit, ok := queryInt(r, "limit", domain.DefaultLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidLimit.Error())
		return
	}

	filter := domain.NewVulnerabilityFilter().
		WithOS(q.Get("operating_system"), q.Get("os_version")).
		WithKeyword(q.Get("keyword")).
		WithRiskLevel(domain.RiskLevel(q.Get("riskLevel"))).
		WithPage(page, limit)
	if err := filter.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Reader.ListVulnerabilities(r.Context(), *filter)
	if err != nil {
		slog.Error("failed to list vulnerabilities", "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching data")
		return
	}
	items := result.Items
	if items == nil {
		items = []domain.AssetVulnerability{}
	}
	writeJSON(w, http.StatusOK, vulnerabilityList{Items: items, TotalCount: result.TotalCount, Page: result.Page, Limit: result.Limit})
}

// HandleGet returns the stored vulnerability of a CVE id.
func (h *VulnerabilityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !domain.IsValidCVEID(id) {
		writeError(w, http.StatusBadRequest, "Invalid CVE id")
		return
	}

	v, err := h.Reader.GetVulnerability(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Vulnerability not found")
		return
	}
	if err != nil {
		slog.Error("failed to fetch vulnerability", "cve", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching vulnerability")
		return
	}

	detail := vulnerabilityDetail{AssetVulnerability: v, References: []domain.Reference{}}
	if h.Records != nil {
		rec, err := h.Records.GetRecord(r.Context(), id)
		switch {
		case err == nil:
			detail.Metrics = &rec.Metrics
			if rec.References != nil {
				detail.References = rec.References
			}
		case !errors.Is(err, domain.ErrNotFound):
			slog.Error("failed to fetch vulnerability record", "cve", id, "err", err)
			writeError(w, http.StatusInternalServerError, "Error fetching vulnerability")
			return
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleNotifications returns the latest notifications.
func (h *VulnerabilityHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", domain.DefaultLimit)
	if !ok || limit > domain.MaxLimit {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidLimit.Error())
		return
	}
	events, err := h.Notifications.ListNotifications(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list notifications", "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching notifications")
		return
	}
	if events == nil {
		events = []domain.NotificationEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleSummary serves the aggregate named by the {kind} route variable.
func (h *VulnerabilityHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		data any
		err  error
	)
	switch kind := mux.Vars(r)["kind"]; kind {
	case "risk":
		data, err = h.Reader.RiskSummary(ctx)
	case "os":
		data, err = h.Reader.OSSummary(ctx)
	case "cwe":
		data, err = h.Reader.CWEBreakdown(ctx)
	case "years":
		data, err = h.Reader.VulnerabilitiesPerYear(ctx)
	default:
		writeError(w, http.StatusNotFound, "Unknown summary "+kind)
		return
	}
	if err != nil {
		slog.Error("failed to build summary", "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching summary")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// HandleAssetsWithStatus lists assets flagged with whether they are vulnerable.
func (h *VulnerabilityHandler) HandleAssetsWithStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Reader.AssetsWithStatus(r.Context())
	if err != nil {
		slog.Error("failed to list asset statuses", "err", err)
		writeError(w, http.StatusInternalServerError, "Error fetching assets")
		return
	}
	if statuses == nil {
		statuses = []domain.AssetStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}
