package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// ReportGenerator builds a report of the current store.
type ReportGenerator interface {
	Generate(ctx context.Context) (domain.VulnerabilityReport, error)
}

// ReportExporter renders a report as PDF.
type ReportExporter interface {
	ExportVulnerabilityReport(report domain.VulnerabilityReport) ([]byte, error)
}

// ReportHandler handles report generation
type ReportHandler struct {
	Generator ReportGenerator
	Exporter  ReportExporter
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(generator ReportGenerator, exporter ReportExporter) *ReportHandler {
	return &ReportHandler{Generator: generator, Exporter: exporter}
}

// HandlePDF streams the vulnerability report as a PDF download.
func (h *ReportHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	report, err := h.Generator.Generate(r.Context())
	if err != nil {
		slog.Error("failed to generate report", "err", err)
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}
	data, err := h.Exporter.ExportVulnerabilityReport(report)
	if err != nil {
		slog.Error("failed to export report", "err", err)
		http.Error(w, "Failed to export report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=vulnerability-report-%s.pdf", report.GeneratedAt.Format("20060102-150405")))
	w.Write(data)
}
