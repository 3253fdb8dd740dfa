package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
)

// PDFExporter exports reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

var tierOrder = []domain.RiskLevel{
	domain.RiskCritical,
	domain.RiskHigh,
	domain.RiskMedium,
	domain.RiskLow,
	domain.RiskNone,
	domain.RiskUnknown,
}

// ExportVulnerabilityReport renders the report as a PDF document.
func (e *PDFExporter) ExportVulnerabilityReport(report domain.VulnerabilityReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addRiskTotals(pdf, report)
	e.addOSBreakdown(pdf, report)
	e.addTopVulnerabilities(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report domain.VulnerabilityReport) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 14, report.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04 MST")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Assets: %d (%d with known vulnerabilities)", report.AssetCount, report.VulnerableAssets), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Asset vulnerabilities: %d", report.Total()), "", 1, "L", false, 0, "")
	pdf.Ln(6)
}

// addRiskTotals draws one coloured box per risk tier.
func (e *PDFExporter) addRiskTotals(pdf *gofpdf.Fpdf, report domain.VulnerabilityReport) {
	e.sectionTitle(pdf, "Risk Distribution")

	const boxW, boxH, gap = 27.0, 22.0, 2.0
	x, y := 15.0, pdf.GetY()
	for _, tier := range tierOrder {
		r, g, b := riskColor(tier)
		pdf.SetFillColor(r, g, b)
		pdf.Rect(x, y, boxW, boxH, "F")

		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Arial", "B", 16)
		pdf.SetXY(x, y+3)
		pdf.CellFormat(boxW, 9, fmt.Sprintf("%d", report.Count(tier)), "", 0, "C", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		pdf.SetXY(x, y+13)
		pdf.CellFormat(boxW, 6, string(tier), "", 0, "C", false, 0, "")

		x += boxW + gap
	}
	pdf.SetY(y + boxH + 8)
}

func (e *PDFExporter) addOSBreakdown(pdf *gofpdf.Fpdf, report domain.VulnerabilityReport) {
	e.sectionTitle(pdf, "By Operating System")
	if len(report.ByOS) == 0 {
		e.emptyNote(pdf, "No vulnerabilities recorded")
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(120, 8, "Operating System", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Vulnerabilities", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, row := range report.ByOS {
		pdf.CellFormat(120, 7, truncate(row.OperatingSystem, 70), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", row.Count), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addTopVulnerabilities(pdf *gofpdf.Fpdf, report domain.VulnerabilityReport) {
	e.sectionTitle(pdf, "Top Vulnerabilities")
	if len(report.Top) == 0 {
		e.emptyNote(pdf, "No vulnerabilities recorded")
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(38, 8, "CVE", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Asset", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(22, 8, "Risk", "1", 0, "C", true, 0, "")
	pdf.CellFormat(65, 8, "Description", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, v := range report.Top {
		score := "-"
		if v.CVSSScore != nil {
			score = fmt.Sprintf("%.1f", *v.CVSSScore)
		}
		r, g, b := riskColor(v.RiskLevel)

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(38, 7, v.CVEID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, truncate(v.DeviceName, 20), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, score, "1", 0, "C", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(22, 7, string(v.RiskLevel), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(65, 7, truncate(englishDescription(v), 42), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report domain.VulnerabilityReport) {
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetY(-20)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(3)

	id := report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by assetvuln | Report ID: %s", id), "", 1, "C", false, 0, "")
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (e *PDFExporter) emptyNote(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

// riskColor returns the RGB color of a risk tier
func riskColor(level domain.RiskLevel) (r, g, b int) {
	switch level {
	case domain.RiskCritical:
		return 220, 53, 69 // Red
	case domain.RiskHigh:
		return 255, 149, 0 // Orange
	case domain.RiskMedium:
		return 230, 184, 0 // Yellow
	case domain.RiskLow:
		return 52, 199, 89 // Green
	case domain.RiskNone:
		return 0, 102, 204 // Blue
	default:
		return 150, 150, 150 // Gray
	}
}

func englishDescription(v domain.AssetVulnerability) string {
	for _, d := range v.Descriptions {
		if d.Lang == "en" {
			return d.Value
		}
	}
	return ""
}

// truncate shortens s to max runes. gofpdf core fonts are latin-1 only, so
// longer strings would also risk garbled glyphs.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
