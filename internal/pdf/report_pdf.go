package pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"taskhub/internal/models"
)

// Generator renders daily-report bundles to PDF. Interface so services can
// mock it in tests.
type Generator interface {
	GenerateDailyReports(day string, workspaceName string, reports []ReportEntry) (string, error)
}

// ReportEntry pairs a report with the author's display name; the service
// resolves names so this package stays presentation-only.
type ReportEntry struct {
	AuthorName string
	Report     models.DailyReport
}

type ReportGenerator struct {
	RootDir  string // output root, e.g. "./files"
	FontPath string // TTF path, e.g. "assets/fonts/DejaVuSans.ttf"
	fontName string
}

func NewReportGenerator(rootDir, fontPath string) *ReportGenerator {
	return &ReportGenerator{
		RootDir:  filepath.Clean(rootDir),
		FontPath: fontPath,
		fontName: "DejaVu",
	}
}

func (g *ReportGenerator) GenerateDailyReports(day string, workspaceName string, reports []ReportEntry) (string, error) {
	absPath, err := g.ensureTarget(fmt.Sprintf("daily_reports_%s.pdf", day))
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Daily reports %s", day), false)
	pdf.SetAuthor("Taskhub", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "DAILY REPORTS", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 12)
	sub := fmt.Sprintf("%s  —  %s", workspaceName, day)
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)
	pdf.Ln(3)

	if len(reports) == 0 {
		pdf.SetFont(g.fontName, "", 11)
		pdf.MultiCell(0, 6, "No reports were submitted for this day.", "", "L", false)
	}

	for _, entry := range reports {
		g.sectionTitle(pdf, entry.AuthorName)
		g.kvLine(pdf, "Submitted", entry.Report.CreatedAt.Format("2006-01-02 15:04"))
		pdf.Ln(1)
		pdf.SetFont(g.fontName, "", 11)
		pdf.MultiCell(0, 6, entry.Report.Content, "", "L", false)
		pdf.Ln(2)
		g.hr(pdf)
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Page %d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

// ===== helpers =====

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename)
	return filepath.Join(g.RootDir, filename), nil
}

func (g *ReportGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
