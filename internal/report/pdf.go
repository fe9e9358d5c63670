package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	inchToMm              = 25.4
	pdfPageWidthPortrait  = 8.5 * inchToMm // Letter
	pdfPageHeightPortrait = 11 * inchToMm
	pdfMargin             = 0.5 * inchToMm
	pdfContentWidth       = pdfPageWidthPortrait - (2 * pdfMargin)
)

// pdfStyler holds reusable styling and flowing-content state for PDF
// generation.
type pdfStyler struct {
	pdf        *gofpdf.Fpdf
	styles     map[string]func()
	lineHeight float64
	currentY   float64
	pageBottom float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:        pdf,
		styles:     make(map[string]func()),
		lineHeight: 6, // mm
		pageBottom: pdfPageHeightPortrait - pdfMargin,
		currentY:   pdfMargin,
	}
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 13)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["caption"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(80, 80, 80)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
}

func (s *pdfStyler) applyStyle(name string) {
	if fn, ok := s.styles[name]; ok {
		fn()
		return
	}
	s.styles["normal"]()
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageBottom {
		s.pdf.AddPage()
		s.currentY = pdfMargin
	}
}

func (s *pdfStyler) writeParagraph(text, style, align string) {
	s.applyStyle(style)
	s.checkAddPage(s.lineHeight)
	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.currentY += height
	if s.currentY > s.pageBottom {
		s.pdf.AddPage()
		s.currentY = pdfMargin
	}
}

func (s *pdfStyler) addTable(headers []string, widthsRel []float64, rows [][]string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	s.checkAddPage(s.lineHeight * 2)
	x := pdfMargin
	s.applyStyle("tableHeader")
	for i, header := range headers {
		s.pdf.SetXY(x, s.currentY)
		s.pdf.CellFormat(widths[i], s.lineHeight, header, "1", 0, "C", true, 0, "")
		x += widths[i]
	}
	s.currentY += s.lineHeight

	s.applyStyle("tableCell")
	for _, row := range rows {
		s.checkAddPage(s.lineHeight)
		x = pdfMargin
		for i, cell := range row {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, cell, "1", 0, "C", false, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

func (s *pdfStyler) addImage(name string, png []byte, caption string) {
	s.pdf.RegisterImageOptionsReader(
		name,
		gofpdf.ImageOptions{ImageType: "PNG"},
		bytes.NewReader(png),
	)
	width := pdfContentWidth
	height := width / 2 // plots are rendered 2:1

	s.checkAddPage(height + s.lineHeight + 2)
	s.pdf.ImageOptions(
		name, pdfMargin, s.currentY, width, height, false,
		gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	s.currentY += height + 1
	if caption != "" {
		s.writeParagraph(caption, "caption", "C")
	}
	s.addSpacer(2)
}

// BuildPDF writes the cleanup report as a PDF: run summary, per-feature
// statistics table and the rendered plots.
func BuildPDF(path string, r *Report, plots []Plot) error {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph("RFI Cleanup Report", "h1", "C")
	styler.writeParagraph(r.Filename, "normal", "C")
	styler.addSpacer(4)

	pm := r.ProfileMasking
	mask := pm.Mask
	styler.writeParagraph("Profile masking", "h2", "L")
	styler.writeParagraph(fmt.Sprintf(
		"Tukey multiplier q = %g. Profiles masked: %d / %d (%.1f%%).",
		pm.Q, mask.CountTrue(), mask.Size(),
		100*r.MaskedProfileFraction()), "normal", "L")
	styler.writeParagraph(
		"Zapped channels: "+formatChannelList(pm.ZapChannels),
		"normal", "L")
	styler.addSpacer(2)

	headers := []string{"Feature", "Q1", "Median", "Q3", "vmin", "vmax"}
	widths := []float64{0.3, 0.14, 0.14, 0.14, 0.14, 0.14}
	var rows [][]string
	for _, name := range sortedFeatureNames(pm) {
		stats := pm.FeatureStats[name]
		rows = append(rows, []string{
			DisplayName(name),
			formatValue(stats.Q1),
			formatValue(stats.Med),
			formatValue(stats.Q3),
			formatValue(stats.VMin(pm.Q)),
			formatValue(stats.VMax(pm.Q)),
		})
	}
	styler.addTable(headers, widths, rows)
	styler.addSpacer(4)

	if sf := r.SpikeFinding; sf != nil {
		styler.writeParagraph("Time-phase spike finding", "h2", "L")
		styler.writeParagraph(fmt.Sprintf(
			"Tukey multiplier q = %g. Time-phase bins flagged: %d / %d (%.1f%%).",
			sf.Q, sf.Mask.CountTrue(), sf.Mask.Size(),
			100*r.BadBinFraction()), "normal", "L")
		styler.addSpacer(4)
	}

	for _, pl := range plots {
		styler.addImage(pl.Name, pl.PNG, pl.Caption)
	}

	return pdf.OutputFileAndClose(path)
}

func formatChannelList(channels []int) string {
	if len(channels) == 0 {
		return "none"
	}
	parts := make([]string, len(channels))
	for i, ichan := range channels {
		parts[i] = strconv.Itoa(ichan)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
