package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"
)

// DocumentMeta is the header information of a rendered report document.
type DocumentMeta struct {
	Title string
	From  time.Time
	To    time.Time
	// CategoryNames describes an active category filter. Leave empty when
	// all categories are selected.
	CategoryNames []string
}

// PDFOptions carries the TTF fonts the document is set in. gopdf embeds
// fonts into the document, so the caller supplies the bytes, typically
// read from configured font paths.
type PDFOptions struct {
	FontRegular []byte
	FontBold    []byte
}

const (
	pageWidth  = 595.0 // A4 portrait, points
	pageHeight = 842.0
	marginX    = 40.0
	rightEdge  = pageWidth - marginX
	rowHeight  = 16.0
	breakY     = pageHeight - 60.0

	fontRegular = "regular"
	fontBold    = "bold"
)

// table column left edges; the amount column is right-aligned to rightEdge.
var columnX = struct {
	date, kind, category, description float64
}{marginX, 110, 162, 280}

var ErrMissingFont = errors.New("pdf: regular font is required")

// Subtitle builds the resolved date-range text, with the category filter
// description appended when one is active.
func (m DocumentMeta) Subtitle() string {
	s := "Resoconto finanziario"
	from, to := "", ""
	if !m.From.IsZero() {
		from = m.From.Format("02/01/2006")
	}
	if !m.To.IsZero() {
		to = m.To.Format("02/01/2006")
	}
	switch {
	case from != "" && to != "":
		s += " dal " + from + " al " + to
	case from != "":
		s += " dal " + from
	case to != "":
		s += " fino al " + to
	}

	switch len(m.CategoryNames) {
	case 0:
	case 1:
		s += " – Categoria: " + m.CategoryNames[0]
	default:
		names := strings.Join(m.CategoryNames, ", ")
		if len(names) > 40 {
			names = names[:37] + "..."
		}
		s += " – Categorie: " + names
	}
	return s
}

// RenderPDF renders the row sequence into a paginated A4 document with a
// title header and a summary footer. Zero rows produce a valid document with
// an empty table body. The blob is fully materialized before returning;
// nothing is streamed or held across calls.
func RenderPDF(rows []Row, summary RangeSummary, meta DocumentMeta, opts PDFOptions) ([]byte, error) {
	if len(opts.FontRegular) == 0 {
		return nil, ErrMissingFont
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	if err := pdf.AddTTFFontData(fontRegular, opts.FontRegular); err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	bold := opts.FontBold
	if len(bold) == 0 {
		bold = opts.FontRegular
	}
	if err := pdf.AddTTFFontData(fontBold, bold); err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}

	pdf.AddPage()

	title := meta.Title
	if title == "" {
		title = "Gestione Finanze"
	}

	pdf.SetTextColor(0, 0, 0)
	if err := pdf.SetFont(fontBold, "", 18); err != nil {
		return nil, fmt.Errorf("set title font: %w", err)
	}
	pdf.SetXY(marginX, 28)
	if err := pdf.Cell(nil, title); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}

	if err := pdf.SetFont(fontRegular, "", 12); err != nil {
		return nil, fmt.Errorf("set subtitle font: %w", err)
	}
	pdf.SetXY(marginX, 52)
	if err := pdf.Cell(nil, meta.Subtitle()); err != nil {
		return nil, fmt.Errorf("write subtitle: %w", err)
	}

	y := 74.0
	if err := writeTableHead(&pdf, y); err != nil {
		return nil, err
	}
	y += rowHeight

	for _, r := range rows {
		if y > breakY {
			pdf.AddPage()
			y = marginX
			if err := writeTableHead(&pdf, y); err != nil {
				return nil, err
			}
			y += rowHeight
		}
		if err := writeTableRow(&pdf, y, r); err != nil {
			return nil, err
		}
		y += rowHeight
	}

	if y+3*rowHeight+8 > breakY {
		pdf.AddPage()
		y = marginX
	}
	if err := writeSummary(&pdf, y+8, summary); err != nil {
		return nil, err
	}

	return pdf.GetBytesPdf(), nil
}

func writeTableHead(pdf *gopdf.GoPdf, y float64) error {
	pdf.SetFillColor(33, 150, 243)
	pdf.RectFromUpperLeftWithStyle(marginX, y, pageWidth-2*marginX, rowHeight, "F")
	pdf.SetTextColor(255, 255, 255)
	if err := pdf.SetFont(fontBold, "", 9); err != nil {
		return fmt.Errorf("set table head font: %w", err)
	}

	cells := []struct {
		x    float64
		text string
	}{
		{columnX.date, "Data"},
		{columnX.kind, "Tipo"},
		{columnX.category, "Categoria"},
		{columnX.description, "Descrizione"},
	}
	for _, c := range cells {
		pdf.SetXY(c.x+2, y+4)
		if err := pdf.Cell(nil, c.text); err != nil {
			return fmt.Errorf("write table head: %w", err)
		}
	}
	return cellRight(pdf, y+4, "Importo")
}

func writeTableRow(pdf *gopdf.GoPdf, y float64, r Row) error {
	pdf.SetTextColor(0, 0, 0)
	if err := pdf.SetFont(fontRegular, "", 9); err != nil {
		return fmt.Errorf("set table row font: %w", err)
	}

	cells := []struct {
		x, width float64
		text     string
	}{
		{columnX.date, columnX.kind - columnX.date - 6, r.DisplayDate},
		{columnX.kind, columnX.category - columnX.kind - 6, r.Direction.Label()},
		{columnX.category, columnX.description - columnX.category - 6, r.Category},
		{columnX.description, rightEdge - 70 - columnX.description, r.Description},
	}
	for _, c := range cells {
		pdf.SetXY(c.x+2, y+4)
		if err := pdf.Cell(nil, truncate(pdf, c.text, c.width)); err != nil {
			return fmt.Errorf("write table cell: %w", err)
		}
	}

	// Amount column: income green, expense red.
	if r.Direction == DirectionIncome {
		pdf.SetTextColor(34, 197, 94)
	} else {
		pdf.SetTextColor(220, 38, 38)
	}
	if err := cellRight(pdf, y+4, r.Amount); err != nil {
		return err
	}
	pdf.SetTextColor(0, 0, 0)
	return nil
}

func writeSummary(pdf *gopdf.GoPdf, y float64, summary RangeSummary) error {
	if err := pdf.SetFont(fontRegular, "", 11); err != nil {
		return fmt.Errorf("set summary font: %w", err)
	}

	pdf.SetTextColor(34, 197, 94)
	if err := cellRight(pdf, y, "Entrate: "+summary.Income.FormatEuro()); err != nil {
		return err
	}
	pdf.SetTextColor(220, 38, 38)
	if err := cellRight(pdf, y+rowHeight, "Uscite: "+summary.Expense.FormatEuro()); err != nil {
		return err
	}
	pdf.SetTextColor(0, 0, 0)
	return cellRight(pdf, y+2*rowHeight, "Saldo: "+summary.Net.FormatEuro())
}

// cellRight writes text right-aligned against the table's right edge.
func cellRight(pdf *gopdf.GoPdf, y float64, text string) error {
	w, err := pdf.MeasureTextWidth(text)
	if err != nil {
		return fmt.Errorf("measure text: %w", err)
	}
	pdf.SetXY(rightEdge-w-2, y)
	if err := pdf.Cell(nil, text); err != nil {
		return fmt.Errorf("write right-aligned cell: %w", err)
	}
	return nil
}

// truncate shortens text to fit a column, appending an ellipsis.
func truncate(pdf *gopdf.GoPdf, text string, width float64) string {
	if text == "" {
		return text
	}
	w, err := pdf.MeasureTextWidth(text)
	if err != nil || w <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if w, err = pdf.MeasureTextWidth(candidate); err == nil && w <= width {
			return candidate
		}
	}
	return "..."
}
