package report

import "time"

// Export formats accepted by the download surface. "excel" is a CSV that
// Excel opens directly; it differs only in file name suffix.
const (
	FormatPDF   = "pdf"
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// ExportBaseName derives the deterministic download name from the active
// date range: resoconto_<DD-MM>_<DD-MM-YY>, with "tutti" for an absent
// bound.
func ExportBaseName(from, to time.Time) string {
	start := "tutti"
	if !from.IsZero() {
		start = from.Format("02-01")
	}
	end := "tutti"
	if !to.IsZero() {
		end = to.Format("02-01-06")
	}
	return "resoconto_" + start + "_" + end
}

// ExportFileName appends the per-format suffix to the base name.
func ExportFileName(from, to time.Time, format string) string {
	base := ExportBaseName(from, to)
	switch format {
	case FormatPDF:
		return base + ".pdf"
	case FormatExcel:
		return base + "_excel.csv"
	default:
		return base + "_csv.csv"
	}
}
