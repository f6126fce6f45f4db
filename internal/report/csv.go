package report

import (
	"strings"
)

// csvSeparator is fixed. Free-text fields escape it by substitution, never
// by quoting, so every record keeps exactly one separator per field boundary.
const csvSeparator = ";"

// CSVHeader is the first record of every delimited export.
const CSVHeader = "Data;Tipo;Categoria;Descrizione;Importo"

// RenderCSV renders rows as a semicolon-delimited text blob with CRLF
// record separators. Zero rows produce a header-only blob, a normal
// displayable outcome rather than an error.
func RenderCSV(rows []Row) []byte {
	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, r := range rows {
		b.WriteString("\r\n")
		b.WriteString(r.DisplayDate)
		b.WriteString(csvSeparator)
		b.WriteString(r.Direction.Label())
		b.WriteString(csvSeparator)
		b.WriteString(escapeField(r.Category))
		b.WriteString(csvSeparator)
		b.WriteString(escapeField(r.Description))
		b.WriteString(csvSeparator)
		b.WriteString(r.Amount)
	}
	return []byte(b.String())
}

// escapeField substitutes the separator inside free text with a comma.
func escapeField(s string) string {
	return strings.ReplaceAll(s, csvSeparator, ",")
}
