package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Export formats carried in job messages.
const (
	FormatPDF   = "pdf"
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// ExportJobMessage asks a worker to render a filtered report to a file.
// It carries the query, not the data: the worker reads a fresh snapshot
// from the database so exports never serve stale rows.
type ExportJobMessage struct {
	JobID       string    `json:"job_id"`
	Format      string    `json:"format"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	CategoryIDs []string  `json:"category_ids,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExportJobMessage creates a job message with a fresh job id
func NewExportJobMessage(format, from, to string, categoryIDs []string) *ExportJobMessage {
	return &ExportJobMessage{
		JobID:       uuid.NewString(),
		Format:      format,
		From:        from,
		To:          to,
		CategoryIDs: categoryIDs,
		Timestamp:   time.Now(),
	}
}

// ValidFormat reports whether the message names a renderable format
func (m *ExportJobMessage) ValidFormat() bool {
	switch m.Format {
	case FormatPDF, FormatCSV, FormatExcel:
		return true
	}
	return false
}

// ToJSON converts the message to JSON bytes
func (m *ExportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportJobMessageFromJSON creates a message from JSON bytes
func ExportJobMessageFromJSON(data []byte) (*ExportJobMessage, error) {
	var msg ExportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
