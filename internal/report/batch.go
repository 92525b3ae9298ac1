// Package report renders batch progress as XLSX workbooks.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet = "Summary"
	jobsSheet    = "Jobs"
)

var jobHeaders = []string{
	"Job ID", "Transaction", "Printer", "Status", "Progress", "Labels",
	"Created At", "Started At", "Completed At", "Message", "Error",
}

// Filename returns the attachment name for a batch report.
func Filename(batchID string) string {
	return fmt.Sprintf("batch-%s.xlsx", batchID)
}

// BatchWorkbook builds a workbook with a summary sheet and one row per job.
func BatchWorkbook(view model.BatchStatusView) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(jobsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := writeSummary(f, view); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write summary: %w", err)
	}
	if err := writeJobs(f, view.Jobs); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write jobs: %w", err)
	}
	return f, nil
}

// WriteBatch streams the batch workbook to w.
func WriteBatch(w io.Writer, view model.BatchStatusView) error {
	f, err := BatchWorkbook(view)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

func writeSummary(f *excelize.File, view model.BatchStatusView) error {
	eta := ""
	if view.EstimatedCompletionTime != nil {
		eta = formatTime(*view.EstimatedCompletionTime)
	}
	rows := [][2]any{
		{"Batch ID", view.BatchID},
		{"Created At", formatTime(view.CreatedAt)},
		{"Total Jobs", view.TotalJobs},
		{"Total Labels", view.TotalLabels},
		{"Queued", view.Queued},
		{"Printing", view.Printing},
		{"Completed", view.Completed},
		{"Failed", view.Failed},
		{"Cancelled", view.Cancelled},
		{"Estimated Completion", eta},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]any{row[0], row[1]}); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 24)
}

func writeJobs(f *excelize.File, jobs []model.PrintStatus) error {
	header := make([]any, len(jobHeaders))
	for i, h := range jobHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(jobsSheet, "A1", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(jobHeaders))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(jobsSheet, "A1", last+"1", bold); err != nil {
		return err
	}

	for i, st := range jobs {
		row := []any{
			st.JobID,
			st.TransactionNo,
			st.PrinterName,
			string(st.Status),
			st.Progress,
			st.LabelsCount,
			formatTime(st.CreatedAt),
			formatTimePtr(st.StartedAt),
			formatTimePtr(st.CompletedAt),
			st.Message,
			st.ErrorMessage,
		}
		if err := f.SetSheetRow(jobsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(jobsSheet, "A", last, 18)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
