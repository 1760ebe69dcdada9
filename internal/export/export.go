// SPDX-License-Identifier: AGPL-3.0-only

// Package export renders a task view as JSON, CSV or a PDF report.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/jung-kurt/gofpdf"
)

// Supported formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// Export renders tasks in the given format.
func Export(tasks []model.Task, format string) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		b, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return nil, errors.Internal(fmt.Errorf("marshal tasks: %w", err))
		}
		return b, nil
	case FormatCSV:
		return exportCSV(tasks)
	case FormatPDF:
		return exportPDF(tasks)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown export format %s: want json, csv or pdf", format))
	}
}

// Binary reports whether format produces non-text output.
func Binary(format string) bool {
	return strings.EqualFold(strings.TrimSpace(format), FormatPDF)
}

func exportCSV(tasks []model.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "title", "description", "completed", "priority"})
	for _, t := range tasks {
		_ = w.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Description,
			strconv.FormatBool(t.Completed),
			t.Priority.String(),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Internal(fmt.Errorf("write csv: %w", err))
	}
	return buf.Bytes(), nil
}

func exportPDF(tasks []model.Task) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task List")
	pdf.Ln(12)

	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%d tasks, %d completed, %d pending", len(tasks), done, len(tasks)-done))
	pdf.Ln(10)

	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s %s (%s)", mark, t.Title, t.Priority)), "0", "L", false)
		if t.Description != "" {
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(t.Description), "0", "L", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Internal(fmt.Errorf("render pdf: %w", err))
	}
	return buf.Bytes(), nil
}
