// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX report.
const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"
)

var resultColumns = []string{"ID", "Check Type", "Status", "Message", "Response Time (s)", "Timestamp", "Raw Data"}

var statusFill = map[check.Status]string{
	check.StatusSuccess: "#C6EFCE",
	check.StatusWarning: "#FFEB9C",
	check.StatusError:   "#FFC7CE",
}

// WriteXLSX writes a workbook with a Results sheet, one row per outcome in
// request order, and a Summary sheet with the status counts.
func WriteXLSX(w io.Writer, outcomes []check.Outcome) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := writeResults(f, outcomes); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := writeSummary(f, Summarize(outcomes)); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return f.Write(w)
}

func writeResults(f *excelize.File, outcomes []check.Outcome) error {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &resultColumns); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(resultColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(ResultsSheet, "A1", last, header); err != nil {
		return err
	}

	fills := make(map[check.Status]int, len(statusFill))
	for st, rgb := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{rgb}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		fills[st] = id
	}

	for i, o := range outcomes {
		row := i + 2
		res := o.Result
		raw, err := json.Marshal(res.RawData())
		if err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{
			o.Request.ID,
			o.Request.Type,
			string(res.Status()),
			res.Message(),
			res.ResponseTime().Seconds(),
			res.Timestamp().UTC().Format(time.RFC3339),
			string(raw),
		}
		if err := f.SetSheetRow(ResultsSheet, cell, &values); err != nil {
			return err
		}
		statusCell, err := excelize.CoordinatesToCellName(3, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(ResultsSheet, statusCell, statusCell, fills[res.Status()]); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 24, "B": 18, "C": 10, "D": 60, "E": 18, "F": 22, "G": 80}
	for col, width := range widths {
		if err := f.SetColWidth(ResultsSheet, col, col, width); err != nil {
			return err
		}
	}
	return f.SetPanes(ResultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, s Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Status", "Count"},
		{string(check.StatusSuccess), s.Success},
		{string(check.StatusWarning), s.Warning},
		{string(check.StatusError), s.Error},
		{"total", s.Total},
		{"worst", string(s.Worst)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
