// Package report renders run results as terminal tables and JSON documents.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Bitshifter-9/kannada-hindi/internal/failure"
	"github.com/Bitshifter-9/kannada-hindi/internal/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// Validation renders the quality report as one row per check.
func Validation(r types.ValidationReport) string {
	rows := [][]string{
		{
			"duration",
			fmt.Sprintf("%.3fs", r.DurationActual),
			fmt.Sprintf("%.3fs ± %.3fs", r.DurationTarget, r.DurationTolerance),
			verdict(r.DurationOK),
		},
		{
			"ssim",
			fmt.Sprintf("%.4f (%d samples)", r.SSIMScore, r.SSIMSamples),
			fmt.Sprintf("≥ %.2f", r.SSIMThreshold),
			verdict(r.SSIMOK),
		},
		{"overall", "", "", verdict(r.OverallPass)},
	}
	return renderTable(
		[]string{"Check", "Measured", "Expected", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	)
}

// Artifacts lists artifacts with their on-disk sizes.
func Artifacts(arts []types.Artifact) string {
	rows := make([][]string, 0, len(arts))
	var total uint64
	for _, a := range arts {
		size := "missing"
		if info, err := os.Stat(a.Path); err == nil {
			if info.IsDir() {
				size = "dir"
			} else {
				size = humanize.Bytes(uint64(info.Size()))
				total += uint64(info.Size())
			}
		}
		rows = append(rows, []string{string(a.Kind), filepath.Base(a.Path), size})
	}
	rows = append(rows, []string{"total", "", humanize.Bytes(total)})
	return renderTable(
		[]string{"Artifact", "File", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	)
}

// Failure describes an aborted run for the terminal.
func Failure(f *failure.StageFailure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "stage %s failed after reaching %s\n", f.Stage, f.Reached)
	if len(f.Artifacts) == 0 {
		b.WriteString("no artifacts were written\n")
		return b.String()
	}
	b.WriteString("artifacts available for manual resumption:\n")
	b.WriteString(Artifacts(f.Artifacts))
	b.WriteString("\n")
	return b.String()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}
