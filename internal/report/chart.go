// Package report renders training history as an HTML page of line charts.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"drivex/internal/engine"
)

var errNoHistory = errors.New("no training batches to plot")

// Render writes one page with two charts: per-batch success rate against
// exploration, and the growth of the value table.
func Render(w io.Writer, history []engine.BatchStats) error {
	if len(history) == 0 {
		return errNoHistory
	}

	batches := make([]string, len(history))
	success := make([]opts.LineData, len(history))
	epsilon := make([]opts.LineData, len(history))
	states := make([]opts.LineData, len(history))
	for i, b := range history {
		batches[i] = fmt.Sprintf("%d", b.Batch)
		success[i] = opts.LineData{Value: b.SuccessRate()}
		epsilon[i] = opts.LineData{Value: b.Epsilon}
		states[i] = opts.LineData{Value: b.TableSize}
	}

	learning := newLine("Training progress", fmt.Sprintf("%d batches", len(history)))
	learning.SetXAxis(batches).
		AddSeries("success rate", success).
		AddSeries("epsilon", epsilon)

	table := newLine("Value table", "states discovered")
	table.SetXAxis(batches).AddSeries("states", states)

	page := components.NewPage()
	page.AddCharts(learning, table)
	return page.Render(w)
}

// WriteFile renders the page to path, creating parent directories.
func WriteFile(path string, history []engine.BatchStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Render(f, history); err != nil {
		f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}

func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "batch"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	return line
}
