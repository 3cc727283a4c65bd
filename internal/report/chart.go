package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lendx/internal/core"
	"lendx/internal/interest"
)

var (
	compoundColor = drawing.Color{R: 250, G: 134, B: 94, A: 255}
	balanceColor  = drawing.Color{R: 77, G: 184, B: 255, A: 255}
)

// ErrNotEnoughData is returned when there is nothing to plot.
var ErrNotEnoughData = errors.New("not enough data to chart")

// BalanceChart renders a PNG line chart of the compound balance week by week
// and, when the statement spans more than one day, the plain running balance.
func BalanceChart(w io.Writer, b core.Borrower, s interest.Summary, lines []interest.StatementLine) error {
	weeks := s.Interest.Compound.Breakdown
	if len(weeks) == 0 {
		return ErrNotEnoughData
	}

	compound := chart.TimeSeries{
		Name: "Compound balance",
		Style: chart.Style{
			StrokeColor: compoundColor,
			StrokeWidth: 2,
		},
	}
	for _, wk := range weeks {
		compound.XValues = append(compound.XValues, wk.StartDate.Time, wk.EndDate.Time)
		compound.YValues = append(compound.YValues, toFloat(wk.Principal), toFloat(wk.Balance))
	}

	series := []chart.Series{compound}
	if running, ok := runningSeries(lines); ok {
		series = append(series, running)
	}

	minY, maxY := yBounds(series)
	graph := chart.Chart{
		Title: fmt.Sprintf("%s - balance at %s%% weekly", b.Name, b.InterestRate.String()),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  1000,
		Height: 500,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
			ValueFormatter: func(v interface{}) string {
				if vf, isFloat := v.(float64); isFloat {
					return fmt.Sprintf("%.2f", vf)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// runningSeries plots the statement as a step line. It needs two distinct
// dates to give the x axis a range.
func runningSeries(lines []interest.StatementLine) (chart.TimeSeries, bool) {
	ts := chart.TimeSeries{
		Name: "Running balance",
		Style: chart.Style{
			StrokeColor: balanceColor,
			StrokeWidth: 1,
		},
	}
	var last time.Time
	for i, l := range lines {
		if i > 0 {
			// Step: hold the previous balance until this transaction.
			ts.XValues = append(ts.XValues, l.Date.Time)
			ts.YValues = append(ts.YValues, ts.YValues[len(ts.YValues)-1])
		}
		ts.XValues = append(ts.XValues, l.Date.Time)
		ts.YValues = append(ts.YValues, toFloat(l.RunningBalance))
		last = l.Date.Time
	}
	if len(lines) == 0 || last.Equal(lines[0].Date.Time) {
		return chart.TimeSeries{}, false
	}
	return ts, true
}

func yBounds(series []chart.Series) (float64, float64) {
	minY, maxY := 0.0, 0.0
	for _, s := range series {
		ts, ok := s.(chart.TimeSeries)
		if !ok {
			continue
		}
		for _, y := range ts.YValues {
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
	}
	pad := (maxY - minY) * 0.05
	if pad == 0 {
		pad = 1
	}
	return minY - pad, maxY + pad
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
