package report

import (
	"html/template"
	"io"

	"example.com/runlog/internal/domain"
)

const (
	cellSize   = 32
	cellGap    = 3
	labelWidth = 64
	headerSize = 24
)

// ramp runs from the lowest weekly total to the highest.
var ramp = []string{"#ebedf0", "#c6e48b", "#7bc96f", "#3f9e4d", "#196127"}

var heatmapTemplate = template.Must(template.New("heatmap").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" font-family="sans-serif" font-size="11">
{{- range .Headers}}
<text x="{{.X}}" y="{{.Y}}" text-anchor="middle">{{.Text}}</text>
{{- end}}
{{- range .Rows}}
<text x="0" y="{{.Y}}">{{.Label}}</text>
{{- range .Cells}}
<rect x="{{.X}}" y="{{.Y}}" width="{{.Size}}" height="{{.Size}}" fill="{{.Fill}}"><title>{{.Title}}</title></rect>
<text x="{{.TextX}}" y="{{.TextY}}" text-anchor="middle" fill="{{.Ink}}">{{.Value}}</text>
{{- end}}
{{- end}}
</svg>
</body>
</html>
`))

type heatmapText struct {
	X, Y int
	Text string
}

type heatmapCell struct {
	X, Y, Size   int
	TextX, TextY int
	Fill, Ink    string
	Title, Value string
}

type heatmapRow struct {
	Label string
	Y     int
	Cells []heatmapCell
}

type heatmapView struct {
	Title         string
	Width, Height int
	Headers       []heatmapText
	Rows          []heatmapRow
}

// WriteHeatmap renders the weekly summary as an HTML page with an SVG grid, one row per
// week and one annotated cell per weekday plus the weekly total. Every cell is shaded on
// a scale running from the smallest to the largest weekly total.
func WriteHeatmap(w io.Writer, title string, rows []domain.WeeklySummaryRow) error {
	lo, hi := totalRange(rows)

	step := cellSize + cellGap
	columns := append(domain.DayNames[:], "Total")
	view := heatmapView{
		Title:  title,
		Width:  labelWidth + len(columns)*step,
		Height: headerSize + len(rows)*step,
	}
	for i, name := range columns {
		view.Headers = append(view.Headers, heatmapText{X: labelWidth + i*step + cellSize/2, Y: headerSize - 8, Text: name})
	}

	for r, row := range rows {
		top := headerSize + r*step
		hr := heatmapRow{Label: row.Label(), Y: top + cellSize/2 + 4}
		values := append(row.Days[:], row.Total)
		for c, v := range values {
			tip := "week of " + row.WeekOf.Format(domain.DateLayout) + " total"
			if c < len(row.Days) {
				tip = row.WeekOf.AddDate(0, 0, c).Format(domain.DateLayout)
			}
			idx := shadeIndex(v, lo, hi)
			ink := "#24292f"
			if idx >= len(ramp)-2 {
				ink = "#ffffff"
			}
			hr.Cells = append(hr.Cells, heatmapCell{
				X:     labelWidth + c*step,
				Y:     top,
				Size:  cellSize,
				TextX: labelWidth + c*step + cellSize/2,
				TextY: top + cellSize/2 + 4,
				Fill:  ramp[idx],
				Ink:   ink,
				Title: tip + ": " + formatMiles(v) + " mi",
				Value: formatMiles(v),
			})
		}
		view.Rows = append(view.Rows, hr)
	}
	return heatmapTemplate.Execute(w, view)
}

// totalRange returns the smallest and largest weekly total. A single distinct total is
// scaled from zero.
func totalRange(rows []domain.WeeklySummaryRow) (lo, hi float64) {
	defer func() {
		if hi <= lo {
			lo = 0
		}
	}()
	for i, row := range rows {
		if i == 0 {
			lo, hi = row.Total, row.Total
			continue
		}
		lo = min(lo, row.Total)
		hi = max(hi, row.Total)
	}
	return lo, hi
}

// shade maps v onto the ramp, clamping values outside [lo, hi].
func shade(v, lo, hi float64) string {
	return ramp[shadeIndex(v, lo, hi)]
}

func shadeIndex(v, lo, hi float64) int {
	if hi <= lo {
		if v > lo {
			return len(ramp) - 1
		}
		return 0
	}
	frac := (v - lo) / (hi - lo)
	switch {
	case frac <= 0:
		return 0
	case frac >= 1:
		return len(ramp) - 1
	}
	return min(int(frac*float64(len(ramp))), len(ramp)-1)
}
