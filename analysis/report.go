package analysis

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

// histogramBins is the bin count used when the residual range allows it.
const histogramBins = 41

// histogram buckets values into at most bins equal-width integer bins
// spanning [min, max]. Residuals are integers, so bins never split one.
func histogram(values []float64, bins int) (labels []string, counts []int) {
	if len(values) == 0 {
		return nil, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := int(hi-lo) + 1
	if span < bins {
		bins = span
	}
	width := (span + bins - 1) / bins

	counts = make([]int, bins)
	for _, v := range values {
		idx := int(v-lo) / width
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	labels = make([]string, bins)
	for i := range labels {
		start := int(lo) + i*width
		if width == 1 {
			labels[i] = fmt.Sprintf("%d", start)
		} else {
			labels[i] = fmt.Sprintf("%d..%d", start, start+width-1)
		}
	}
	return labels, counts
}

func toBarItems(vals []int) []opts.BarData {
	out := make([]opts.BarData, len(vals))
	for i, v := range vals {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func newResidualChart(r *Report) *charts.Bar {
	title := fmt.Sprintf("%s residual t - v", r.Params.Set)
	subtitle := fmt.Sprintf("trials=%d, agreement=%.4f, mean=%.3f, std=%.3f, p95|r|=%.1f",
		r.Trials, r.Rate, r.ResidualMean, r.ResidualStdDev, r.ResidualP95)
	labels, counts := histogram(r.Residuals, histogramBins)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("count", toBarItems(counts)).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}

// RenderHTML writes a page with one residual histogram per report.
func RenderHTML(w io.Writer, reports ...*Report) error {
	if len(reports) == 0 {
		return errors.New("no reports to render")
	}
	page := components.NewPage()
	page.PageTitle = "lattice-lite agreement"
	for _, r := range reports {
		if r == nil || len(r.Residuals) == 0 {
			continue
		}
		page.AddCharts(newResidualChart(r))
	}
	return errors.Wrap(page.Render(w), "render html")
}
