package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 50

//plotHistogram saves the distribution of scores with a vertical line at the cutoff.
func plotHistogram(path string, scores []float64, cutoff float64) error {
	p := plot.New()
	p.Title.Text = "Anomaly scores"
	p.X.Label.Text = "score"
	p.Y.Label.Text = "count"

	hist, err := plotter.NewHist(plotter.Values(scores), histogramBins)
	if err != nil {
		return errors.Wrap(err, "build histogram")
	}
	p.Add(hist)

	cutoffLine, err := plotter.NewLine(plotter.XYs{{X: cutoff, Y: 0}, {X: cutoff, Y: maxBinCount(hist)}})
	if err != nil {
		return errors.Wrap(err, "build cutoff line")
	}
	p.Add(cutoffLine)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func maxBinCount(hist *plotter.Histogram) float64 {
	highest := 0.0
	for _, bin := range hist.Bins {
		highest = max(highest, bin.Weight)
	}
	return highest
}
