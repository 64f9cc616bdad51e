package main

import (
	"bytes"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/biostacks/nucseg/stack"
)

const histogramBins = 256

// writeHistogram plots the intensity histogram of the preprocessed stack
// with a vertical line at the chosen global threshold.
func writeHistogram(outName string, s *stack.Stack, threshold float64) error {
	min, max := s.MinMax()
	if min == max {
		return nil
	}

	width := (max - min) / histogramBins
	centers := make([]float64, histogramBins)
	counts := make([]float64, histogramBins)
	for i := range centers {
		centers[i] = min + width*(float64(i)+0.5)
	}
	for _, v := range s.Data {
		bin := int((v - min) / width)
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		counts[bin]++
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name: "intensity",
		},
		YAxis: chart.YAxis{
			Style: chart.Hidden(),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: centers,
				YValues: counts,
			},
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
				},
				XValues: []float64{threshold, threshold},
				YValues: []float64{0, floats.Max(counts)},
			},
		},
	}

	// Render to a byte buffer
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return err
	}

	outFile, err := os.Create(outName)
	if err != nil {
		return err
	}
	defer outFile.Close()

	if _, err := buffer.WriteTo(outFile); err != nil {
		return err
	}

	return nil
}
