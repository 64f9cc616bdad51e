package main

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

const (
	statusOK     = "ok"
	statusEmpty  = "empty"
	statusFailed = "failed"
)

// outcome is one image's row in the batch report.
type outcome struct {
	Image            string     `csv:"image"`
	Status           string     `csv:"status"`
	Error            string     `csv:"error"`
	OutputPath       string     `csv:"output_path"`
	RescalingFactor  null.Float `csv:"rescaling_factor"`
	GlobalThreshold  float64    `csv:"global_threshold"`
	Objects          int        `csv:"objects"`
	RemovedBySize    int        `csv:"removed_by_size"`
	RemovedByZSpan   int        `csv:"removed_by_z_span"`
	RemovedByBorder  int        `csv:"removed_by_border"`
	BackgroundMedian float64    `csv:"background_median"`
	BackgroundMean   float64    `csv:"background_mean"`
	Clamped          int        `csv:"clamped_samples"`
	Seconds          float64    `csv:"seconds"`

	Radii []float64 `csv:"-"`
}

func (o outcome) failed(err error) outcome {
	o.Status = statusFailed
	o.Error = err.Error()

	return o
}

// writeReport emits one tab-delimited row per processed image.
func writeReport(path string, outcomes []outcome) error {
	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		writer := csv.NewWriter(out)
		writer.Comma = '\t'

		return gocsv.NewSafeCSVWriter(writer)
	})

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&outcomes, f); err != nil {
		return pfx.Err(err)
	}

	return nil
}
