package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/biostacks/nucseg/segment"
	"github.com/biostacks/nucseg/tiffio"

	"gopkg.in/guregu/null.v3"
)

// processOneImage runs the whole pipeline for a single input file. Any
// error is folded into the returned outcome so one bad image never stops
// the batch.
func processOneImage(cfg runConfig, name string) (out outcome) {
	start := time.Now()
	out.Image = name
	defer func() { out.Seconds = time.Since(start).Seconds() }()

	inPath := filepath.Join(cfg.inputDir, name)

	raw, err := tiffio.ReadStack(inPath)
	if err != nil {
		return out.failed(fmt.Errorf("reading: %w", err))
	}

	factor, found, err := tiffio.RescalingFactor(inPath)
	if err != nil {
		return out.failed(fmt.Errorf("rescaling factor: %w", err))
	}
	out.RescalingFactor = null.NewFloat(factor, found)

	s, err := segment.Preprocess(raw, factor, cfg.params.SingleSlice)
	if err != nil {
		return out.failed(err)
	}

	res, err := segment.Run(s, cfg.params)
	if err != nil {
		return out.failed(err)
	}

	out.GlobalThreshold = res.GlobalThreshold
	out.Objects = len(res.Kept)
	out.RemovedBySize = res.RemovedBySize
	out.RemovedByZSpan = res.RemovedByZSpan
	out.RemovedByBorder = res.RemovedByBorder
	out.BackgroundMedian = res.Background.Median
	out.BackgroundMean = res.Background.Mean
	for _, obj := range res.Kept {
		out.Radii = append(out.Radii, obj.Radius)
	}

	outPath := filepath.Join(cfg.outputDir, cfg.prefix+name)
	clamped, err := tiffio.WriteMask(outPath, res.Labeled, cfg.params.Labeled, cfg.params.Compress)
	if err != nil {
		return out.failed(fmt.Errorf("writing: %w", err))
	}
	out.OutputPath = outPath
	out.Clamped = clamped

	out.Status = statusOK
	if res.Degenerate || len(res.Kept) == 0 {
		out.Status = statusEmpty
	}

	// Side artifacts are best effort. A bad preview must not unmake a
	// good mask.
	if cfg.preview {
		path := filepath.Join(cfg.outputDir, "preview_"+pngName(name))
		if err := writePreview(path, res); err != nil {
			log.WithField("image", name).Warnf("preview: %v", err)
		}
	}
	if cfg.plot && !res.Degenerate {
		path := filepath.Join(cfg.outputDir, "hist_"+pngName(name))
		if err := writeHistogram(path, s, res.GlobalThreshold); err != nil {
			log.WithField("image", name).Warnf("histogram: %v", err)
		}
	}

	return out
}
