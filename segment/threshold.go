package segment

import "github.com/biostacks/nucseg/stack"

const histogramBins = 256

// Binarize converts a float stack into a binary foreground mask by
// combining a global Otsu threshold with a per-sample local mean threshold
// over a centered box window. A sample is foreground only when it exceeds
// both; that rejects globally dim regions that merely beat their immediate
// noise, and bright but locally flat artifacts. The scalar global threshold
// is returned for reporting.
//
// A uniform stack has no histogram split to find. It yields an empty mask
// and degenerate == true rather than an error.
func Binarize(s *stack.Stack, p Params) (m *stack.Mask, globalThr float64, degenerate bool, err error) {
	g, err := s.Geometry()
	if err != nil {
		return nil, 0, false, err
	}

	m = stack.NewMask(g)

	min, max := s.MinMax()
	if min == max {
		return m, min, true, nil
	}

	globalThr = otsuThreshold(s.Data, min, max)

	sideY := clampOddWindow(p.Neighbourhood, g.NY)
	sideX := clampOddWindow(p.Neighbourhood, g.NX)
	sideZ := 1
	if g.NDim == 3 {
		sideZ = clampOddWindow(p.Neighbourhood, g.NZ)
	}

	table := newVolumeTable(s, g)
	halfZ, halfY, halfX := sideZ/2, sideY/2, sideX/2

	for z := 0; z < g.NZ; z++ {
		for y := 0; y < g.NY; y++ {
			for x := 0; x < g.NX; x++ {
				i := g.Index(z, y, x)
				v := s.Data[i]
				if v <= globalThr {
					continue
				}

				m.Bits[i] = v > table.mean(z, y, x, halfZ, halfY, halfX)-p.LocalOffset
			}
		}
	}

	return m, globalThr, false, nil
}

// otsuThreshold finds the split of a 256-bin histogram over [min, max] that
// maximizes the between-class variance, and returns the lower edge of the
// first bin classified foreground.
func otsuThreshold(data []float64, min, max float64) float64 {
	width := (max - min) / histogramBins

	var hist [histogramBins]int
	for _, v := range data {
		bin := int((v - min) / width)
		if bin >= histogramBins {
			bin = histogramBins - 1
		}
		hist[bin]++
	}

	total := len(data)

	var totalWeightedSum float64
	for bin, n := range hist {
		totalWeightedSum += float64(bin) * float64(n)
	}

	var (
		bestBin      int
		bestVariance float64

		// Cumulative count and weighted sum of the background class,
		// bins 0 through the candidate split.
		bgCount       int
		bgWeightedSum float64
	)
	for bin, n := range hist[:histogramBins-1] {
		bgCount += n
		bgWeightedSum += float64(bin) * float64(n)

		fgCount := total - bgCount
		if bgCount == 0 || fgCount == 0 {
			continue
		}

		bgMean := bgWeightedSum / float64(bgCount)
		fgMean := (totalWeightedSum - bgWeightedSum) / float64(fgCount)

		variance := float64(bgCount) * float64(fgCount) * (bgMean - fgMean) * (bgMean - fgMean)
		if variance > bestVariance {
			bestVariance = variance
			bestBin = bin
		}
	}

	return min + width*float64(bestBin+1)
}

// clampOddWindow shrinks a window side to the largest odd value that fits
// the axis. Local thresholding needs an odd window centered on each sample.
func clampOddWindow(side, dim int) int {
	if side > dim {
		side = dim
	}
	if side%2 == 0 {
		side--
	}
	if side < 1 {
		side = 1
	}

	return side
}
