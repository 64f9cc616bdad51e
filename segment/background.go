package segment

import (
	"fmt"

	"github.com/carbocation/pfx"
	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"

	"github.com/biostacks/nucseg/stack"
)

// Background summarizes the intensity of everything outside the segmented
// foreground. The numbers give a quick per-image check that thresholding
// did not swallow the background.
type Background struct {
	Median float64
	Mean   float64
	StdDev float64
	Count  int
}

// EstimateBackground measures the samples the mask calls background. A
// mask with no background (everything foreground) yields an error.
func EstimateBackground(s *stack.Stack, m *stack.Mask) (Background, error) {
	rv := runningvariance.NewRunningStat()
	values := make([]float64, 0, len(s.Data))

	for i, v := range s.Data {
		if m.Bits[i] {
			continue
		}

		rv.Push(v)
		values = append(values, v)
	}

	if len(values) == 0 {
		return Background{}, pfx.Err(fmt.Errorf("no background samples to estimate from"))
	}

	median, err := stats.Median(values)
	if err != nil {
		return Background{}, pfx.Err(err)
	}

	return Background{
		Median: median,
		Mean:   rv.Mean(),
		StdDev: rv.StandardDeviation(),
		Count:  len(values),
	}, nil
}
