package segment

import "github.com/biostacks/nucseg/stack"

// Result is everything one segmented image reports back to the caller.
type Result struct {
	GlobalThreshold float64
	Degenerate      bool
	Background      Background
	Labeled         *stack.Labeled
	Kept            []Object
	RemovedBySize   int
	RemovedByZSpan  int
	RemovedByBorder int
}

// Run executes the segmentation stages on a preprocessed stack in strict
// sequence: binarize, fill holes, close, label, filter. A degenerate
// (zero variance) stack short-circuits to an empty, warnable result
// instead of failing.
func Run(s *stack.Stack, p Params) (*Result, error) {
	m, thr, degenerate, err := Binarize(s, p)
	if err != nil {
		return nil, err
	}

	res := &Result{GlobalThreshold: thr, Degenerate: degenerate}

	if degenerate {
		res.Labeled = stack.NewLabeled(m.Geometry)
		return res, nil
	}

	FillHoles(m)
	Close(m)

	fr := FilterObjects(Label(m), p)

	res.Labeled = fr.Labeled
	res.Kept = fr.Kept
	res.RemovedBySize = len(fr.RemovedBySize)
	res.RemovedByZSpan = len(fr.RemovedByZSpan)
	res.RemovedByBorder = len(fr.RemovedByBorder)

	// Background statistics are taken against the cleaned binary mask,
	// before filtering, so removed objects never count as background. A
	// mask with no background at all leaves the zero value in place.
	if bg, bgErr := EstimateBackground(s, m); bgErr == nil {
		res.Background = bg
	}

	return res, nil
}
