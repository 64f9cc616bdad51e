// nucseg segments nuclei in a directory of fluorescence microscopy TIFF
// stacks. Every matched image runs through the same pipeline: intensity
// rescaling, combined global and local thresholding, hole filling and
// closing, connected-component labeling, and size/depth/border filtering.
// One mask file is written per input; a failed image is reported and the
// rest of the batch continues.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	_ "github.com/biostacks/nucseg/compileinfoprint"
	"github.com/biostacks/nucseg/segment"
)

var log = logrus.New()

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	flag.Usage = func() {
		flag.PrintDefaults()

		fmt.Fprintln(os.Stderr, "\nExample -params file layout:")
		if bts, err := yaml.Marshal(segment.DefaultParams()); err == nil {
			fmt.Fprintln(os.Stderr, string(bts))
		}
	}
}

type runConfig struct {
	inputDir  string
	outputDir string
	prefix    string
	params    segment.Params
	preview   bool
	plot      bool
}

func main() {
	start := time.Now()
	log.Println("nucseg start")
	defer func() {
		log.Printf("nucseg end. Took %.2f seconds", time.Since(start).Seconds())
	}()

	var inputDir, outputDir, pattern, prefix, paramsPath, reportPath string
	var neighbourhood, threads int
	var localOffset, minRadius, maxRadius, minZ float64
	var labeled, compressed, twoD, keepBorders, preview, plot, verbose, assumeYes bool

	defaults := segment.DefaultParams()

	flag.StringVar(&inputDir, "input", "", "Directory holding the TIFF stacks to segment")
	flag.StringVar(&outputDir, "output", "", "Directory for the mask output (created if absent)")
	flag.StringVar(&pattern, "pattern", `(?i)^.*\.tiff?$`, "(Optional) Regular expression selecting input filenames")
	flag.StringVar(&prefix, "prefix", "", "(Optional) Output filename prefix. Defaults to mask_, or cmask_ with -compressed.")
	flag.IntVar(&neighbourhood, "neighbourhood", defaults.Neighbourhood, "(Optional) Odd side of the local threshold window, in voxels")
	flag.Float64Var(&localOffset, "local-offset", defaults.LocalOffset, "(Optional) Offset subtracted from the local mean threshold")
	flag.Float64Var(&minRadius, "min-radius", defaults.MinRadius, "(Optional) Smallest acceptable equivalent object radius, in voxels")
	flag.Float64Var(&maxRadius, "max-radius", defaults.MaxRadius, "(Optional) Largest acceptable equivalent object radius, in voxels")
	flag.Float64Var(&minZ, "min-z", defaults.MinZFraction, "(Optional) Minimum fraction of the stack depth an object must span")
	flag.IntVar(&threads, "threads", 1, "(Optional) Worker count, capped to the machine's CPUs")
	flag.BoolVar(&labeled, "labeled", false, "(Optional) Write per-object IDs instead of a 255-valued binary mask")
	flag.BoolVar(&compressed, "compressed", false, "(Optional) Deflate-compress output TIFFs")
	flag.BoolVar(&twoD, "2d", false, "(Optional) Segment only the first Z plane of each stack")
	flag.BoolVar(&keepBorders, "keep-borders", false, "(Optional) Keep objects touching the XY border instead of discarding them")
	flag.StringVar(&paramsPath, "params", "", "(Optional) YAML parameter file; explicit flags still win")
	flag.BoolVar(&preview, "preview", false, "(Optional) Write a labeled max-projection PNG beside each mask")
	flag.BoolVar(&plot, "plot", false, "(Optional) Write an intensity histogram PNG with the global threshold marked")
	flag.StringVar(&reportPath, "report", "", "(Optional) Write a per-image TSV report to this path")
	flag.BoolVar(&verbose, "verbose", false, "(Optional) Chattier summary, including an object radius histogram")
	flag.BoolVar(&assumeYes, "y", false, "(Optional) Skip the confirmation prompt")
	flag.Parse()

	if inputDir == "" || outputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	p := defaults
	if paramsPath != "" {
		var err error
		if p, err = segment.LoadParams(paramsPath); err != nil {
			log.Fatalln(err)
		}
	}

	// Explicitly passed flags override the parameter file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["neighbourhood"] {
		p.Neighbourhood = neighbourhood
	}
	if set["local-offset"] {
		p.LocalOffset = localOffset
	}
	if set["min-radius"] {
		p.MinRadius = minRadius
	}
	if set["max-radius"] {
		p.MaxRadius = maxRadius
	}
	if set["min-z"] {
		p.MinZFraction = minZ
	}
	if set["labeled"] {
		p.Labeled = labeled
	}
	if set["compressed"] {
		p.Compress = compressed
	}
	if set["2d"] {
		p.SingleSlice = twoD
	}
	if set["keep-borders"] {
		p.ClearBorders = !keepBorders
	}

	if err := p.Validate(); err != nil {
		log.Fatalln(err)
	}

	if prefix == "" {
		prefix = "mask_"
		if p.Compress {
			prefix = "cmask_"
		}
	}

	if max := runtime.NumCPU(); threads > max {
		threads = max
		log.Printf("Lowered number of threads to maximum available: %d", threads)
	}
	if threads < 1 {
		threads = 1
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Fatalf("bad -pattern: %v", err)
	}

	files, err := matchingFiles(inputDir, re)
	if err != nil {
		log.Fatalln(err)
	}
	if len(files) == 0 {
		log.Fatalf("no files matching %q in %s", pattern, inputDir)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalln(err)
	}

	cfg := runConfig{
		inputDir:  inputDir,
		outputDir: outputDir,
		prefix:    prefix,
		params:    p,
		preview:   preview,
		plot:      plot,
	}

	if !confirm(cfg, len(files), threads, assumeYes) {
		log.Println("Aborted before processing")
		return
	}

	outcomes := runBatch(cfg, files, threads)
	summarize(outcomes, len(files), verbose)

	if reportPath != "" {
		if err := writeReport(reportPath, outcomes); err != nil {
			log.Errorf("report: %v", err)
		} else {
			log.Println("Wrote report to", reportPath)
		}
	}
}

// matchingFiles lists the plain files in dir whose names match re, sorted.
func matchingFiles(dir string, re *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}

		out = append(out, e.Name())
	}
	sort.Strings(out)

	return out, nil
}

func confirm(cfg runConfig, nFiles, threads int, assumeYes bool) bool {
	mode := "binary"
	if cfg.params.Labeled {
		mode = "labeled"
	}
	if cfg.params.Compress {
		mode += ", compressed"
	}

	dims := "3D"
	if cfg.params.SingleSlice {
		dims = "2D (first slice)"
	}

	fmt.Println("---------- SETTINGS ----------")
	fmt.Println("    Input directory :", cfg.inputDir)
	fmt.Println("   Output directory :", cfg.outputDir)
	fmt.Println("      Matched files :", nFiles)
	fmt.Println("      Output prefix :", cfg.prefix)
	fmt.Println("               Mode :", dims)
	fmt.Println("      Neighbourhood :", cfg.params.Neighbourhood)
	fmt.Printf("    Radius interval : [%g, %g]\n", cfg.params.MinRadius, cfg.params.MaxRadius)
	fmt.Println("     Min Z fraction :", cfg.params.MinZFraction)
	fmt.Println("      Clear borders :", cfg.params.ClearBorders)
	fmt.Println("            Threads :", threads)
	fmt.Println("             Output :", mode)
	fmt.Println("------------------------------")

	if assumeYes {
		return true
	}

	rdr := bufio.NewReader(os.Stdin)
	fmt.Print("Proceed? [y/N] ")

	text, err := rdr.ReadString('\n')
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "y", "yes":
		return true
	}

	return false
}

// runBatch fans the images out over a bounded worker pool and collects
// per-image outcomes. Results are serialized by a single listener so the
// log and the outcome slice see one image at a time.
func runBatch(cfg runConfig, files []string, threads int) []outcome {
	sem := make(chan bool, threads)
	results := make(chan outcome, threads)
	doneListening := make(chan struct{})

	outcomes := make([]outcome, 0, len(files))
	go func() {
		defer func() { doneListening <- struct{}{} }()

		for o := range results {
			outcomes = append(outcomes, o)

			entry := log.WithField("image", o.Image)
			switch o.Status {
			case statusOK:
				entry.Infof("wrote %s: %d objects, global threshold %.3f", o.OutputPath, o.Objects, o.GlobalThreshold)
			case statusEmpty:
				entry.Warnf("wrote %s: no objects survived", o.OutputPath)
			default:
				entry.Errorf("failed: %s", o.Error)
			}

			if o.Clamped > 0 {
				entry.Warnf("%d samples clamped to 255: more than 255 labeled objects", o.Clamped)
			}
		}
	}()

	for i, name := range files {
		sem <- true
		go func(name string) {
			defer func() { <-sem }()
			results <- processOneImage(cfg, name)
		}(name)

		if (i+1)%100 == 0 {
			log.Printf("Dispatched %d images", i+1)
		}
	}

	for i := 0; i < cap(sem); i++ {
		sem <- true
	}
	close(results)
	<-doneListening

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Image < outcomes[j].Image })

	return outcomes
}

func summarize(outcomes []outcome, discovered int, verbose bool) {
	var written, empty, failed int
	var durations, radii []float64

	for _, o := range outcomes {
		durations = append(durations, o.Seconds)
		radii = append(radii, o.Radii...)

		switch o.Status {
		case statusOK:
			written++
		case statusEmpty:
			written++
			empty++
		default:
			failed++
		}
	}

	log.Printf("Discovered %d images, wrote %d masks (%d empty), %d failed", discovered, written, empty, failed)

	for _, o := range outcomes {
		if o.Status == statusFailed {
			log.Errorf("%s: %s", o.Image, o.Error)
		}
	}

	if median, err := stats.Median(durations); err == nil {
		log.Printf("Median per-image time: %.2f seconds", median)
	}

	if verbose && len(radii) > 0 {
		fmt.Println("Retained object radii (voxels):")
		hist := histogram.Hist(10, radii)
		if err := histogram.Fprint(os.Stdout, hist, histogram.Linear(40)); err != nil {
			log.Errorf("radius histogram: %v", err)
		}
	}
}

// pngName swaps an image's extension for .png.
func pngName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
}
