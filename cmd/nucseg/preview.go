package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/biostacks/nucseg/segment"
)

// Longest side of a preview image. Larger projections are resized down.
const previewMaxSide = 1024

// writePreview renders a maximum projection of the labeled mask along Z,
// one gray level per object, with each object's ID drawn at its centroid.
func writePreview(outName string, res *segment.Result) error {
	l := res.Labeled

	// Brighter gray for higher IDs so touching neighbours stay apart
	// visually. Background stays black.
	levels := make([]uint8, l.N+1)
	for id := int32(1); id <= l.N; id++ {
		levels[id] = uint8(40 + int(id)*215/int(l.N))
	}

	proj := image.NewGray(image.Rect(0, 0, l.NX, l.NY))
	for z := 0; z < l.NZ; z++ {
		for y := 0; y < l.NY; y++ {
			for x := 0; x < l.NX; x++ {
				lab := l.Labels[l.Index(z, y, x)]
				if lab == 0 {
					continue
				}

				if v := levels[lab]; v > proj.GrayAt(x, y).Y {
					proj.SetGray(x, y, color.Gray{Y: v})
				}
			}
		}
	}

	var img image.Image = proj
	scale := 1.0
	if l.NX > previewMaxSide || l.NY > previewMaxSide {
		if l.NX >= l.NY {
			img = imaging.Resize(proj, previewMaxSide, 0, imaging.NearestNeighbor)
			scale = float64(previewMaxSide) / float64(l.NX)
		} else {
			img = imaging.Resize(proj, 0, previewMaxSide, imaging.NearestNeighbor)
			scale = float64(previewMaxSide) / float64(l.NY)
		}
	}

	// dc represents the drawing canvas.
	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 0)
	for _, obj := range res.Kept {
		dc.DrawStringAnchored(strconv.Itoa(int(obj.ID)), obj.CentroidX*scale, obj.CentroidY*scale, 0.5, 0.5)
	}

	return savePNG(dc, outName)
}

func savePNG(dc *gg.Context, outName string) error {
	f, err := os.OpenFile(outName, os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, dc.Image())
}
