// Package tiffio reads microscopy TIFF stacks and writes segmentation
// masks back out as 8-bit TIFFs, single or multi-page.
package tiffio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/carbocation/pfx"
	"golang.org/x/image/tiff"

	"github.com/biostacks/nucseg/stack"
)

// ReadStack decodes a possibly multi-page TIFF into one intensity stack.
// Pages become the Z axis; a single-page file yields a 2D stack.
//
// The tiff decoder only ever reads a file's first image directory, so the
// directory chain is walked here and the 8-byte header's first-directory
// pointer is repointed at each page in turn. Every other offset in a TIFF
// file is absolute, which keeps the rest of the file valid as is.
func ReadStack(path string) (*stack.Stack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	order, offsets, err := directoryOffsets(raw)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	var s *stack.Stack
	for i, off := range offsets {
		order.PutUint32(raw[4:8], off)

		img, err := tiff.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: page %d: %w", path, i, err))
		}

		b := img.Bounds()
		if s == nil {
			if len(offsets) == 1 {
				s = stack.New(b.Dy(), b.Dx())
			} else {
				s = stack.New(len(offsets), b.Dy(), b.Dx())
			}
		} else if b.Dy() != s.Dims[len(s.Dims)-2] || b.Dx() != s.Dims[len(s.Dims)-1] {
			return nil, pfx.Err(fmt.Errorf("%s: page %d is %dx%d, earlier pages are %dx%d",
				path, i, b.Dx(), b.Dy(), s.Dims[len(s.Dims)-1], s.Dims[len(s.Dims)-2]))
		}

		n := b.Dy() * b.Dx()
		fillPlane(s.Data[i*n:(i+1)*n], img)
	}

	return s, nil
}

// directoryOffsets validates the TIFF header and walks the image directory
// chain, returning the file's byte order and the offset of every page.
func directoryOffsets(raw []byte) (binary.ByteOrder, []uint32, error) {
	if len(raw) < 8 {
		return nil, nil, fmt.Errorf("not a TIFF file: %d bytes", len(raw))
	}

	var order binary.ByteOrder
	switch string(raw[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("not a TIFF file: byte-order mark %q", raw[0:2])
	}

	if magic := order.Uint16(raw[2:4]); magic != 42 {
		return nil, nil, fmt.Errorf("not a TIFF file: magic %d", magic)
	}

	var offsets []uint32
	seen := make(map[uint32]bool)

	for off := order.Uint32(raw[4:8]); off != 0; {
		if seen[off] {
			return nil, nil, fmt.Errorf("image directory chain loops at offset %d", off)
		}
		seen[off] = true

		if int(off)+2 > len(raw) {
			return nil, nil, fmt.Errorf("image directory offset %d beyond end of file", off)
		}

		entries := uint32(order.Uint16(raw[off : off+2]))
		next := off + 2 + 12*entries
		if int(next)+4 > len(raw) {
			return nil, nil, fmt.Errorf("image directory at offset %d beyond end of file", off)
		}

		offsets = append(offsets, off)
		off = order.Uint32(raw[next : next+4])
	}

	if len(offsets) == 0 {
		return nil, nil, fmt.Errorf("no image directories")
	}

	return order, offsets, nil
}

// fillPlane copies one decoded page into a plane of the stack. Grayscale
// images are read straight from their pixel buffers; anything else goes
// through the Gray16 color model.
func fillPlane(dst []float64, img image.Image) {
	b := img.Bounds()

	switch im := img.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			off := im.PixOffset(b.Min.X, b.Min.Y+y)
			for x, v := range im.Pix[off : off+b.Dx()] {
				dst[y*b.Dx()+x] = float64(v)
			}
		}
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			off := im.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < b.Dx(); x++ {
				dst[y*b.Dx()+x] = float64(uint16(im.Pix[off+2*x])<<8 | uint16(im.Pix[off+2*x+1]))
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y))
				dst[y*b.Dx()+x] = float64(c.(color.Gray16).Y)
			}
		}
	}
}
