package tiffio

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"golang.org/x/image/tiff"

	"github.com/biostacks/nucseg/stack"
)

// WriteMask writes a label volume to path as an 8-bit grayscale TIFF,
// deflate-compressed when compress is set. Binary mode maps every labeled
// sample to 255; labeled mode writes raw object IDs, clamping anything
// above 255 to fit the sample type. The clamped sample count is returned
// so the caller can warn about ID collisions.
func WriteMask(path string, l *stack.Labeled, labeled, compress bool) (clamped int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, pfx.Err(err)
	}

	clamped, err = encodeMask(f, l, labeled, compress)

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return clamped, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return clamped, nil
}

func encodeMask(w io.Writer, l *stack.Labeled, labeled, compress bool) (int, error) {
	if l.NDim == 2 {
		pix, clamped := planeBytes(l, 0, labeled)

		img := image.NewGray(image.Rect(0, 0, l.NX, l.NY))
		copy(img.Pix, pix)

		opts := &tiff.Options{}
		if compress {
			opts.Compression = tiff.Deflate
		}

		return clamped, tiff.Encode(w, img, opts)
	}

	return writeMultiPage(w, l, labeled, compress)
}

// planeBytes renders one Z plane as 8-bit samples.
func planeBytes(l *stack.Labeled, z int, labeled bool) ([]byte, int) {
	n := l.NY * l.NX
	out := make([]byte, n)
	clamped := 0

	for i, v := range l.Labels[z*n : (z+1)*n] {
		switch {
		case v == 0:
		case !labeled:
			out[i] = 255
		case v > 255:
			out[i] = 255
			clamped++
		default:
			out[i] = uint8(v)
		}
	}

	return out, clamped
}

const (
	typeShort = 3
	typeLong  = 4

	// One directory: entry count, nine 12-byte entries, next pointer.
	ifdSize = 2 + 9*12 + 4
)

// writeMultiPage emits a little-endian multi-page TIFF by hand, since the
// tiff package encodes only a single image per file. Each page is one
// full-height strip of 8-bit grayscale samples, preceded by its image
// directory, with the directories chained in Z order. Compressed strips
// carry a zlib stream under compression tag 8, the same scheme the tiff
// package reads and writes for single images.
func writeMultiPage(w io.Writer, l *stack.Labeled, labeled, compress bool) (int, error) {
	var hdr [8]byte
	copy(hdr[0:], "II")
	binary.LittleEndian.PutUint16(hdr[2:], 42)
	binary.LittleEndian.PutUint32(hdr[4:], 8)
	if _, err := w.Write(hdr[:]); err != nil {
		return 0, err
	}

	clamped := 0
	pos := uint32(8)

	for z := 0; z < l.NZ; z++ {
		pix, c := planeBytes(l, z, labeled)
		clamped += c

		payload := pix
		compression := uint16(1)
		if compress {
			var buf bytes.Buffer
			zw := zlib.NewWriter(&buf)
			if _, err := zw.Write(pix); err != nil {
				return clamped, err
			}
			if err := zw.Close(); err != nil {
				return clamped, err
			}

			payload = buf.Bytes()
			compression = 8
		}

		// Directory offsets must stay word-aligned, so odd payloads get
		// one pad byte before the next page.
		pad := uint32(len(payload) & 1)
		stripOff := pos + ifdSize
		next := stripOff + uint32(len(payload)) + pad
		if z == l.NZ-1 {
			next = 0
		}

		if _, err := w.Write(directory(l, compression, stripOff, uint32(len(payload)), next)); err != nil {
			return clamped, err
		}
		if _, err := w.Write(payload); err != nil {
			return clamped, err
		}
		if pad == 1 {
			if _, err := w.Write([]byte{0}); err != nil {
				return clamped, err
			}
		}

		pos = stripOff + uint32(len(payload)) + pad
	}

	return clamped, nil
}

// directory encodes one page's image directory. Entries must be sorted by
// tag: width, length, bits per sample, compression, photometric
// interpretation, strip offset, samples per pixel, rows per strip, strip
// byte count.
func directory(l *stack.Labeled, compression uint16, stripOff, stripLen, next uint32) []byte {
	entries := []struct {
		tag   uint16
		typ   uint16
		value uint32
	}{
		{256, typeLong, uint32(l.NX)},
		{257, typeLong, uint32(l.NY)},
		{258, typeShort, 8},
		{259, typeShort, uint32(compression)},
		{262, typeShort, 1},
		{273, typeLong, stripOff},
		{277, typeShort, 1},
		{278, typeLong, uint32(l.NY)},
		{279, typeLong, stripLen},
	}

	out := make([]byte, ifdSize)
	le := binary.LittleEndian

	le.PutUint16(out[0:], uint16(len(entries)))
	for i, e := range entries {
		off := 2 + i*12
		le.PutUint16(out[off:], e.tag)
		le.PutUint16(out[off+2:], e.typ)
		le.PutUint32(out[off+4:], 1)
		if e.typ == typeShort {
			le.PutUint16(out[off+8:], uint16(e.value))
		} else {
			le.PutUint32(out[off+8:], e.value)
		}
	}
	le.PutUint32(out[ifdSize-4:], next)

	return out
}
