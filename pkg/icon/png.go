package icon

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/draw"
	"io"
	"os"
	"path/filepath"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PNG color type 6: truecolor with alpha.
const colorTypeRGBA = 6

// EncodeRGBA writes img as an 8-bit RGBA PNG. Unlike image/png, the alpha
// channel is always written, even when every pixel is opaque.
func EncodeRGBA(w io.Writer, img image.Image) error {
	m := ToNRGBA(img)
	width, height := m.Rect.Dx(), m.Rect.Dy()

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(pngSignature); err != nil {
		return err
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = 8 // bit depth
	ihdr[9] = colorTypeRGBA
	// compression, filter and interlace methods are all 0.
	if err := writeChunk(bw, "IHDR", ihdr); err != nil {
		return err
	}

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	stride := width * 4
	row := make([]byte, 1+stride)
	for y := 0; y < height; y++ {
		src := m.Pix[y*m.Stride : y*m.Stride+stride]
		// Sub filter: each byte minus the same channel of the pixel to its left.
		row[0] = 1
		for i := 0; i < stride; i++ {
			left := byte(0)
			if i >= 4 {
				left = src[i-4]
			}
			row[1+i] = src[i] - left
		}
		if _, err := zw.Write(row); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	if err := writeChunk(bw, "IDAT", idat.Bytes()); err != nil {
		return err
	}
	if err := writeChunk(bw, "IEND", nil); err != nil {
		return err
	}
	return bw.Flush()
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(data)))
	copy(hdr[4:8], typ)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:8])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	_, err := w.Write(sum[:])
	return err
}

// WritePNG encodes img with EncodeRGBA to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeRGBA(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ToNRGBA returns img as an *image.NRGBA with a zero origin, converting if
// needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok && m.Rect.Min == (image.Point{}) {
		return m
	}
	b := img.Bounds()
	m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Rect, img, b.Min, draw.Src)
	return m
}
