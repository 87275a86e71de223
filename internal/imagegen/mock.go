package imagegen

import (
	"context"
	"hash/fnv"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const mockSize = 512

// Mock paints deterministic two-colour gradients seeded by the prompt so the
// whole flow can be exercised without an image backend.
type Mock struct {
	Candidates int
	Size       int
}

func (m Mock) Generate(_ context.Context, prompt string) ([]image.Image, error) {
	n := m.Candidates
	if n < 1 {
		n = 1
	}
	size := m.Size
	if size < 2 {
		size = mockSize
	}

	images := make([]image.Image, n)
	for i := range images {
		from, to := palette(prompt, i)
		images[i] = gradient(size, from, to)
	}
	return images, nil
}

func palette(prompt string, i int) (color.NRGBA, color.NRGBA) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	_, _ = h.Write([]byte{byte(i)})
	sum := h.Sum32()
	from := color.NRGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 255}
	to := color.NRGBA{R: 255 - from.R, G: 255 - from.G, B: 255 - from.B, A: 255}
	return from, to
}

func gradient(size int, from, to color.NRGBA) *image.NRGBA {
	img := imaging.New(size, size, from)
	for y := 0; y < size; y++ {
		t := float64(y) / float64(size-1)
		c := color.NRGBA{
			R: lerp(from.R, to.R, t),
			G: lerp(from.G, to.G, t),
			B: lerp(from.B, to.B, t),
			A: 255,
		}
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
