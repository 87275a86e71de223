package imgedit

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/blacktop/postcraft/internal/logutil"
)

const (
	defaultBlurSigma   = 2.5
	defaultFadeOpacity = 0.45

	captionScale = 16 // caption font size is width/captionScale
	badgeScale   = 12
	brandScale   = 32
	minFontSize  = 8
	wrapPercent  = 85
)

var badgeColor = color.NRGBA{R: 0x7D, G: 0x56, B: 0xF4, A: 0xFF}

// Options tune the editing pipeline.
type Options struct {
	BlurSigma   float64
	FadeOpacity float64
	Brand       string
	LogoPath    string
}

// Editor implements compose.ImageEditor. Every method returns a new image.
type Editor struct {
	opts Options
	font *opentype.Font
	logo image.Image
}

// New parses the caption font and loads the optional logo.
func New(opts Options) (*Editor, error) {
	if opts.BlurSigma <= 0 {
		opts.BlurSigma = defaultBlurSigma
	}
	if opts.FadeOpacity <= 0 || opts.FadeOpacity > 1 {
		opts.FadeOpacity = defaultFadeOpacity
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	e := &Editor{opts: opts, font: f}
	if opts.LogoPath != "" {
		logo, err := imaging.Open(opts.LogoPath)
		if err != nil {
			return nil, fmt.Errorf("open logo: %w", err)
		}
		e.logo = logo
	}
	return e, nil
}

// CropCenter keeps the largest centred square.
func (e *Editor) CropCenter(img image.Image) image.Image {
	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	return imaging.CropCenter(img, side, side)
}

// Blur applies a Gaussian blur.
func (e *Editor) Blur(img image.Image) image.Image {
	return imaging.Blur(img, e.opts.BlurSigma)
}

// Fade darkens the image so burned-in text stays readable.
func (e *Editor) Fade(img image.Image) image.Image {
	b := img.Bounds()
	shade := imaging.New(b.Dx(), b.Dy(), color.Black)
	return imaging.Overlay(img, shade, b.Min, e.opts.FadeOpacity)
}

// WriteText burns text, word-wrapped and centred, into the image.
func (e *Editor) WriteText(img image.Image, text string) image.Image {
	dst := imaging.Clone(img)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	face := e.face(float64(w) / captionScale)
	defer face.Close()

	lines := wrap(face, text, fixed.I(w*wrapPercent/100))
	if len(lines) == 0 {
		return dst
	}

	metrics := face.Metrics()
	total := metrics.Height.Mul(fixed.I(len(lines)))
	y := (fixed.I(h)-total)/2 + metrics.Ascent
	for _, line := range lines {
		x := (fixed.I(w) - font.MeasureString(face, line)) / 2
		d := &font.Drawer{Dst: dst, Src: image.White, Face: face, Dot: fixed.Point26_6{X: x, Y: y}}
		d.DrawString(line)
		y += metrics.Height
	}
	return dst
}

// WriteCount draws a numbered badge in the top-left corner.
func (e *Editor) WriteCount(img image.Image, count int) image.Image {
	dst := imaging.Clone(img)
	w := dst.Bounds().Dx()

	face := e.face(float64(w) / badgeScale)
	defer face.Close()

	label := strconv.Itoa(count)
	metrics := face.Metrics()
	pad := metrics.Height.Ceil() / 3
	labelWidth := font.MeasureString(face, label).Ceil()
	badge := image.Rect(pad, pad, pad*3+labelWidth, pad*3+metrics.Height.Ceil())
	draw.Draw(dst, badge, image.NewUniform(badgeColor), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(pad*2, pad*2+metrics.Ascent.Ceil()),
	}
	d.DrawString(label)
	return dst
}

// WriteBrand overlays the logo in the bottom-right corner and the brand
// text along the bottom edge.
func (e *Editor) WriteBrand(img image.Image) image.Image {
	dst := imaging.Clone(img)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	margin := max(w/40, 2)

	if e.logo != nil {
		logo := imaging.Resize(e.logo, max(w/6, 1), 0, imaging.Lanczos)
		lb := logo.Bounds()
		dst = imaging.Overlay(dst, logo, image.Pt(w-lb.Dx()-margin, h-lb.Dy()-margin), 1)
	}

	brand := strings.TrimSpace(e.opts.Brand)
	if brand == "" {
		return dst
	}
	face := e.face(float64(w) / brandScale)
	defer face.Close()

	x := (fixed.I(w) - font.MeasureString(face, brand)) / 2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: fixed.I(h-margin) - face.Metrics().Descent},
	}
	d.DrawString(brand)
	return dst
}

func (e *Editor) face(size float64) font.Face {
	if size < minFontSize {
		size = minFontSize
	}
	face, err := opentype.NewFace(e.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		logutil.Warnf("falling back to bitmap font: %v", err)
		return basicfont.Face7x13
	}
	return face
}

// wrap breaks text into lines no wider than maxWidth. Explicit newlines
// start a new line; a single word wider than maxWidth gets its own line.
func wrap(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if font.MeasureString(face, candidate) > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
