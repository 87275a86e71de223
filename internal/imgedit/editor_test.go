package imgedit

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/blacktop/postcraft/internal/compose"
)

func newTestEditor(t *testing.T, opts Options) *Editor {
	t.Helper()
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func solid(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

func differs(a, b image.Image, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				return true
			}
		}
	}
	return false
}

func TestCropCenterMakesSquare(t *testing.T) {
	e := newTestEditor(t, Options{})
	for _, size := range []image.Point{{300, 200}, {200, 300}, {64, 64}} {
		out := e.CropCenter(solid(size.X, size.Y, color.White))
		side := min(size.X, size.Y)
		assert.Equal(t, image.Rect(0, 0, side, side), out.Bounds())
	}
}

func TestFadeDarkens(t *testing.T) {
	e := newTestEditor(t, Options{FadeOpacity: 0.5})
	src := solid(10, 10, color.White)

	out := e.Fade(src)
	r, _, _, _ := out.At(5, 5).RGBA()
	assert.Less(t, r, uint32(0xffff))
	assert.Greater(t, r, uint32(0))

	// input untouched
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, src.NRGBAAt(5, 5))
}

func TestBlurKeepsBounds(t *testing.T) {
	e := newTestEditor(t, Options{})
	src := solid(32, 32, color.Black)
	src.SetNRGBA(16, 16, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	out := e.Blur(src)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.NotEqual(t, src.At(15, 16), out.At(15, 16))
}

func TestWriteTextDrawsIntoCopy(t *testing.T) {
	e := newTestEditor(t, Options{})
	src := solid(400, 400, color.Black)

	out := e.WriteText(src, "Hello from the caption")
	assert.True(t, differs(src, out, out.Bounds()))
	assert.False(t, differs(src, solid(400, 400, color.Black), src.Bounds()))

	blank := e.WriteText(src, "  \n ")
	assert.False(t, differs(src, blank, blank.Bounds()))
}

func TestWriteCountDrawsBadgeTopLeft(t *testing.T) {
	e := newTestEditor(t, Options{})
	src := solid(240, 240, color.Black)

	out := e.WriteCount(src, 2)
	assert.True(t, differs(src, out, image.Rect(0, 0, 60, 60)))
	assert.False(t, differs(src, out, image.Rect(120, 120, 240, 240)))
}

func TestWriteBrand(t *testing.T) {
	src := solid(320, 320, color.Black)

	none := newTestEditor(t, Options{Brand: " "}).WriteBrand(src)
	assert.False(t, differs(src, none, none.Bounds()))

	branded := newTestEditor(t, Options{Brand: "postcraft"}).WriteBrand(src)
	assert.True(t, differs(src, branded, image.Rect(0, 280, 320, 320)))
	assert.False(t, differs(src, branded, image.Rect(0, 0, 320, 200)))
}

func TestWriteBrandWithLogo(t *testing.T) {
	logoPath := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, imaging.Save(solid(40, 20, color.White), logoPath))

	e := newTestEditor(t, Options{LogoPath: logoPath})
	src := solid(300, 300, color.Black)
	out := e.WriteBrand(src)

	assert.True(t, differs(src, out, image.Rect(200, 250, 300, 300)))
	assert.False(t, differs(src, out, image.Rect(0, 0, 150, 150)))
}

func TestNewMissingLogo(t *testing.T) {
	_, err := New(Options{LogoPath: filepath.Join(t.TempDir(), "missing.png")})
	require.Error(t, err)
}

func TestEditorInFullPipeline(t *testing.T) {
	e := newTestEditor(t, Options{Brand: "postcraft"})
	src := solid(600, 400, color.NRGBA{R: 40, G: 120, B: 200, A: 255})

	out := compose.EditPipeline(e, src, "A caption long enough to wrap across more than one line", 3)
	assert.Equal(t, image.Rect(0, 0, 400, 400), out.Bounds())
}

func TestWrap(t *testing.T) {
	face := basicfont.Face7x13 // 7px per glyph

	lines := wrap(face, "aaa bbb ccc", fixed.I(7*7))
	assert.Equal(t, []string{"aaa bbb", "ccc"}, lines)

	lines = wrap(face, "first\n\nsecond", fixed.I(700))
	assert.Equal(t, []string{"first", "second"}, lines)

	lines = wrap(face, "supercalifragilistic", fixed.I(14))
	assert.Equal(t, []string{"supercalifragilistic"}, lines)
}
