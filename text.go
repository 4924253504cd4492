package st7735

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"periph.io/x/devices/v3/st7735/rgb565"
)

// Character cell size in pixels.
const (
	GlyphWidth  = 8
	GlyphHeight = 16
)

// firstGlyph is the code of the first entry of a GlyphTable.
const firstGlyph = ' '

// Glyph is one character cell, a byte per row from top to bottom.
// Bit 0 of each byte is the leftmost pixel; a set bit is drawn in the
// foreground color.
type Glyph [GlyphHeight]byte

// Font maps character codes to glyphs.
type Font interface {
	// Glyph returns the glyph for code, or false if the font has none.
	Glyph(code rune) (Glyph, bool)
}

// GlyphTable is a Font indexed by code - 32.
type GlyphTable []Glyph

// Glyph implements Font.
func (t GlyphTable) Glyph(code rune) (Glyph, bool) {
	if code < firstGlyph || int(code-firstGlyph) >= len(t) {
		return Glyph{}, false
	}
	return t[code-firstGlyph], true
}

// FaceFont rasterizes the printable ASCII range of face into a GlyphTable.
// Glyphs are vertically centered in the cell; anything beyond the cell is cut.
func FaceFont(face font.Face) GlyphTable {
	m := face.Metrics()
	top := max(0, (GlyphHeight-m.Height.Ceil())/2)
	dot := fixed.Point26_6{Y: m.Ascent + fixed.I(top)}

	t := make(GlyphTable, 0x7F-firstGlyph)
	for i := range t {
		dr, mask, mp, _, ok := face.Glyph(dot, rune(firstGlyph+i))
		if !ok {
			continue
		}
		for y := 0; y < GlyphHeight; y++ {
			var row byte
			for x := 0; x < GlyphWidth; x++ {
				if !(image.Point{X: x, Y: y}.In(dr)) {
					continue
				}
				_, _, _, a := mask.At(mp.X+x-dr.Min.X, mp.Y+y-dr.Min.Y).RGBA()
				if a >= 0x8000 {
					row |= 1 << x
				}
			}
			t[i][y] = row
		}
	}
	return t
}

var defaultFont struct {
	once  sync.Once
	table GlyphTable
}

// DefaultFont returns the 7x13 fixed font from golang.org/x/image centered
// in 8x16 cells.
func DefaultFont() GlyphTable {
	defaultFont.once.Do(func() {
		defaultFont.table = FaceFont(basicfont.Face7x13)
	})
	return defaultFont.table
}

// SetTextColor sets the foreground and background colors of glyphs.
func (d *Dev) SetTextColor(fg, bg rgb565.Color) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fg, d.bg = fg, bg
}

// DrawGlyph draws the glyph for code with its top-left corner at (x, y).
// Codes the font doesn't cover fail with ErrPrecondition and draw nothing.
func (d *Dev) DrawGlyph(x, y int, code rune) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	g, ok := d.font.Glyph(code)
	if !ok {
		return fmt.Errorf("%w: no glyph for %q", ErrPrecondition, code)
	}
	if err := d.checkRect(image.Rect(x, y, x+GlyphWidth, y+GlyphHeight)); err != nil {
		return err
	}
	return d.glyph(x, y, g)
}

// glyph sends one window per glyph row, 8 pixels each.
func (d *Dev) glyph(x, y int, g Glyph) error {
	fg, bg := d.fg.Bytes(), d.bg.Bytes()
	var buf [2 * GlyphWidth]byte
	for i, bits := range g {
		if err := d.setAddressWindow(x, y+i, x+GlyphWidth-1, y+i); err != nil {
			return err
		}
		for j := 0; j < GlyphWidth; j++ {
			px := bg
			if bits&0x01 != 0 {
				px = fg
			}
			buf[2*j], buf[2*j+1] = px[0], px[1]
			bits >>= 1
		}
		if err := d.sendData(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// DrawString draws text on one line. Character i is placed at column
// x + 8*i; y is a text row, so the glyphs start at pixel row y*16.
// Nothing is drawn if any character is missing from the font or the line
// doesn't fit on the display.
func (d *Dev) DrawString(x, y int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}

	var glyphs []Glyph
	for _, code := range text {
		g, ok := d.font.Glyph(code)
		if !ok {
			return fmt.Errorf("%w: no glyph for %q", ErrPrecondition, code)
		}
		glyphs = append(glyphs, g)
	}
	if len(glyphs) == 0 {
		return nil
	}

	row := y * GlyphHeight
	if err := d.checkRect(image.Rect(x, row, x+GlyphWidth*len(glyphs), row+GlyphHeight)); err != nil {
		return err
	}
	for i, g := range glyphs {
		if err := d.glyph(x+GlyphWidth*i, row, g); err != nil {
			return err
		}
	}
	return nil
}
