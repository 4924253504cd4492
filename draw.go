package st7735

import (
	"fmt"
	"image"

	"periph.io/x/devices/v3/st7735/rgb565"
)

// streamColor sends n pixels of c into the current window.
func (d *Dev) streamColor(c rgb565.Color, n int) error {
	if n <= 0 {
		return nil
	}
	per := max(1, min(n, d.maxTxSize/2))
	buf := make([]byte, 2*per)
	px := c.Bytes()
	for i := 0; i < len(buf); i += 2 {
		buf[i], buf[i+1] = px[0], px[1]
	}
	for n > 0 {
		k := min(n, per)
		if err := d.sendData(buf[:2*k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// FillRect fills the rectangle from (x1, y1) inclusive to (x2, y2) exclusive.
func (d *Dev) FillRect(x1, y1, x2, y2 int, c rgb565.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return d.fillRect(image.Rect(x1, y1, x2, y2), c)
}

// Clear fills the whole display with c.
func (d *Dev) Clear(c rgb565.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return d.fillRect(d.rect, c)
}

func (d *Dev) fillRect(r image.Rectangle, c rgb565.Color) error {
	if r.Empty() {
		return nil
	}
	if err := d.checkRect(r); err != nil {
		return err
	}
	if err := d.setAddressWindow(r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1); err != nil {
		return err
	}
	return d.streamColor(c, r.Dx()*r.Dy())
}

// DrawPixel sets the pixel at (x, y).
func (d *Dev) DrawPixel(x, y int, c rgb565.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return fmt.Errorf("%w: pixel (%d,%d) outside display %v", ErrPrecondition, x, y, d.rect)
	}
	return d.pixel(x, y, c)
}

func (d *Dev) pixel(x, y int, c rgb565.Color) error {
	if err := d.setAddressWindow(x, y, x, y); err != nil {
		return err
	}
	px := c.Bytes()
	return d.sendData(px[:])
}

// plot draws a pixel of a larger shape; points off the panel are skipped.
func (d *Dev) plot(x, y int, c rgb565.Color) error {
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return nil
	}
	return d.pixel(x, y, c)
}

// DrawLine draws a line from (x1, y1) to (x2, y2), both ends included.
func (d *Dev) DrawLine(x1, y1, x2, y2 int, c rgb565.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return d.line(x1, y1, x2, y2, c)
}

// line walks max(|dx|,|dy|)+1 points. Each axis keeps its own error term; the
// x term is tested before the y term and both may step in the same iteration.
// An axis steps once its term reaches distance (>=), so the last point is (x2, y2).
func (d *Dev) line(x1, y1, x2, y2 int, c rgb565.Color) error {
	dx, dy := x2-x1, y2-y1
	incx, incy := sign(dx), sign(dy)
	dx, dy = dx*incx, dy*incy
	distance := max(dx, dy)

	x, y := x1, y1
	xerr, yerr := 0, 0
	for t := 0; t <= distance; t++ {
		if err := d.plot(x, y, c); err != nil {
			return err
		}
		xerr += dx
		yerr += dy
		if xerr >= distance {
			xerr -= distance
			x += incx
		}
		if yerr >= distance {
			yerr -= distance
			y += incy
		}
	}
	return nil
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// DrawRect draws the outline of the rectangle with corners (x1, y1) and (x2, y2).
func (d *Dev) DrawRect(x1, y1, x2, y2 int, c rgb565.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	edges := [4][4]int{
		{x1, y1, x2, y1},
		{x1, y1, x1, y2},
		{x1, y2, x2, y2},
		{x2, y1, x2, y2},
	}
	for _, e := range edges {
		if err := d.line(e[0], e[1], e[2], e[3], c); err != nil {
			return err
		}
	}
	return nil
}

// DrawCircle draws a circle of radius r centered on (x0, y0).
func (d *Dev) DrawCircle(x0, y0, r int, c rgb565.Color) error {
	if r < 0 {
		return fmt.Errorf("%w: negative radius %d", ErrPrecondition, r)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}

	a, b := 0, r
	for a <= b {
		points := [8][2]int{
			{x0 - b, y0 - a},
			{x0 + b, y0 - a},
			{x0 - a, y0 + b},
			{x0 - a, y0 - b},
			{x0 + b, y0 + a},
			{x0 + a, y0 - b},
			{x0 + a, y0 + b},
			{x0 - b, y0 + a},
		}
		for _, p := range points {
			if err := d.plot(p[0], p[1], c); err != nil {
				return err
			}
		}
		a++
		if a*a+b*b > r*r {
			b--
		}
	}
	return nil
}

// DrawBitmap copies a width x height block of pre-encoded RGB565 pixels
// (2 bytes each, high byte first, row-major) to (x, y).
func (d *Dev) DrawBitmap(x, y, width, height int, pixels []byte) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	n := 2 * width * height
	if len(pixels) < n {
		return fmt.Errorf("%w: bitmap needs %d bytes, got %d", ErrPrecondition, n, len(pixels))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	if err := d.checkRect(image.Rect(x, y, x+width, y+height)); err != nil {
		return err
	}
	if err := d.setAddressWindow(x, y, x+width-1, y+height-1); err != nil {
		return err
	}
	return d.sendData(pixels[:n])
}
