package st7735

import (
	"image/color"

	"tinygo.org/x/drivers"

	"periph.io/x/devices/v3/st7735/rgb565"
)

// Dev draws straight into controller RAM, so the tinygo graphics libraries
// (tinyfont, tinydraw, tinyterm) can render on it without a frame buffer.
var _ drivers.Displayer = &Dev{}

// Size returns the display size in pixels.
func (d *Dev) Size() (x, y int16) {
	return int16(d.rect.Dx()), int16(d.rect.Dy())
}

// SetPixel draws one pixel immediately. Points off the panel are ignored.
// Transfer errors are reported by the next Display call.
func (d *Dev) SetPixel(x, y int16, c color.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted || d.pixelErr != nil {
		return
	}
	d.pixelErr = d.plot(int(x), int(y), rgb565.Model.Convert(c).(rgb565.Color))
}

// Display returns, and clears, the first error hit by SetPixel since the
// previous call. Pixels are already on the panel.
func (d *Dev) Display() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	err := d.pixelErr
	d.pixelErr = nil
	return err
}
