// Package st7735 controls a ST7735 TFT LCD display via SPI.
//
// The ST7735 is a 262K color TFT controller with 132×162 pixels of RAM, usually
// mounted on 128×160 panels. This driver runs it at 16 bits per pixel (RGB565)
// and draws straight into controller RAM; there is no frame buffer on the host.
//
// # Display Characteristics
//
// - 16-bit RGB565 color, high byte first on the wire
// - 128×160 portrait or 160×128 landscape, selected at creation
// - Drawing primitives: filled rectangles, pixels, lines, outlines, circles,
// 8×16 text and raw bitmaps
// - Display inversion and sleep
//
// # Hardware Connection
//
// Connect the ST7735 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDA         → SPI Data (MOSI)
//	A0/DC       → GPIO (any available pin)
//	CS          → SPI Chip Select
//	RESET       → GPIO (any available pin)
//	LED         → 3.3V (backlight)
//
// # Basic Usage
//
// Example of creating and using the display:
//
//	package main
//
//	import (
//		"log"
//
//		"periph.io/x/devices/v3/st7735"
//		"periph.io/x/devices/v3/st7735/rgb565"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		if _, err := host.Init(); err != nil {
//			log.Fatal(err)
//		}
//
//		// Landscape panel on the default SPI port.
//		dev, err := st7735.Open("", "GPIO25", "GPIO24", nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Close()
//
//		dev.Clear(rgb565.White)
//		dev.DrawRect(10, 10, 60, 40, rgb565.Red)
//		dev.DrawCircle(120, 64, 30, rgb565.Blue)
//		dev.DrawString(0, 7, "hello")
//	}
//
// NewSPI takes an already opened spi.Port and gpio.PinOut lines instead.
//
// # Initialization
//
// Creation pulses the reset line (20ms low, then 200ms), wakes the controller
// from sleep (100ms) and replays the configuration table. The table is a
// sequence of records:
//
//	opcode, length, args...
//
// length&0x7F is the number of argument bytes; bit 7 asks for a 150ms pause
// after the command. An opcode of 0x00 ends the table. Opts.InitTable
// replaces the built-in table; it is validated with ParseInitTable before
// anything is sent.
//
// # Coordinates
//
// Drawing coordinates are relative to the visible panel. The controller RAM is
// larger than the glass, so each rotation adds a fixed column and row offset:
//
//	Rotation     Size     MADCTL  Column  Row
//	Rotation0    128×160  0x00    +2      +1
//	Rotation90   160×128  0x70    +1      +2
//	Rotation180  128×160  0xC0    +2      +1
//	Rotation270  160×128  0xA0    +1      +2
//
// FillRect takes an exclusive end corner. DrawLine and DrawRect include both
// ends. Shapes drawn with DrawLine, DrawRect and DrawCircle are clipped to the
// panel; DrawPixel, FillRect, DrawBitmap, DrawGlyph and DrawString fail with
// ErrPrecondition when they don't fit.
//
// # Text
//
// Glyphs are 8×16 cells. DrawString places character i at column x + 8*i and
// takes y as a text row, so the line starts at pixel row y*16. The default
// font is golang.org/x/image/font/basicfont.Face7x13; FaceFont converts any
// other font.Face and GlyphTable accepts hand-made bitmaps.
//
// # Errors
//
// ErrDeviceNotFound, ErrResourceExhausted and ErrPrecondition are sentinel
// errors to test with errors.Is. Bus and line failures are returned as
// *TransportError and abandon the operation in progress; the panel may show a
// partially drawn shape.
//
// # Concurrency
//
// A Dev is safe for concurrent use. Each call holds the device for its whole
// bus sequence, so the address window and the pixels that follow it are never
// interleaved with another call.
//
// # Compatibility
//
// Dev implements display.Drawer from periph.io and drivers.Displayer from
// tinygo.org/x/drivers, and can be published in the displayreg registry.
package st7735
