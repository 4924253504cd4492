package st7735

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"tinygo.org/x/drivers"

	"periph.io/x/devices/v3/st7735/displayreg"
	"periph.io/x/devices/v3/st7735/rgb565"
)

// Opts is the configuration for the ST7735 display.
type Opts struct {
	// Display dimensions in pixels, after rotation.
	// Zero selects the full 128x160 (or 160x128) panel.
	W int
	H int

	// Rotation selects the scan direction. It can't be changed later.
	// Mirrored rotations are not supported.
	Rotation drivers.Rotation

	// InitTable replaces the built-in configuration sequence.
	// See ParseInitTable for the format.
	InitTable []byte

	// Font is used by DrawGlyph and DrawString. Nil selects DefaultFont.
	Font Font

	// Name publishes the ready device in displayreg. Empty skips publication.
	Name string

	// Sleep waits between reset and configuration steps. Nil selects time.Sleep.
	Sleep func(time.Duration)
}

// DefaultOpts is used when nil options are passed: a landscape 160x128 panel.
var DefaultOpts = Opts{Rotation: drivers.Rotation270}

// State is the position of the device in its initialization sequence.
type State uint8

const (
	StateUninitialized State = iota
	StateResetting
	StateWaking
	StateConfiguring
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateResetting:
		return "Resetting"
	case StateWaking:
		return "Waking"
	case StateConfiguring:
		return "Configuring"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// orientation is the fixed per-rotation setup of the panel.
type orientation struct {
	madctl    byte
	w, h      int
	colOffset int // added to every column address
	rowOffset int // added to every row address
}

func orientationOf(r drivers.Rotation) (orientation, error) {
	switch r {
	case drivers.Rotation0:
		return orientation{madctl: 0x00, w: 128, h: 160, colOffset: 2, rowOffset: 1}, nil
	case drivers.Rotation180:
		return orientation{madctl: 0xC0, w: 128, h: 160, colOffset: 2, rowOffset: 1}, nil
	case drivers.Rotation90:
		return orientation{madctl: 0x70, w: 160, h: 128, colOffset: 1, rowOffset: 2}, nil
	case drivers.Rotation270:
		return orientation{madctl: 0xA0, w: 160, h: 128, colOffset: 1, rowOffset: 2}, nil
	default:
		return orientation{}, fmt.Errorf("%w: unsupported rotation %d", ErrPrecondition, r)
	}
}

// Dev is the device handle for the ST7735 display.
type Dev struct {
	// Communication
	c         conn.Conn   // SPI connection
	dc        gpio.PinOut // Data/Command pin
	rst       gpio.PinOut // Reset pin
	maxTxSize int
	sleep     func(time.Duration)
	closer    io.Closer // SPI port, when opened by name

	// Display geometry
	rect     image.Rectangle
	rotation drivers.Rotation
	orient   orientation
	table    []byte

	// Text
	font   Font
	fg, bg rgb565.Color

	name string

	// mu serializes every composite bus operation.
	mu       sync.Mutex
	state    State
	halted   bool
	pixelErr error // first SetPixel failure, reported by Display
}

// NewSPI creates a new ST7735 device connected via SPI and initializes it.
//
// The SPI port is configured for 16MHz, Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// dc selects command (low) or data (high) bytes; rst is the active-low reset line.
//
// opts can be nil to use DefaultOpts.
func NewSPI(p spi.Port, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no SPI port", ErrDeviceNotFound)
	}
	if dc == nil {
		return nil, fmt.Errorf("%w: no data/command line", ErrDeviceNotFound)
	}
	if rst == nil {
		return nil, fmt.Errorf("%w: no reset line", ErrDeviceNotFound)
	}

	c, err := p.Connect(16*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: %w", err)
	}

	d, err := newDev(c, dc, rst, opts)
	if err != nil {
		return nil, err
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Open resolves the SPI port and both control lines by name and calls NewSPI.
// The port is closed by Close.
func Open(spiName, dcName, rstName string, opts *Opts) (*Dev, error) {
	p, err := spireg.Open(spiName)
	if err != nil {
		return nil, fmt.Errorf("%w: SPI port %q: %v", ErrDeviceNotFound, spiName, err)
	}
	dc := gpioreg.ByName(dcName)
	if dc == nil {
		p.Close()
		return nil, fmt.Errorf("%w: GPIO %q", ErrDeviceNotFound, dcName)
	}
	rst := gpioreg.ByName(rstName)
	if rst == nil {
		p.Close()
		return nil, fmt.Errorf("%w: GPIO %q", ErrDeviceNotFound, rstName)
	}
	d, err := NewSPI(p, dc, rst, opts)
	if err != nil {
		p.Close()
		return nil, err
	}
	d.closer = p
	return d, nil
}

// newDev validates opts and builds an uninitialized device.
func newDev(c conn.Conn, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}

	orient, err := orientationOf(opts.Rotation)
	if err != nil {
		return nil, err
	}
	w, h := opts.W, opts.H
	if w == 0 {
		w = orient.w
	}
	if h == 0 {
		h = orient.h
	}
	if w < 0 || w > orient.w || h < 0 || h > orient.h {
		return nil, fmt.Errorf("%w: %dx%d doesn't fit a %dx%d panel", ErrPrecondition, w, h, orient.w, orient.h)
	}

	table := opts.InitTable
	if table == nil {
		table = defaultInitTable(orient.madctl)
	}
	if _, err := ParseInitTable(table); err != nil {
		return nil, err
	}

	// Get the maxTxSize from the conn if it implements the conn.Limits interface,
	// otherwise use 4096 bytes.
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	if maxTxSize <= 0 {
		maxTxSize = 4096
	}

	font := opts.Font
	if font == nil {
		font = DefaultFont()
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Dev{
		c:         c,
		dc:        dc,
		rst:       rst,
		maxTxSize: maxTxSize,
		sleep:     sleep,
		rect:      image.Rect(0, 0, w, h),
		rotation:  opts.Rotation,
		orient:    orient,
		table:     table,
		font:      font,
		fg:        rgb565.Purple,
		bg:        rgb565.White,
		name:      opts.Name,
	}, nil
}

// init runs the power-up sequence. Any failure leaves the device in StateFailed.
func (d *Dev) init() (err error) {
	if s := d.State(); s != StateUninitialized {
		return fmt.Errorf("st7735: can't initialize from state %s", s)
	}
	defer func() {
		if err != nil {
			d.setState(StateFailed)
		}
	}()

	// Both lines are outputs idling high.
	if err := d.dc.Out(gpio.High); err != nil {
		return &TransportError{Op: "configure DC", Err: err}
	}
	if err := d.rst.Out(gpio.High); err != nil {
		return &TransportError{Op: "configure RST", Err: err}
	}

	d.setState(StateResetting)
	if err := d.reset(); err != nil {
		return err
	}

	d.setState(StateWaking)
	if err := d.wake(); err != nil {
		return err
	}

	d.setState(StateConfiguring)
	if err := d.runInitTable(d.table); err != nil {
		return err
	}

	// Publication is the last step; registry users only ever see a ready
	// device. A failure leaves the panel lit but unreachable.
	d.setState(StateReady)
	if d.name != "" {
		if err := displayreg.Register(d.name, d); err != nil {
			return fmt.Errorf("%w: %v", ErrResourceExhausted, err)
		}
	}
	return nil
}

func (d *Dev) setState(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s
}

// reset pulses the reset line and waits for the controller to come back.
func (d *Dev) reset() error {
	if err := d.rst.Out(gpio.Low); err != nil {
		return &TransportError{Op: "pull RST low", Err: err}
	}
	d.sleep(20 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return &TransportError{Op: "pull RST high", Err: err}
	}
	d.sleep(200 * time.Millisecond)
	return nil
}

// wake takes the controller out of sleep mode.
func (d *Dev) wake() error {
	if err := d.sendCommandData(sleepOut, nil); err != nil {
		return err
	}
	d.sleep(100 * time.Millisecond)
	return nil
}

// Reset pulses the reset line and replays the configuration sequence.
// Controller RAM content is lost.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateReady {
		return fmt.Errorf("st7735: can't reset from state %s", d.state)
	}
	if err := d.reset(); err != nil {
		return err
	}
	if err := d.wake(); err != nil {
		return err
	}
	if err := d.runInitTable(d.table); err != nil {
		return err
	}
	d.halted = false
	return nil
}

// State returns the initialization state of the device.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// sendCommandData sends the opcode with DC low, then its arguments with DC high.
func (d *Dev) sendCommandData(op byte, args []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return &TransportError{Op: "select command", Err: err}
	}
	if err := d.c.Tx([]byte{op}, nil); err != nil {
		return &TransportError{Op: fmt.Sprintf("send command 0x%02X", op), Err: err}
	}
	if len(args) == 0 {
		return nil
	}
	return d.sendData(args)
}

// sendData sends data bytes with DC high, split to the bus transfer limit.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return &TransportError{Op: "select data", Err: err}
	}
	for len(data) != 0 {
		var chunk []byte
		if len(data) > d.maxTxSize {
			chunk, data = data[:d.maxTxSize], data[d.maxTxSize:]
		} else {
			chunk, data = data, nil
		}
		if err := d.c.Tx(chunk, nil); err != nil {
			return &TransportError{Op: "send data", Err: err}
		}
	}
	return nil
}

// setAddressWindow selects the inclusive RAM region the next pixels go to and
// starts a memory write. Exactly (x2-x1+1)*(y2-y1+1) pixels must follow.
func (d *Dev) setAddressWindow(x1, y1, x2, y2 int) error {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	x1 += d.orient.colOffset
	x2 += d.orient.colOffset
	y1 += d.orient.rowOffset
	y2 += d.orient.rowOffset

	if err := d.sendCommandData(columnAddress, []byte{byte(x1 >> 8), byte(x1), byte(x2 >> 8), byte(x2)}); err != nil {
		return err
	}
	if err := d.sendCommandData(rowAddress, []byte{byte(y1 >> 8), byte(y1), byte(y2 >> 8), byte(y2)}); err != nil {
		return err
	}
	return d.sendCommandData(memoryWrite, nil)
}

// SendCommand sends a raw controller command with its arguments.
func (d *Dev) SendCommand(op byte, args ...byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	return d.sendCommandData(op, args)
}

// Info returns the geometry and pixel format of the display.
func (d *Dev) Info() displayreg.Info {
	return displayreg.Info{
		Width:        uint16(d.rect.Dx()),
		Height:       uint16(d.rect.Dy()),
		BitsPerPixel: 16,
		PixelFormat:  displayreg.PixelFormatRGB565,
	}
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Rotation returns the rotation selected at creation.
func (d *Dev) Rotation() drivers.Rotation {
	return d.rotation
}

// Write writes a full frame of raw RGB565 pixel data, high byte first.
// The data must be exactly 2 * width * height bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return 0, ErrHalted
	}
	if want := 2 * d.rect.Dx() * d.rect.Dy(); len(pixels) != want {
		return 0, fmt.Errorf("%w: invalid buffer size %d, want %d", ErrPrecondition, len(pixels), want)
	}
	if err := d.setAddressWindow(0, 0, d.rect.Dx()-1, d.rect.Dy()-1); err != nil {
		return 0, err
	}
	if err := d.sendData(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw draws an image onto the display.
// The dst rectangle specifies the destination region on the display.
// The src image is read starting at point sp.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}

	// Clip to display bounds
	clipped := dst.Intersect(d.rect)
	if clipped.Empty() {
		return nil
	}
	sp = sp.Add(clipped.Min.Sub(dst.Min))
	pixels := rgb565.Encode(src, image.Rectangle{Min: sp, Max: sp.Add(clipped.Size())})

	if err := d.setAddressWindow(clipped.Min.X, clipped.Min.Y, clipped.Max.X-1, clipped.Max.Y-1); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return ErrHalted
	}
	mode := byte(inverseOff)
	if invert {
		mode = inverseOn
	}
	return d.sendCommandData(mode, nil)
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, drawing fails until Reset is called.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.halted = true
	if err := d.sendCommandData(displayOff, nil); err != nil {
		return err
	}
	return d.sendCommandData(sleepIn, nil)
}

// Close halts the display, removes it from displayreg and closes the SPI
// port if Open created it.
func (d *Dev) Close() error {
	err := d.Halt()
	if d.name != "" && displayreg.ByName(d.name) == displayreg.Device(d) {
		if uerr := displayreg.Unregister(d.name); err == nil {
			err = uerr
		}
	}
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("st7735.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// checkRect fails when r doesn't lie entirely on the panel.
func (d *Dev) checkRect(r image.Rectangle) error {
	if !r.In(d.rect) {
		return fmt.Errorf("%w: %v outside display %v", ErrPrecondition, r, d.rect)
	}
	return nil
}

var _ displayreg.Device = &Dev{}
