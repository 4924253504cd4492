// Package st7735test provides an emulated ST7735 controller for tests.
//
// Panel sits on the far side of the bus: it accepts transfers as a
// spi.Conn, exposes the D/C and reset lines as gpio.PinOut, and decodes the
// command stream into controller RAM the same way the chip does. Every line
// change, transfer and delay is appended to one ordered event log.
package st7735test

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// RAM geometry of the ST7735 in portrait scan order. With the MADCTL row/column
// exchange bit set the two are swapped.
const (
	RAMWidth  = 132
	RAMHeight = 162
)

const (
	cmdCASET  = 0x2A
	cmdRASET  = 0x2B
	cmdRAMWR  = 0x2C
	cmdMADCTL = 0x36

	madctlMV = 0x20
)

// EventKind is the type of an Event.
type EventKind uint8

const (
	EventLine  EventKind = iota // A line changed level
	EventTx                     // Bytes were transferred
	EventSleep                  // The driver waited
)

// Event is one entry of the panel log.
type Event struct {
	Kind  EventKind
	Line  string        // EventLine: "DC" or "RST"
	Level gpio.Level    // EventLine: new level; EventTx: D/C level during the transfer
	Data  []byte        // EventTx
	Delay time.Duration // EventSleep
}

func (e Event) String() string {
	switch e.Kind {
	case EventLine:
		return fmt.Sprintf("%s=%s", e.Line, e.Level)
	case EventTx:
		if e.Level == gpio.Low {
			return fmt.Sprintf("cmd % X", e.Data)
		}
		return fmt.Sprintf("data % X", e.Data)
	default:
		return fmt.Sprintf("sleep %s", e.Delay)
	}
}

// Command is a decoded controller command with its argument bytes.
// RAMWR pixel data is not stored in Args.
type Command struct {
	Op   byte
	Args []byte
}

// Pixel is one pixel write in RAM coordinates.
type Pixel struct {
	X, Y  int
	Color uint16
}

// Window is one RAMWR session: the addressed region (inclusive, RAM
// coordinates) and how many pixels were written into it.
type Window struct {
	X1, Y1, X2, Y2 int
	Written        int
}

// Area returns the number of pixels the window holds.
func (w Window) Area() int {
	return (w.X2 - w.X1 + 1) * (w.Y2 - w.Y1 + 1)
}

// Panel is an emulated ST7735 controller.
type Panel struct {
	// MaxTx is reported through conn.Limits; 0 leaves the choice to the driver.
	MaxTx int
	// Err, when set, is returned by every transfer after FailAfter successful ones.
	Err       error
	FailAfter int

	mu       sync.Mutex
	rec      conntest.Record
	dc       *Line
	rst      *Line
	dcLevel  gpio.Level
	txCount  int
	events   []Event
	commands []Command
	pixels   []Pixel
	windows  []Window
	ram      [RAMHeight][RAMHeight]uint16 // indexed [y][x], sized for either scan order
	madctl   byte

	// address decoding
	cmd           byte
	colStart      int
	colEnd        int
	rowStart      int
	rowEnd        int
	curX, curY    int
	pending       []byte
	writing       bool
	resetAsserted bool
	resets        int
}

// NewPanel returns a panel in its power-on state.
func NewPanel() *Panel {
	p := &Panel{}
	p.dc = &Line{Pin: &gpiotest.Pin{N: "DC", Num: -1}, p: p}
	p.rst = &Line{Pin: &gpiotest.Pin{N: "RST", Num: -1, L: gpio.High}, p: p}
	p.powerOn()
	return p
}

func (p *Panel) powerOn() {
	p.cmd = 0
	p.madctl = 0
	p.colStart, p.colEnd = 0, RAMWidth-1
	p.rowStart, p.rowEnd = 0, RAMHeight-1
	p.writing = false
	p.pending = nil
}

// DC returns the data/command line.
func (p *Panel) DC() *Line {
	return p.dc
}

// RST returns the reset line.
func (p *Panel) RST() *Line {
	return p.rst
}

// Sleep records a delay instead of waiting.
func (p *Panel) Sleep(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{Kind: EventSleep, Delay: d})
}

// String implements conn.Conn.
func (p *Panel) String() string {
	return "st7735test.Panel"
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// MaxTxSize implements conn.Limits.
func (p *Panel) MaxTxSize() int {
	return p.MaxTx
}

// Tx implements conn.Conn. Reads are not supported.
func (p *Panel) Tx(w, r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil && p.txCount >= p.FailAfter {
		return p.Err
	}
	if p.MaxTx > 0 && len(w) > p.MaxTx {
		return fmt.Errorf("st7735test: transfer of %d bytes exceeds limit %d", len(w), p.MaxTx)
	}
	if err := p.rec.Tx(w, r); err != nil {
		return err
	}
	p.txCount++
	data := make([]byte, len(w))
	copy(data, w)
	p.events = append(p.events, Event{Kind: EventTx, Level: p.dcLevel, Data: data})
	if p.resetAsserted {
		return nil
	}
	if p.dcLevel == gpio.Low {
		for _, b := range w {
			p.command(b)
		}
		return nil
	}
	for _, b := range w {
		p.data(b)
	}
	return nil
}

// TxPackets implements spi.Conn.
func (p *Panel) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := p.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

func (p *Panel) command(op byte) {
	p.cmd = op
	p.pending = nil
	p.writing = false
	p.commands = append(p.commands, Command{Op: op})
	if op == cmdRAMWR {
		p.writing = true
		p.curX, p.curY = p.colStart, p.rowStart
		p.windows = append(p.windows, Window{X1: p.colStart, Y1: p.rowStart, X2: p.colEnd, Y2: p.rowEnd})
	}
}

func (p *Panel) data(b byte) {
	if p.writing {
		p.pending = append(p.pending, b)
		if len(p.pending) == 2 {
			p.pixel(uint16(p.pending[0])<<8 | uint16(p.pending[1]))
			p.pending = p.pending[:0]
		}
		return
	}
	if len(p.commands) == 0 {
		return
	}
	last := &p.commands[len(p.commands)-1]
	last.Args = append(last.Args, b)
	if p.cmd == cmdMADCTL && len(last.Args) == 1 {
		p.madctl = b
		return
	}
	if len(last.Args) != 4 {
		return
	}
	start := int(last.Args[0])<<8 | int(last.Args[1])
	end := int(last.Args[2])<<8 | int(last.Args[3])
	switch p.cmd {
	case cmdCASET:
		p.colStart, p.colEnd = start, end
	case cmdRASET:
		p.rowStart, p.rowEnd = start, end
	}
}

// size returns the addressable RAM size in the current scan order.
func (p *Panel) size() (w, h int) {
	if p.madctl&madctlMV != 0 {
		return RAMHeight, RAMWidth
	}
	return RAMWidth, RAMHeight
}

func (p *Panel) pixel(c uint16) {
	if w, h := p.size(); p.curX < w && p.curY < h {
		p.ram[p.curY][p.curX] = c
	}
	p.pixels = append(p.pixels, Pixel{X: p.curX, Y: p.curY, Color: c})
	if n := len(p.windows); n > 0 {
		p.windows[n-1].Written++
	}
	// The write cursor walks the window row-major and wraps at its end.
	p.curX++
	if p.curX > p.colEnd {
		p.curX = p.colStart
		p.curY++
		if p.curY > p.rowEnd {
			p.curY = p.rowStart
		}
	}
}

func (p *Panel) setLine(l *Line, level gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{Kind: EventLine, Line: l.N, Level: level})
	switch l {
	case p.dc:
		p.dcLevel = level
	case p.rst:
		if level == gpio.Low {
			p.resetAsserted = true
		} else if p.resetAsserted {
			p.resetAsserted = false
			p.resets++
			p.powerOn()
		}
	}
}

// Events returns a copy of the event log.
func (p *Panel) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Commands returns every decoded command, RAMWR included.
func (p *Panel) Commands() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Command(nil), p.commands...)
}

// Pixels returns every pixel written, in order.
func (p *Panel) Pixels() []Pixel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Pixel(nil), p.pixels...)
}

// Windows returns every RAMWR session, in order.
func (p *Panel) Windows() []Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Window(nil), p.windows...)
}

// Ops returns the raw transfers as recorded by conntest.
func (p *Panel) Ops() []conntest.IO {
	p.rec.Lock()
	defer p.rec.Unlock()
	return append([]conntest.IO(nil), p.rec.Ops...)
}

// Sleeps returns the delays requested so far.
func (p *Panel) Sleeps() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []time.Duration
	for _, e := range p.events {
		if e.Kind == EventSleep {
			out = append(out, e.Delay)
		}
	}
	return out
}

// Resets returns how many reset pulses the panel received.
func (p *Panel) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}

// At returns the RAM content at (x, y) in RAM coordinates, as addressed in
// the current scan order.
func (p *Panel) At(x, y int) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ram[y][x]
}

// Region returns the RAM content of r (RAM coordinates) in row-major order.
func (p *Panel) Region(r image.Rectangle) []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint16, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out = append(out, p.ram[y][x])
		}
	}
	return out
}

// Clear forgets the event, command, pixel and window logs. RAM is kept.
func (p *Panel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.commands = nil
	p.pixels = nil
	p.windows = nil
	p.txCount = 0
	p.rec.Lock()
	p.rec.Ops = nil
	p.rec.Unlock()
}

// Line is a digital output line wired to the panel.
type Line struct {
	*gpiotest.Pin
	p *Panel
}

// Out implements gpio.PinOut.
func (l *Line) Out(level gpio.Level) error {
	if err := l.Pin.Out(level); err != nil {
		return err
	}
	l.p.setLine(l, level)
	return nil
}

// Port is a spi.Port that connects to a Panel.
type Port struct {
	Panel *Panel
	// Err, when set, is returned by Connect.
	Err error

	Freq physic.Frequency
	Mode spi.Mode
	Bits int
}

func (p *Port) String() string {
	return "st7735test.Port"
}

// Connect implements spi.Port.
func (p *Port) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Panel == nil {
		return nil, errors.New("st7735test: no panel attached")
	}
	p.Freq, p.Mode, p.Bits = f, mode, bits
	return p.Panel, nil
}

var _ spi.Conn = &Panel{}
var _ conn.Limits = &Panel{}
var _ gpio.PinOut = &Line{}
var _ spi.Port = &Port{}
