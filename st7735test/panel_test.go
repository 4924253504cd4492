package st7735test

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

func send(t *testing.T, p *Panel, level gpio.Level, b ...byte) {
	t.Helper()
	if err := p.DC().Out(level); err != nil {
		t.Fatal(err)
	}
	if err := p.Tx(b, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPanelWindowDecode(t *testing.T) {
	p := NewPanel()

	send(t, p, gpio.Low, cmdCASET)
	send(t, p, gpio.High, 0x00, 0x02, 0x00, 0x03)
	send(t, p, gpio.Low, cmdRASET)
	send(t, p, gpio.High, 0x00, 0x01, 0x00, 0x02)
	send(t, p, gpio.Low, cmdRAMWR)
	send(t, p, gpio.High, 0xF8, 0x00, 0x07, 0xE0, 0x00, 0x1F, 0xFF, 0xFF)

	want := []Pixel{
		{2, 1, 0xF800},
		{3, 1, 0x07E0},
		{2, 2, 0x001F},
		{3, 2, 0xFFFF},
	}
	got := p.Pixels()
	if len(got) != len(want) {
		t.Fatalf("got %d pixels, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pixel %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if c := p.At(3, 2); c != 0xFFFF {
		t.Errorf("At(3, 2) = 0x%04X, want 0xFFFF", c)
	}

	w := p.Windows()
	if len(w) != 1 || w[0].Area() != 4 || w[0].Written != 4 {
		t.Errorf("Windows() = %+v", w)
	}
}

func TestPanelCursorWraps(t *testing.T) {
	p := NewPanel()
	send(t, p, gpio.Low, cmdCASET)
	send(t, p, gpio.High, 0, 0, 0, 0)
	send(t, p, gpio.Low, cmdRASET)
	send(t, p, gpio.High, 0, 0, 0, 0)
	send(t, p, gpio.Low, cmdRAMWR)
	send(t, p, gpio.High, 0x00, 0x01, 0x00, 0x02)

	got := p.Pixels()
	if len(got) != 2 || got[1].X != 0 || got[1].Y != 0 {
		t.Errorf("Pixels() = %+v, want two writes at (0,0)", got)
	}
	if w := p.Windows()[0]; w.Written <= w.Area() {
		t.Errorf("Written = %d, want overflow of area %d", w.Written, w.Area())
	}
}

func TestPanelCommandArgs(t *testing.T) {
	p := NewPanel()
	send(t, p, gpio.Low, 0x36)
	send(t, p, gpio.High, 0xA0)
	send(t, p, gpio.Low, 0x29)

	cmds := p.Commands()
	if len(cmds) != 2 {
		t.Fatalf("Commands() = %+v", cmds)
	}
	if cmds[0].Op != 0x36 || len(cmds[0].Args) != 1 || cmds[0].Args[0] != 0xA0 {
		t.Errorf("first command = %+v", cmds[0])
	}
	if cmds[1].Op != 0x29 || len(cmds[1].Args) != 0 {
		t.Errorf("second command = %+v", cmds[1])
	}
	if ops := p.Ops(); len(ops) != 3 {
		t.Errorf("Ops() recorded %d transfers, want 3", len(ops))
	}
}

func TestPanelResetRestoresWindow(t *testing.T) {
	p := NewPanel()
	send(t, p, gpio.Low, cmdCASET)
	send(t, p, gpio.High, 0, 5, 0, 5)

	if err := p.RST().Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	// Transfers while held in reset are ignored.
	send(t, p, gpio.Low, cmdRAMWR)
	if err := p.RST().Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if p.Resets() != 1 {
		t.Errorf("Resets() = %d, want 1", p.Resets())
	}

	send(t, p, gpio.Low, cmdRAMWR)
	send(t, p, gpio.High, 0x12, 0x34)
	if got := p.Pixels(); len(got) != 1 || got[0].X != 0 || got[0].Y != 0 {
		t.Errorf("Pixels() = %+v, want one write at (0,0)", got)
	}
}

func TestPanelEventsAndSleep(t *testing.T) {
	p := NewPanel()
	send(t, p, gpio.Low, 0x11)
	p.Sleep(100 * time.Millisecond)

	ev := p.Events()
	if len(ev) != 3 {
		t.Fatalf("Events() = %v", ev)
	}
	if ev[0].Kind != EventLine || ev[0].Line != "DC" || ev[0].Level != gpio.Low {
		t.Errorf("event 0 = %v", ev[0])
	}
	if ev[1].Kind != EventTx || ev[1].Level != gpio.Low || ev[1].Data[0] != 0x11 {
		t.Errorf("event 1 = %v", ev[1])
	}
	if s := p.Sleeps(); len(s) != 1 || s[0] != 100*time.Millisecond {
		t.Errorf("Sleeps() = %v", s)
	}

	p.Clear()
	if len(p.Events()) != 0 || len(p.Ops()) != 0 {
		t.Error("Clear() left entries behind")
	}
}

func TestPanelFailures(t *testing.T) {
	boom := errors.New("boom")
	p := NewPanel()
	p.Err = boom
	p.FailAfter = 1

	if err := p.Tx([]byte{0x00}, nil); err != nil {
		t.Fatalf("first Tx = %v", err)
	}
	if err := p.Tx([]byte{0x00}, nil); !errors.Is(err, boom) {
		t.Errorf("second Tx = %v, want boom", err)
	}

	p = NewPanel()
	p.MaxTx = 2
	if err := p.Tx([]byte{1, 2, 3}, nil); err == nil {
		t.Error("oversized Tx should fail")
	}
	if err := p.Tx([]byte{1}, []byte{0}); err == nil {
		t.Error("reads should fail")
	}
}

func TestPort(t *testing.T) {
	panel := NewPanel()
	port := &Port{Panel: panel}
	c, err := port.Connect(16*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		t.Fatal(err)
	}
	if c != spi.Conn(panel) {
		t.Error("Connect returned a different conn")
	}
	if port.Freq != 16*physic.MegaHertz || port.Mode != spi.Mode0 || port.Bits != 8 {
		t.Errorf("Port recorded %v %v %d", port.Freq, port.Mode, port.Bits)
	}

	if _, err := (&Port{}).Connect(physic.MegaHertz, spi.Mode0, 8); err == nil {
		t.Error("Connect without panel should fail")
	}
}

func TestPanelRowColumnExchange(t *testing.T) {
	p := NewPanel()
	send(t, p, gpio.Low, cmdMADCTL)
	send(t, p, gpio.High, 0xA0)
	send(t, p, gpio.Low, cmdCASET)
	send(t, p, gpio.High, 0x00, 0xA0, 0x00, 0xA0)
	send(t, p, gpio.Low, cmdRASET)
	send(t, p, gpio.High, 0x00, 0x81, 0x00, 0x81)
	send(t, p, gpio.Low, cmdRAMWR)
	send(t, p, gpio.High, 0x12, 0x34)

	if c := p.At(160, 129); c != 0x1234 {
		t.Errorf("At(160, 129) = 0x%04X, want 0x1234", c)
	}

	// A reset restores the portrait scan order.
	if err := p.RST().Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if err := p.RST().Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if w, h := p.size(); w != RAMWidth || h != RAMHeight {
		t.Errorf("size() = %dx%d after reset", w, h)
	}
}
