package st7735

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseInitTable(t *testing.T) {
	tests := []struct {
		name    string
		table   []byte
		want    []Command
		wantErr bool
	}{
		{
			name:  "terminator only",
			table: []byte{nop},
		},
		{
			name:  "no arguments",
			table: []byte{displayOn, 0, nop},
			want:  []Command{{Opcode: displayOn, Args: []byte{}}},
		},
		{
			name:  "delay flag",
			table: []byte{softwareReset, 0x80, memoryAccess, 0x81, 0xC0, nop},
			want: []Command{
				{Opcode: softwareReset, Args: []byte{}, Delay: true},
				{Opcode: memoryAccess, Args: []byte{0xC0}, Delay: true},
			},
		},
		{
			name:  "bytes after terminator are ignored",
			table: []byte{pixelFormat, 1, 0x05, nop, 0xFF},
			want:  []Command{{Opcode: pixelFormat, Args: []byte{0x05}}},
		},
		{
			name:    "empty",
			table:   nil,
			wantErr: true,
		},
		{
			name:    "missing terminator",
			table:   []byte{displayOn, 0},
			wantErr: true,
		},
		{
			name:    "missing length",
			table:   []byte{displayOn},
			wantErr: true,
		},
		{
			name:    "truncated arguments",
			table:   []byte{frameControl1, 3, 0x05, 0x3C},
			wantErr: true,
		},
		{
			name:    "length ignores the delay flag",
			table:   []byte{frameControl1, 0x83, 0x05, 0x3C},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInitTable(tt.table)
			if tt.wantErr {
				if !errors.Is(err, ErrInitTable) {
					t.Fatalf("error = %v, want ErrInitTable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d commands, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.Opcode != w.Opcode || g.Delay != w.Delay || !bytes.Equal(g.Args, w.Args) {
					t.Errorf("command %d = %+v, want %+v", i, g, w)
				}
			}
		})
	}
}

func TestDefaultInitTable(t *testing.T) {
	cmds, err := ParseInitTable(defaultInitTable(0xA0))
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 15 {
		t.Errorf("got %d commands, want 15", len(cmds))
	}
	for _, c := range cmds {
		if c.Delay {
			t.Errorf("command 0x%02X requests a delay", c.Opcode)
		}
		switch c.Opcode {
		case memoryAccess:
			if !bytes.Equal(c.Args, []byte{0xA0}) {
				t.Errorf("MADCTL args = % X", c.Args)
			}
		case pixelFormat:
			if !bytes.Equal(c.Args, []byte{0x05}) {
				t.Errorf("COLMOD args = % X, want 05", c.Args)
			}
		case gammaControlPositive, gammaControlNegative:
			if len(c.Args) != 16 {
				t.Errorf("gamma 0x%02X has %d args, want 16", c.Opcode, len(c.Args))
			}
		}
	}
	if last := cmds[len(cmds)-1]; last.Opcode != displayOn {
		t.Errorf("last command = 0x%02X, want display on", last.Opcode)
	}
}

func TestRunInitTableRejectsBeforeSending(t *testing.T) {
	d, p := newTestDev(t, nil)
	err := d.runInitTable([]byte{displayOn, 0, frameControl1, 3, 0x05})
	if !errors.Is(err, ErrInitTable) {
		t.Fatalf("error = %v, want ErrInitTable", err)
	}
	if n := len(p.Ops()); n != 0 {
		t.Errorf("%d transfers before the table was rejected", n)
	}
}

func TestRunInitTableDelays(t *testing.T) {
	d, p := newTestDev(t, nil)
	table := []byte{
		softwareReset, 0x80,
		sleepOut, 0x80,
		frameControl1, 3, 0x05, 0x3C, 0x3C,
		displayOn, 0,
		nop,
	}
	if err := d.runInitTable(table); err != nil {
		t.Fatal(err)
	}
	s := p.Sleeps()
	if len(s) != 2 || s[0] != InitTableDelay || s[1] != InitTableDelay {
		t.Errorf("Sleeps() = %v, want two init table delays", s)
	}
	cmds := p.Commands()
	if len(cmds) != 4 {
		t.Fatalf("Commands() = %+v, want 4", cmds)
	}
	if !bytes.Equal(cmds[2].Args, []byte{0x05, 0x3C, 0x3C}) {
		t.Errorf("frame control args = % X", cmds[2].Args)
	}
}
