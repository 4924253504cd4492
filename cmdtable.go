package st7735

import (
	"fmt"
	"time"
)

// Command opcodes.
const (
	nop           = 0x00
	softwareReset = 0x01
	sleepIn       = 0x10
	sleepOut      = 0x11
	inverseOff    = 0x20
	inverseOn     = 0x21
	displayOff    = 0x28
	displayOn     = 0x29
	columnAddress = 0x2A
	rowAddress    = 0x2B
	memoryWrite   = 0x2C
	memoryAccess  = 0x36
	pixelFormat   = 0x3A

	frameControl1 = 0xB1
	frameControl2 = 0xB2
	frameControl3 = 0xB3
	invControl    = 0xB4

	powerControl1 = 0xC0
	powerControl2 = 0xC1
	powerControl3 = 0xC2
	powerControl4 = 0xC3
	powerControl5 = 0xC4
	vmControl1    = 0xC5

	gammaControlPositive = 0xE0
	gammaControlNegative = 0xE1
)

const (
	// delayFlag in a record's length byte requests a pause after the command.
	delayFlag = 0x80
	argsMask  = 0x7F

	// InitTableDelay is the pause inserted after a record carrying delayFlag.
	InitTableDelay = 150 * time.Millisecond
)

// Command is one record of an initialization table.
type Command struct {
	Opcode byte
	Args   []byte
	// Delay is set when the controller needs InitTableDelay after the command.
	Delay bool
}

// ParseInitTable decodes an initialization table.
//
// The table is a sequence of records, each made of an opcode byte, a length
// byte and length&0x7F argument bytes. Bit 7 of the length byte requests a
// pause after the command. An opcode of 0x00 terminates the table; nothing
// after it is read.
func ParseInitTable(table []byte) ([]Command, error) {
	var cmds []Command
	for i := 0; ; {
		if i >= len(table) {
			return nil, fmt.Errorf("%w: missing terminator", ErrInitTable)
		}
		op := table[i]
		if op == nop {
			return cmds, nil
		}
		if i+1 >= len(table) {
			return nil, fmt.Errorf("%w: record 0x%02X at offset %d has no length", ErrInitTable, op, i)
		}
		l := table[i+1]
		n := int(l & argsMask)
		start := i + 2
		if start+n > len(table) {
			return nil, fmt.Errorf("%w: record 0x%02X at offset %d wants %d arguments, %d left", ErrInitTable, op, i, n, len(table)-start)
		}
		cmds = append(cmds, Command{
			Opcode: op,
			Args:   table[start : start+n],
			Delay:  l&delayFlag != 0,
		})
		i = start + n
	}
}

// defaultInitTable returns the built-in configuration sequence, with madctl
// selecting the scan direction.
func defaultInitTable(madctl byte) []byte {
	return []byte{
		frameControl1, 3, 0x05, 0x3C, 0x3C,
		frameControl2, 3, 0x05, 0x3C, 0x3C,
		frameControl3, 6, 0x05, 0x3C, 0x3C, 0x05, 0x3C, 0x3C,
		invControl, 1, 0x03,
		powerControl1, 3, 0x28, 0x08, 0x04,
		powerControl2, 1, 0xC0,
		powerControl3, 2, 0x0D, 0x00,
		powerControl4, 2, 0x8D, 0x2A,
		powerControl5, 2, 0x8D, 0xEE,
		vmControl1, 1, 0x1A,
		memoryAccess, 1, madctl,
		gammaControlPositive, 16,
		0x04, 0x22, 0x07, 0x0A, 0x2E, 0x30, 0x25, 0x2A,
		0x28, 0x26, 0x2E, 0x3A, 0x00, 0x01, 0x03, 0x13,
		gammaControlNegative, 16,
		0x04, 0x16, 0x06, 0x0D, 0x2D, 0x26, 0x23, 0x27,
		0x27, 0x25, 0x2D, 0x3B, 0x00, 0x01, 0x04, 0x13,
		pixelFormat, 1, 0x05, // 16 bits per pixel
		displayOn, 0,
		nop,
	}
}

// runInitTable sends every record of table. The table is validated as a
// whole before the first byte goes out.
func (d *Dev) runInitTable(table []byte) error {
	cmds, err := ParseInitTable(table)
	if err != nil {
		return err
	}
	for _, c := range cmds {
		if err := d.sendCommandData(c.Opcode, c.Args); err != nil {
			return err
		}
		if c.Delay {
			d.sleep(InitTableDelay)
		}
	}
	return nil
}
