package programmer

import (
	"time"

	"github.com/solar3s/eeprommer/hal"
)

// Bus owns data bus direction and the EEPROM control lines
// (/CE, /OE, /WE) through the Standby, Read and Write modes.
type Bus struct {
	board  hal.Board
	settle time.Duration
	mode   Mode
}

// NewBus returns a Bus assumed in Standby; call Force(ModeStandby) to
// put the lines in that state.
func NewBus(board hal.Board, settle time.Duration) *Bus {
	return &Bus{board: board, settle: settle, mode: ModeStandby}
}

// Mode returns the current bus mode.
func (b *Bus) Mode() Mode {
	return b.mode
}

// Enter switches to m. Requesting the current mode does nothing,
// no line is touched and no settle delay is spent.
func (b *Bus) Enter(m Mode) {
	if b.mode == m {
		return
	}
	b.Force(m)
}

// Force drives the lines for m whatever the current mode: data pins
// direction first, then /CE /OE /WE, then the settle delay.
func (b *Bus) Force(m Mode) {
	dir := hal.Input
	if m == ModeWrite {
		dir = hal.Output
	}
	for _, p := range hal.DataPins {
		b.board.SetDirection(p, dir)
	}

	ce, oe, we := controlLevels(m)
	b.board.SetLevel(hal.ChipEnable, ce)
	b.board.SetLevel(hal.OutputEnable, oe)
	b.board.SetLevel(hal.WriteEnable, we)

	b.board.Delay(b.settle)
	b.mode = m
}

// controlLevels returns /CE, /OE, /WE for m. /WE is only ever pulsed
// low by a byte write.
func controlLevels(m Mode) (ce, oe, we hal.Level) {
	switch m {
	case ModeRead:
		return hal.Low, hal.Low, hal.High
	case ModeWrite:
		return hal.Low, hal.High, hal.High
	default:
		return hal.High, hal.Low, hal.High
	}
}
