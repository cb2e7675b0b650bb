package programmer

import (
	"github.com/solar3s/eeprommer/hal"
)

// Sequencer presents addresses to the EEPROM through the 74HC595
// chain.
type Sequencer struct {
	board hal.Board
}

func NewSequencer(board hal.Board) *Sequencer {
	return &Sequencer{board: board}
}

// Init enables the register outputs and releases its clear line.
func (s *Sequencer) Init() {
	for _, p := range []hal.Pin{hal.ShiftOutputEnable, hal.ShiftSerial,
		hal.ShiftSerialClock, hal.ShiftRegisterClock, hal.ShiftClear} {
		s.board.SetDirection(p, hal.Output)
	}
	s.board.SetLevel(hal.ShiftOutputEnable, hal.Low)
	s.board.SetLevel(hal.ShiftClear, hal.High)
}

// Set shifts addr in MSB first, one bit per serial clock pulse, then
// pulses the register clock so all 16 lines change at once.
func (s *Sequencer) Set(addr uint16) {
	for i := 15; i >= 0; i-- {
		s.board.SetLevel(hal.ShiftSerial, addr>>uint(i)&1 == 1)
		s.pulse(hal.ShiftSerialClock)
	}
	s.pulse(hal.ShiftRegisterClock)
}

func (s *Sequencer) pulse(p hal.Pin) {
	s.board.SetLevel(p, hal.High)
	s.board.SetLevel(p, hal.Low)
}
