package hal

import (
	"errors"
	"time"
)

// ChipSize is the capacity of the simulated AT28C256.
const ChipSize = 0x8000

// Sim is a software model of an AT28C256 whose address lines hang off
// a 74HC595, wired as on the real board.
//
// A byte write starts an internal write cycle lasting WriteCycle reads.
// While it runs, reads return data bit 6 toggling on every read and the
// chip ignores further writes. The byte lands in memory once the cycle
// is over.
type Sim struct {
	WriteCycle int

	// Elapsed is the sum of every Delay call, Delays their count.
	Elapsed time.Duration
	Delays  int

	// Pulses records how long the status LED stayed on, in Elapsed time.
	Pulses []time.Duration

	dir    [NumPins]Direction
	levels [NumPins]Level
	sets   [NumPins]int

	shift   uint16 // shift stage
	latch   uint16 // storage register, drives A0-A15
	mem     [ChipSize]byte
	busy    int
	toggle  Level
	pending struct {
		addr  uint16
		value byte
	}
	ledOn time.Duration
	err   error
}

// NewSim returns an erased chip, every cell 0xff.
func NewSim() *Sim {
	s := &Sim{WriteCycle: 8}
	for i := range s.mem {
		s.mem[i] = 0xff
	}
	return s
}

var errDrivenRead = errors.New("sim: reading data bus while it is driven")

func (s *Sim) SetDirection(p Pin, d Direction) {
	s.dir[p] = d
}

func (s *Sim) SetLevel(p Pin, l Level) {
	prev := s.levels[p]
	s.levels[p] = l
	s.sets[p]++
	rising := bool(!prev && l)

	switch p {
	case ShiftSerialClock:
		if rising {
			s.shift = s.shift<<1 | uint16(bit(s.levels[ShiftSerial]))
		}
	case ShiftRegisterClock:
		if rising {
			s.latch = s.shift
		}
	case ShiftClear:
		if !l {
			s.shift = 0
		}
	case WriteEnable:
		if rising && s.selected() && s.levels[OutputEnable] == High {
			s.write()
		}
	case StatusLED:
		if rising {
			s.ledOn = s.Elapsed
		} else if prev && !l {
			s.Pulses = append(s.Pulses, s.Elapsed-s.ledOn)
		}
	}
}

func (s *Sim) ReadLevel(p Pin) Level {
	for i, v := range DataPins {
		if v == p {
			return s.ReadBus()>>uint(i)&1 == 1
		}
	}
	return s.levels[p]
}

func (s *Sim) ReadBus() byte {
	for _, p := range DataPins {
		if s.dir[p] == Output {
			if s.err == nil {
				s.err = errDrivenRead
			}
			return s.driven()
		}
	}
	if !s.selected() || s.levels[OutputEnable] == High || s.levels[WriteEnable] == Low {
		return 0xff
	}
	if s.busy > 0 {
		s.toggle = !s.toggle
		s.busy--
		v := ^s.pending.value & 0x80
		if s.toggle {
			v |= 0x40
		}
		if s.busy == 0 {
			s.mem[s.pending.addr] = s.pending.value
		}
		return v
	}
	if s.levels[ShiftOutputEnable] {
		// address lines floating
		return 0xff
	}
	return s.mem[s.address()]
}

func (s *Sim) WriteBus(v byte) {
	for i, p := range DataPins {
		s.SetLevel(p, v>>uint(i)&1 == 1)
	}
}

func (s *Sim) Delay(d time.Duration) {
	s.Elapsed += d
	s.Delays++
}

func (s *Sim) Err() error {
	err := s.err
	s.err = nil
	return err
}

// Fail makes err the next board fault reported by Err.
func (s *Sim) Fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Peek returns the cell at addr, bypassing the bus.
func (s *Sim) Peek(addr uint16) byte {
	return s.mem[addr&(ChipSize-1)]
}

// Poke stores data from addr on, bypassing the bus.
func (s *Sim) Poke(addr uint16, data ...byte) {
	for i, v := range data {
		s.mem[(int(addr)+i)&(ChipSize-1)] = v
	}
}

// Sets counts SetLevel calls on p.
func (s *Sim) Sets(p Pin) int {
	return s.sets[p]
}

// Direction returns the current direction of p.
func (s *Sim) Direction(p Pin) Direction {
	return s.dir[p]
}

// Level returns the level last set on p.
func (s *Sim) Level(p Pin) Level {
	return s.levels[p]
}

// Address returns the address presented by the shift register.
func (s *Sim) Address() uint16 {
	return s.latch
}

// Busy reports whether a write cycle is in progress.
func (s *Sim) Busy() bool {
	return s.busy > 0
}

func (s *Sim) selected() bool {
	return s.levels[ChipEnable] == Low
}

func (s *Sim) address() uint16 {
	return s.latch & (ChipSize - 1)
}

func (s *Sim) driven() (v byte) {
	for i, p := range DataPins {
		if s.levels[p] {
			v |= 1 << uint(i)
		}
	}
	return v
}

func (s *Sim) write() {
	if s.busy > 0 || s.levels[ShiftOutputEnable] == High {
		return
	}
	v := byte(0xff)
	if s.dir[Data0] == Output {
		v = s.driven()
	}
	if s.WriteCycle <= 0 {
		s.mem[s.address()] = v
		return
	}
	s.pending.addr = s.address()
	s.pending.value = v
	s.busy = s.WriteCycle
}

func bit(l Level) int {
	if l {
		return 1
	}
	return 0
}
