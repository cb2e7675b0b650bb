package programmer

import (
	"time"

	"github.com/rkjdid/util"
	"github.com/solar3s/eeprommer/hal"
)

// Programmer performs addressed reads and writes on the EEPROM. It
// owns the bus: every access is bracketed by a mode request and a
// return to Standby.
type Programmer struct {
	board hal.Board
	bus   *Bus
	seq   *Sequencer

	pulse     time.Duration
	poll      time.Duration
	pollLimit int

	bytesRead    int
	bytesWritten int
}

func NewProgrammer(board hal.Board, cfg *Config) *Programmer {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	return &Programmer{
		board:     board,
		bus:       NewBus(board, orDefault(cfg.SettleDelay, DefaultConfig.SettleDelay)),
		seq:       NewSequencer(board),
		pulse:     orDefault(cfg.PulseWidth, DefaultConfig.PulseWidth),
		poll:      orDefault(cfg.PollDelay, DefaultConfig.PollDelay),
		pollLimit: cfg.PollLimit,
	}
}

// Init configures the control pins and the address register and puts
// the bus in Standby.
func (p *Programmer) Init() {
	for _, pin := range []hal.Pin{hal.ChipEnable, hal.OutputEnable, hal.WriteEnable} {
		p.board.SetDirection(pin, hal.Output)
	}
	p.seq.Init()
	p.bus.Force(ModeStandby)
}

// Bus exposes the mode controller.
func (p *Programmer) Bus() *Bus {
	return p.bus
}

// ReadByte returns the byte at addr.
func (p *Programmer) ReadByte(addr uint16) byte {
	p.bus.Enter(ModeRead)
	p.seq.Set(addr)
	v := p.board.ReadBus()
	p.bus.Enter(ModeStandby)
	p.bytesRead++
	return v
}

// readBlock fills buf from consecutive addresses starting at addr,
// staying in Read mode for the whole block.
func (p *Programmer) readBlock(addr uint16, buf []byte) {
	p.bus.Enter(ModeRead)
	for i := range buf {
		p.seq.Set(addr + uint16(i))
		buf[i] = p.board.ReadBus()
	}
	p.bus.Enter(ModeStandby)
	p.bytesRead += len(buf)
}

// WriteByte latches v at addr and returns as soon as /WE is released.
// The chip is then busy with its write cycle, see WaitForWriteComplete.
func (p *Programmer) WriteByte(addr uint16, v byte) {
	// address must be stable before /WE goes low
	p.seq.Set(addr)
	p.bus.Enter(ModeWrite)
	p.board.WriteBus(v)

	p.board.SetLevel(hal.WriteEnable, hal.Low)
	p.board.Delay(p.pulse)
	p.board.SetLevel(hal.WriteEnable, hal.High)

	p.bus.Enter(ModeStandby)
	p.bytesWritten++
}

// WaitForWriteComplete polls data bit 6, which toggles on every read
// while a write cycle runs, until three consecutive samples agree.
// With a poll limit configured, it gives up with ErrWriteTimeout.
func (p *Programmer) WaitForWriteComplete() error {
	p.board.SetDirection(hal.Data6, hal.Input)
	p.board.SetLevel(hal.ChipEnable, hal.High)
	p.board.SetLevel(hal.OutputEnable, hal.High)
	p.board.SetLevel(hal.WriteEnable, hal.High)
	defer p.bus.Force(ModeStandby)

	var samples [3]hal.Level
	for n := 0; p.pollLimit <= 0 || n < p.pollLimit; n++ {
		for i := range samples {
			p.board.Delay(p.poll)
			p.board.SetLevel(hal.ChipEnable, hal.Low)
			p.board.SetLevel(hal.OutputEnable, hal.Low)
			p.board.Delay(p.poll)
			samples[i] = p.board.ReadLevel(hal.Data6)
			p.board.SetLevel(hal.ChipEnable, hal.High)
			p.board.SetLevel(hal.OutputEnable, hal.High)
		}
		if samples[0] == samples[1] && samples[1] == samples[2] {
			return nil
		}
	}
	return ErrWriteTimeout
}

// orDefault returns d, or def when d isn't set.
func orDefault(d, def util.Duration) time.Duration {
	if d <= 0 {
		return time.Duration(def)
	}
	return time.Duration(d)
}
