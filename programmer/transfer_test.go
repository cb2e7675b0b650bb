package programmer

import (
	"errors"
	"testing"
	"time"

	"github.com/solar3s/eeprommer/hal"
)

func testProgrammer(cfg *Config) (*Programmer, *hal.Sim) {
	sim := testSim()
	if cfg == nil {
		cfg = testConfig()
	}
	p := NewProgrammer(sim, cfg)
	p.Init()
	return p, sim
}

func TestProgrammer_ReadErased(t *testing.T) {
	p, _ := testProgrammer(nil)
	if v := p.ReadByte(9); v != 0xff {
		t.Errorf("erased cell read 0x%02x", v)
	}
	if p.Bus().Mode() != ModeStandby {
		t.Errorf("bus left in %s", p.Bus().Mode())
	}
}

func TestProgrammer_WriteRead(t *testing.T) {
	p, sim := testProgrammer(nil)

	for _, addr := range []uint16{0x0000, 0x0001, 0x0010, 0x3fff, 0x7ffe, 0x7fff} {
		for _, v := range []byte{0x00, 0xab, 0xff, 0x40, 0xbf, 0x55} {
			p.WriteByte(addr, v)
			if err := p.WaitForWriteComplete(); err != nil {
				t.Fatal(err)
			}
			if sim.Busy() {
				t.Fatalf("write completion returned during the write cycle (0x%04x)", addr)
			}
			if p.Bus().Mode() != ModeStandby {
				t.Fatalf("bus left in %s", p.Bus().Mode())
			}
			if got := p.ReadByte(addr); got != v {
				t.Errorf("0x%04x: read 0x%02x, expected 0x%02x", addr, got, v)
			}
		}
	}
	if err := sim.Err(); err != nil {
		t.Error(err)
	}
}

func TestProgrammer_WholeChip(t *testing.T) {
	if testing.Short() {
		t.Skip("writes every cell")
	}
	p, _ := testProgrammer(nil)
	for a := 0; a < ChipSize; a++ {
		p.WriteByte(uint16(a), byte(a*7+3))
		if err := p.WaitForWriteComplete(); err != nil {
			t.Fatal(err)
		}
	}
	for a := 0; a < ChipSize; a++ {
		if v := p.ReadByte(uint16(a)); v != byte(a*7+3) {
			t.Fatalf("0x%04x: read 0x%02x, expected 0x%02x", a, v, byte(a*7+3))
		}
	}
}

func TestProgrammer_WriteWithoutCompletion(t *testing.T) {
	p, sim := testProgrammer(nil)

	// the chip is still busy with the first byte and drops the second
	p.WriteByte(0x20, 0x01)
	p.WriteByte(0x21, 0x02)
	if err := p.WaitForWriteComplete(); err != nil {
		t.Fatal(err)
	}
	if sim.Peek(0x20) != 0x01 || sim.Peek(0x21) != 0xff {
		t.Errorf("cells 0x20-0x21 hold 0x%02x 0x%02x", sim.Peek(0x20), sim.Peek(0x21))
	}
}

func TestProgrammer_WriteAddressBeforeEnable(t *testing.T) {
	p, sim := testProgrammer(nil)
	p.ReadByte(0x1234)
	weSets := sim.Sets(hal.WriteEnable)

	p.WriteByte(0x0042, 0x99)
	if sim.Address() != 0x0042 {
		t.Errorf("address register shows 0x%04x", sim.Address())
	}
	// Write mode entry plus the pulse itself
	if n := sim.Sets(hal.WriteEnable) - weSets; n < 2 {
		t.Errorf("/WE set %d times during a write", n)
	}
	if err := p.WaitForWriteComplete(); err != nil {
		t.Fatal(err)
	}
	if sim.Peek(0x42) != 0x99 {
		t.Errorf("cell 0x42 = 0x%02x", sim.Peek(0x42))
	}
}

func TestProgrammer_PollLimit(t *testing.T) {
	cfg := testConfig()
	cfg.PollLimit = 5
	p, sim := testProgrammer(cfg)
	sim.WriteCycle = 1 << 20

	p.WriteByte(0x0000, 0x12)
	err := p.WaitForWriteComplete()
	if !errors.Is(err, ErrWriteTimeout) {
		t.Fatalf("expected ErrWriteTimeout, got %v", err)
	}
	if StatusOf(err) != StatusUnknown {
		t.Errorf("write timeout classified %s", StatusOf(err))
	}
	if p.Bus().Mode() != ModeStandby || sim.Level(hal.ChipEnable) != hal.High {
		t.Error("bus not back in Standby after giving up")
	}
}

func TestProgrammer_ZeroTimingsUseDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.SettleDelay = 0
	cfg.PulseWidth = 0
	cfg.PollDelay = 0
	p, sim := testProgrammer(cfg)

	if p.bus.settle != time.Duration(DefaultConfig.SettleDelay) {
		t.Errorf("settle delay %s, expected %s", p.bus.settle, time.Duration(DefaultConfig.SettleDelay))
	}
	if p.pulse != time.Duration(DefaultConfig.PulseWidth) {
		t.Errorf("/WE pulse %s, expected %s", p.pulse, time.Duration(DefaultConfig.PulseWidth))
	}
	if p.poll != time.Duration(DefaultConfig.PollDelay) {
		t.Errorf("poll delay %s, expected %s", p.poll, time.Duration(DefaultConfig.PollDelay))
	}

	sim.Elapsed = 0
	p.ReadByte(0)
	if want := 2 * time.Duration(DefaultConfig.SettleDelay); sim.Elapsed < want {
		t.Errorf("read waited %s, expected at least %s", sim.Elapsed, want)
	}
}
