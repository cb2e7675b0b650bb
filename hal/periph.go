package hal

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph drives the board through periph.io GPIO lines.
type Periph struct {
	pins   [NumPins]gpio.PinIO
	dir    [NumPins]Direction
	levels [NumPins]Level
	err    error
}

// OpenPeriph initializes periph host drivers and resolves every logical
// pin through names. All pins start as floating inputs.
func OpenPeriph(names map[string]string) (*Periph, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host initialization")
	}
	if names == nil {
		names = DefaultPins
	}
	p := &Periph{}
	for pin := Pin(0); pin < NumPins; pin++ {
		name, ok := names[pin.String()]
		if !ok {
			return nil, errors.Errorf("no gpio assigned to %s", pin)
		}
		io := gpioreg.ByName(name)
		if io == nil {
			return nil, errors.Errorf("gpio \"%s\" for %s not found", name, pin)
		}
		if err := io.In(gpio.Float, gpio.NoEdge); err != nil {
			return nil, errors.Wrapf(err, "setting %s (%s) as input", pin, name)
		}
		p.pins[pin] = io
	}
	return p, nil
}

func (p *Periph) fail(err error, pin Pin) {
	if err != nil && p.err == nil {
		p.err = errors.Wrapf(err, "gpio %s (%s)", pin, p.pins[pin].Name())
	}
}

func (p *Periph) SetDirection(pin Pin, d Direction) {
	if p.dir[pin] == d {
		return
	}
	p.dir[pin] = d
	if d == Output {
		p.fail(p.pins[pin].Out(gpio.Level(p.levels[pin])), pin)
	} else {
		p.fail(p.pins[pin].In(gpio.Float, gpio.NoEdge), pin)
	}
}

// SetLevel on an input pin is remembered and applied when it turns output.
func (p *Periph) SetLevel(pin Pin, l Level) {
	p.levels[pin] = l
	if p.dir[pin] == Output {
		p.fail(p.pins[pin].Out(gpio.Level(l)), pin)
	}
}

func (p *Periph) ReadLevel(pin Pin) Level {
	return Level(p.pins[pin].Read())
}

func (p *Periph) ReadBus() (v byte) {
	for i, pin := range DataPins {
		if p.pins[pin].Read() == gpio.High {
			v |= 1 << uint(i)
		}
	}
	return v
}

func (p *Periph) WriteBus(v byte) {
	for i, pin := range DataPins {
		p.SetLevel(pin, v>>uint(i)&1 == 1)
	}
}

// Delay spins for sub-millisecond durations, the scheduler can't be
// trusted with setup and hold times that short.
func (p *Periph) Delay(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	for t0 := time.Now(); time.Since(t0) < d; {
	}
}

// Err returns the first gpio failure, then forgets it.
func (p *Periph) Err() error {
	err := p.err
	p.err = nil
	return err
}
