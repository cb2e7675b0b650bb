// Package hal abstracts the pins wired between the programmer and the
// EEPROM / shift register pair. Everything above this package talks in
// logical pins and levels, never in port registers.
package hal

import (
	"fmt"
	"time"
)

// Level of a digital line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Direction of a pin.
type Direction int

const (
	Input Direction = iota
	Output
)

// Pin is a logical line of the programmer board.
type Pin int

const (
	Data0 Pin = iota
	Data1
	Data2
	Data3
	Data4
	Data5
	Data6
	Data7
	WriteEnable        // EEPROM /WE
	OutputEnable       // EEPROM /OE
	ChipEnable         // EEPROM /CE
	ShiftOutputEnable  // 74HC595 /OE
	ShiftSerial        // 74HC595 SER
	ShiftSerialClock   // 74HC595 SRCLK
	ShiftRegisterClock // 74HC595 RCLK
	ShiftClear         // 74HC595 /SRCLR
	StatusLED

	NumPins
)

// DataPins maps data bus bit i to its pin.
var DataPins = [8]Pin{Data0, Data1, Data2, Data3, Data4, Data5, Data6, Data7}

var pinNames = [NumPins]string{
	"D0", "D1", "D2", "D3", "D4", "D5", "D6", "D7",
	"WE", "OE", "CE",
	"SR_OE", "SR_SER", "SR_SRCLK", "SR_RCLK", "SR_CLR",
	"LED",
}

func (p Pin) String() string {
	if p < 0 || p >= NumPins {
		return fmt.Sprintf("Pin(%d)", int(p))
	}
	return pinNames[p]
}

// PinByName returns the pin named name, as used in config files.
func PinByName(name string) (Pin, bool) {
	for i, v := range pinNames {
		if v == name {
			return Pin(i), true
		}
	}
	return 0, false
}

// Board is the hardware the programmer drives.
//
// Pin operations don't return errors individually: a backend keeps
// the first failure and reports it through Err, which callers check
// once per command.
type Board interface {
	SetDirection(p Pin, d Direction)
	SetLevel(p Pin, l Level)
	ReadLevel(p Pin) Level

	// ReadBus samples the 8 data pins, bit i from DataPins[i].
	ReadBus() byte
	// WriteBus drives v onto the data pins, bit i to DataPins[i].
	WriteBus(v byte)

	// Delay blocks for at least d.
	Delay(d time.Duration)

	Err() error
}

// Config selects and configures a Board backend.
type Config struct {
	Driver     string            // "periph" or "sim"
	Pins       map[string]string // logical pin name -> GPIO name (periph only)
	WriteCycle int               // reads a simulated write cycle lasts (sim only)
}

const (
	DriverPeriph = "periph"
	DriverSim    = "sim"
)

// DefaultPins wires the board on a Raspberry Pi header (BCM names).
var DefaultPins = map[string]string{
	"D0": "GPIO5", "D1": "GPIO6", "D2": "GPIO12", "D3": "GPIO13",
	"D4": "GPIO16", "D5": "GPIO19", "D6": "GPIO20", "D7": "GPIO21",
	"WE": "GPIO17", "OE": "GPIO27", "CE": "GPIO22",
	"SR_OE": "GPIO23", "SR_SER": "GPIO24", "SR_SRCLK": "GPIO25",
	"SR_RCLK": "GPIO8", "SR_CLR": "GPIO7",
	"LED": "GPIO26",
}

var DefaultConfig = Config{
	Driver:     DriverPeriph,
	Pins:       DefaultPins,
	WriteCycle: 8,
}

// Open returns the backend selected by cfg. If cfg is nil, DefaultConfig is used.
func Open(cfg *Config) (Board, error) {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	switch cfg.Driver {
	case DriverSim:
		sim := NewSim()
		sim.WriteCycle = cfg.WriteCycle
		return sim, nil
	case DriverPeriph, "":
		return OpenPeriph(cfg.Pins)
	default:
		return nil, fmt.Errorf("unknown board driver \"%s\"", cfg.Driver)
	}
}
