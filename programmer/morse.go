package programmer

import (
	"time"

	"github.com/solar3s/eeprommer/hal"
)

// morse holds the pattern blinked for each fault.
var morse = map[Status]string{
	StatusCorrupt:    "-.-.", // C
	StatusReset:      ".-.",  // R
	StatusUnexpected: "-..-", // X
	StatusUnknown:    "..-",  // U
	StatusInvalid:    "...-", // V
}

// Pattern returns the Morse pattern for s, empty for StatusOk.
func Pattern(s Status) string {
	return morse[s]
}

// Blinker reports faults on the status LED.
type Blinker struct {
	board hal.Board
	dot   time.Duration
}

// NewBlinker derives the dot length from speed the usual way,
// 1200ms / speed. A dash lasts three dots.
func NewBlinker(board hal.Board, speed int) *Blinker {
	if speed <= 0 {
		speed = DefaultConfig.Speed
	}
	return &Blinker{
		board: board,
		dot:   time.Duration(1200/speed) * time.Millisecond,
	}
}

func (b *Blinker) DotLen() time.Duration {
	return b.dot
}

func (b *Blinker) DashLen() time.Duration {
	return 3 * b.dot
}

// Dot lights the LED for a dot, then leaves it off for a dot.
func (b *Blinker) Dot() {
	b.pulse(b.dot)
}

// Dash lights the LED for a dash, then leaves it off for a dot.
func (b *Blinker) Dash() {
	b.pulse(b.DashLen())
}

// Signal blinks the pattern of s.
func (b *Blinker) Signal(s Status) {
	for _, c := range Pattern(s) {
		if c == '-' {
			b.Dash()
		} else {
			b.Dot()
		}
	}
}

func (b *Blinker) pulse(on time.Duration) {
	b.board.SetLevel(hal.StatusLED, hal.High)
	b.board.Delay(on)
	b.board.SetLevel(hal.StatusLED, hal.Low)
	b.board.Delay(b.dot)
}
