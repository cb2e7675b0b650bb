package programmer

import (
	"errors"
	"fmt"
)

//go:generate stringer -type=Status -trimprefix=Status
type Status int

const (
	StatusOk Status = iota
	StatusInvalid
	StatusReset
	StatusCorrupt
	StatusUnexpected
	StatusUnknown
)

//go:generate stringer -type=Mode -trimprefix=Mode
type Mode int

const (
	ModeStandby Mode = iota
	ModeRead
	ModeWrite
)

var (
	ErrInvalid    = errors.New("unrecognized command frame")
	ErrCorrupt    = errors.New("corrupt frame")
	ErrReset      = errors.New("transfer aborted by host")
	ErrUnexpected = errors.New("unexpected reply in place of ack")
	ErrUnknown    = errors.New("unknown fault")

	ErrWriteTimeout = fmt.Errorf("%w: write cycle didn't complete", ErrUnknown)
)

// LinkError is a failure of the underlying serial link, as opposed to
// a protocol fault. The controller can't recover from it.
type LinkError struct {
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link: %s", e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// StatusOf classifies err. Anything outside the taxonomy is Unknown.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOk
	case errors.Is(err, ErrInvalid):
		return StatusInvalid
	case errors.Is(err, ErrCorrupt):
		return StatusCorrupt
	case errors.Is(err, ErrReset):
		return StatusReset
	case errors.Is(err, ErrUnexpected):
		return StatusUnexpected
	default:
		return StatusUnknown
	}
}
