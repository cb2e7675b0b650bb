package programmer

import (
	"errors"
	"fmt"
	"time"
)

// Transport frames packets over a Link: one length byte, then exactly
// that many payload bytes. An empty packet is an ack.
type Transport struct {
	link Link

	// ReadTimeout bounds the wait for a payload once its length byte
	// arrived. Zero waits forever.
	ReadTimeout time.Duration

	buf []byte
}

func NewTransport(link Link, readTimeout time.Duration) *Transport {
	return &Transport{link: link, ReadTimeout: readTimeout}
}

// minPoll is the shortest wait Pending hands to the link.
const minPoll = time.Millisecond

// fill appends the next bytes from the link to t.buf. A zero deadline
// waits forever.
func (t *Transport) fill(deadline time.Time) error {
	var timeout time.Duration
	if !deadline.IsZero() {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return ErrTimeout
		}
	}
	return t.read(timeout)
}

func (t *Transport) read(timeout time.Duration) error {
	b, err := t.link.Read(timeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return ErrTimeout
		}
		return &LinkError{Err: err}
	}
	t.buf = append(t.buf, b...)
	return nil
}

// Pending reports whether a packet has started arriving, waiting up to
// wait for its first byte. The link is always read, for at least minPoll.
func (t *Transport) Pending(wait time.Duration) (bool, error) {
	if len(t.buf) > 0 {
		return true, nil
	}
	if wait < minPoll {
		wait = minPoll
	}
	err := t.read(wait)
	if err == ErrTimeout {
		return false, nil
	}
	return len(t.buf) > 0, err
}

// Receive blocks until a length byte arrives, then until the whole
// payload did. A payload cut short or longer than MaxReceive yields
// ErrCorrupt, never a partial payload.
func (t *Transport) Receive() ([]byte, error) {
	for len(t.buf) == 0 {
		if err := t.fill(time.Time{}); err != nil {
			return nil, err
		}
	}
	n := int(t.buf[0])
	t.buf = t.buf[1:]

	var deadline time.Time
	if t.ReadTimeout > 0 {
		deadline = time.Now().Add(t.ReadTimeout)
	}
	for len(t.buf) < n {
		err := t.fill(deadline)
		if err == ErrTimeout {
			got := len(t.buf)
			t.buf = t.buf[:0]
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrCorrupt, got, n)
		}
		if err != nil {
			return nil, err
		}
	}

	payload := make([]byte, n)
	copy(payload, t.buf)
	t.buf = t.buf[n:]
	if n > MaxReceive {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrCorrupt, n, MaxReceive)
	}
	return payload, nil
}

// Send writes payload as one packet. With waitAck, it then expects an
// empty packet back; anything else aborts the transfer in progress:
// a lone Reset opcode is ErrReset, another single byte ErrUnknown,
// any other shape ErrUnexpected.
func (t *Transport) Send(payload []byte, waitAck bool) error {
	if len(payload) > 0xff {
		return fmt.Errorf("payload of %d bytes can't be framed", len(payload))
	}
	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, byte(len(payload)))
	frame = append(frame, payload...)
	if err := t.link.Write(frame); err != nil {
		return &LinkError{Err: err}
	}
	if !waitAck {
		return nil
	}

	reply, err := t.Receive()
	switch {
	case err != nil:
		var le *LinkError
		if errors.As(err, &le) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	case len(reply) == 0:
		return nil
	case len(reply) == 1 && reply[0] == CmdReset:
		return ErrReset
	case len(reply) == 1:
		return fmt.Errorf("%w: single byte 0x%02x in place of ack", ErrUnknown, reply[0])
	default:
		return fmt.Errorf("%w: %d bytes", ErrUnexpected, len(reply))
	}
}

// SendAck sends an empty packet.
func (t *Transport) SendAck() error {
	return t.Send(nil, false)
}
