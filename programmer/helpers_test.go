package programmer

import (
	"bytes"
	"testing"
	"time"

	"github.com/rkjdid/util"
	"github.com/solar3s/eeprommer/hal"
)

// pipeLink is an in-memory Link. The test plays the host: it queues
// what the device will read in in, and finds what it sent in out.
type pipeLink struct {
	in  chan []byte
	out chan []byte
}

func newPipeLink() *pipeLink {
	return &pipeLink{
		in:  make(chan []byte, 2048),
		out: make(chan []byte, 2048),
	}
}

func (l *pipeLink) Read(timeout time.Duration) ([]byte, error) {
	var expire <-chan time.Time
	if timeout > 0 {
		expire = time.After(timeout)
	}
	select {
	case b, ok := <-l.in:
		if !ok {
			return nil, ErrClosedPort
		}
		return b, nil
	case <-expire:
		return nil, ErrTimeout
	}
}

func (l *pipeLink) Write(b []byte) error {
	l.out <- append([]byte(nil), b...)
	return nil
}

// host queues raw bytes for the device.
func (l *pipeLink) host(b ...byte) {
	l.in <- b
}

// ack queues n empty packets.
func (l *pipeLink) ack(n int) {
	for i := 0; i < n; i++ {
		l.in <- []byte{0}
	}
}

// frames drains what the device sent so far.
func (l *pipeLink) frames() [][]byte {
	var fs [][]byte
	for {
		select {
		case f := <-l.out:
			fs = append(fs, f)
		default:
			return fs
		}
	}
}

func expectFrames(t *testing.T, got [][]byte, want ...[]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("device sent %d frames %v, expected %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("frame %d: got %v, expected %v", i, got[i], want[i])
		}
	}
}

func testConfig() *Config {
	cfg := DefaultConfig
	cfg.ReadTimeout = util.Duration(20 * time.Millisecond)
	cfg.IdlePoll = util.Duration(time.Millisecond)
	return &cfg
}

func testSim() *hal.Sim {
	sim := hal.NewSim()
	sim.WriteCycle = 5
	return sim
}

// testController returns a controller set up on a simulated board,
// its ready ack already drained.
func testController(t *testing.T) (*Controller, *pipeLink, *hal.Sim) {
	link := newPipeLink()
	sim := testSim()
	c := NewController(link, sim, testConfig())
	if err := c.Setup(); err != nil {
		t.Fatal(err)
	}
	link.frames()
	sim.Pulses = nil
	return c, link, sim
}
