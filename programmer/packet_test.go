package programmer

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestTransport_Receive(t *testing.T) {
	link := newPipeLink()
	tr := NewTransport(link, 20*time.Millisecond)

	link.host(3, CmdRead, 0x00, 0x09)
	link.host(4, CmdWrite)
	link.host(0x00, 0x10, 0xab)
	link.host(1, CmdDump, 0)

	for _, want := range [][]byte{
		{CmdRead, 0x00, 0x09},
		{CmdWrite, 0x00, 0x10, 0xab},
		{CmdDump},
		{},
	} {
		got, err := tr.Receive()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("received %v, expected %v", got, want)
		}
	}
}

func TestTransport_ReceiveShort(t *testing.T) {
	link := newPipeLink()
	tr := NewTransport(link, 20*time.Millisecond)

	link.host(3, CmdRead, 0x00)
	got, err := tr.Receive()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if got != nil {
		t.Errorf("partial payload returned: %v", got)
	}

	link.host(1, CmdReset)
	got, err = tr.Receive()
	if err != nil || !bytes.Equal(got, []byte{CmdReset}) {
		t.Errorf("after corrupt frame: got %v, %v", got, err)
	}
}

func TestTransport_ReceiveOversized(t *testing.T) {
	link := newPipeLink()
	tr := NewTransport(link, 20*time.Millisecond)

	link.host(append([]byte{MaxReceive + 1}, make([]byte, MaxReceive+1)...)...)
	link.host(0)
	if _, err := tr.Receive(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	got, err := tr.Receive()
	if err != nil || len(got) != 0 {
		t.Errorf("oversized frame wasn't drained: got %v, %v", got, err)
	}
}

func TestTransport_ReceiveClosed(t *testing.T) {
	link := newPipeLink()
	tr := NewTransport(link, 20*time.Millisecond)
	close(link.in)

	_, err := tr.Receive()
	var le *LinkError
	if !errors.As(err, &le) || !errors.Is(err, ErrClosedPort) {
		t.Errorf("expected a link error on closed port, got %v", err)
	}
}

func TestTransport_Send(t *testing.T) {
	link := newPipeLink()
	tr := NewTransport(link, 20*time.Millisecond)

	if err := tr.Send([]byte{0xde, 0xad}, false); err != nil {
		t.Fatal(err)
	}
	if err := tr.SendAck(); err != nil {
		t.Fatal(err)
	}
	expectFrames(t, link.frames(), []byte{2, 0xde, 0xad}, []byte{0})
}

func TestTransport_SendWaitAck(t *testing.T) {
	for _, v := range []struct {
		name   string
		reply  []byte
		err    error
		status Status
	}{
		{"ack", []byte{0}, nil, StatusOk},
		{"reset", []byte{1, CmdReset}, ErrReset, StatusReset},
		{"other byte", []byte{1, 0x42}, ErrUnknown, StatusUnknown},
		{"long reply", []byte{2, 0x00, 0x00}, ErrUnexpected, StatusUnexpected},
		{"short reply", []byte{3, 0x00}, ErrUnexpected, StatusUnexpected},
	} {
		t.Run(v.name, func(t *testing.T) {
			link := newPipeLink()
			tr := NewTransport(link, 20*time.Millisecond)
			link.host(v.reply...)

			err := tr.Send([]byte{0x01}, true)
			if v.err == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if v.err != nil && !errors.Is(err, v.err) {
				t.Fatalf("expected %v, got %v", v.err, err)
			}
			if st := StatusOf(err); st != v.status {
				t.Errorf("status %s, expected %s", st, v.status)
			}
		})
	}
}

func TestTransport_Pending(t *testing.T) {
	link := newPipeLink()
	tr := NewTransport(link, 20*time.Millisecond)

	ok, err := tr.Pending(time.Millisecond)
	if err != nil || ok {
		t.Fatalf("nothing sent, Pending returned %v, %v", ok, err)
	}
	link.host(0)
	ok, err = tr.Pending(time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Pending returned %v, %v", ok, err)
	}
	// data stays buffered for Receive
	if got, err := tr.Receive(); err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestTransport_PendingWithoutWait(t *testing.T) {
	link := newPipeLink()
	tr := NewTransport(link, 20*time.Millisecond)

	link.host(0)
	ok, err := tr.Pending(0)
	if err != nil || !ok {
		t.Fatalf("queued data not seen with a zero wait: %v, %v", ok, err)
	}
}
