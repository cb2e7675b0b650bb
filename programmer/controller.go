package programmer

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rkjdid/util"
	"github.com/solar3s/eeprommer/hal"
)

type Config struct {
	ReadTimeout util.Duration // payload deadline once a length byte arrived
	IdlePoll    util.Duration // wait for incoming data before reporting faults
	SettleDelay util.Duration // after each bus mode change
	PulseWidth  util.Duration // /WE low time of a byte write
	PollDelay   util.Duration // around each write completion sample
	PollLimit   int           // write polling rounds before giving up, 0 never gives up
	Speed       int           // status LED Morse speed, dot = 1200ms / Speed
	Verbose     bool
}

var DefaultConfig = Config{
	ReadTimeout: util.Duration(time.Second),
	IdlePoll:    util.Duration(50 * time.Millisecond),
	SettleDelay: util.Duration(10 * time.Microsecond),
	PulseWidth:  util.Duration(time.Microsecond),
	PollDelay:   util.Duration(2 * time.Microsecond),
	PollLimit:   10000,
	Speed:       12,
}

// Snapshot is the state of the device at a given time.
type Snapshot struct {
	Time         time.Time
	Mode         Mode
	Status       Status // pending, not reported yet
	LastFault    Status
	LastError    string
	Commands     int
	Faults       int
	BytesRead    int
	BytesWritten int
}

// Controller is the device: it owns the bus, the transport and the
// fault status, and serves one command at a time.
type Controller struct {
	sync.Mutex
	config    *Config
	board     hal.Board
	transport *Transport
	prog      *Programmer
	blinker   *Blinker
	status    Status
	snap      Snapshot

	stop chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func NewController(link Link, board hal.Board, cfg *Config) *Controller {
	if cfg == nil {
		cfg = &DefaultConfig
	}
	return &Controller{
		config:    cfg,
		board:     board,
		transport: NewTransport(link, time.Duration(cfg.ReadTimeout)),
		prog:      NewProgrammer(board, cfg),
		blinker:   NewBlinker(board, cfg.Speed),
		status:    StatusOk,
	}
}

// Setup configures every pin, puts the bus in Standby, blinks a dot
// and sends an ack to tell the host the device is ready.
func (c *Controller) Setup() error {
	c.board.SetDirection(hal.StatusLED, hal.Output)
	c.board.SetLevel(hal.StatusLED, hal.Low)
	c.prog.Init()
	c.blinker.Dot()
	if err := c.board.Err(); err != nil {
		return err
	}
	c.Lock()
	c.snap.Mode = c.prog.Bus().Mode()
	c.Unlock()
	return c.transport.SendAck()
}

// Start runs the command loop until Stop is called or the link fails.
func (c *Controller) Start() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.wg.Add(1)
	go func() {
		defer func() {
			close(c.done)
			c.wg.Done()
		}()
		for {
			select {
			case <-c.stop:
				return
			default:
			}
			if err := c.Step(); err != nil {
				log.Println("in c.Step:", err)
				return
			}
		}
	}()
}

// Stop notifies the command loop to stop, and waits until it returns.
// A command in progress is served to its end first.
func (c *Controller) Stop() {
	if c.stop == nil {
		return
	}
	log.Println("stopping command loop...")
	close(c.stop)
	c.wg.Wait()
	c.stop = nil
}

// Done is closed once the command loop returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Step serves one command if one is arriving. Otherwise it reports
// the pending fault on the status LED, if any. Only link failures are
// returned; they are also kept as the snapshot's LastError.
func (c *Controller) Step() error {
	ok, err := c.transport.Pending(time.Duration(c.config.IdlePoll))
	if err == nil && ok {
		err = c.serve()
	}
	if err != nil {
		c.Lock()
		c.snap.LastError = err.Error()
		c.Unlock()
		return err
	}
	if ok {
		return nil
	}
	if st := c.takeStatus(); st != StatusOk {
		c.board.Delay(2 * c.blinker.DashLen())
		c.blinker.Signal(st)
	}
	return nil
}

func (c *Controller) serve() error {
	c.board.SetLevel(hal.StatusLED, hal.High)
	defer c.board.SetLevel(hal.StatusLED, hal.Low)

	frame, err := c.transport.Receive()
	if err == nil {
		err = c.Handle(frame)
	}
	if berr := c.board.Err(); berr != nil && err == nil {
		err = fmt.Errorf("%w: board: %v", ErrUnknown, berr)
	}
	var le *LinkError
	if errors.As(err, &le) {
		return err
	}
	c.report(err)
	return nil
}

// Handle executes the command in frame. An empty frame is a stray ack
// and is ignored.
func (c *Controller) Handle(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	cmd, n := frame[0], len(frame)
	if c.config.Verbose {
		log.Printf("command %q (%d bytes)", cmd, n)
	}

	switch {
	case cmd == CmdRead && n == lenRead:
		v := c.prog.ReadByte(be16(frame[1:]))
		return c.transport.Send([]byte{v}, false)

	case cmd == CmdDump && n == lenDump:
		return c.prog.Dump(c.transport)

	case cmd == CmdWrite && n == lenWrite:
		c.prog.WriteByte(be16(frame[1:]), frame[3])
		if err := c.prog.WaitForWriteComplete(); err != nil {
			return err
		}
		return c.transport.SendAck()

	case cmd == CmdLoad && n == lenLoad:
		length := int(be16(frame[1:]))
		if length > ChipSize {
			return fmt.Errorf("%w: load of %d bytes exceeds chip size", ErrInvalid, length)
		}
		return c.prog.Load(c.transport, length)

	case cmd == CmdReset && n == lenReset:
		// only meaningful in place of an ack
		return nil

	default:
		return fmt.Errorf("%w: opcode 0x%02x, %d bytes", ErrInvalid, cmd, n)
	}
}

// report records the outcome of a command; a fault becomes the
// pending status, replacing any earlier one.
func (c *Controller) report(err error) {
	c.Lock()
	defer c.Unlock()
	c.snap.Commands++
	if err != nil {
		st := StatusOf(err)
		c.status = st
		c.snap.Faults++
		c.snap.LastFault = st
		c.snap.LastError = err.Error()
		log.Printf("command failed: %s (%s)", err, st)
	}
	c.snap.Mode = c.prog.Bus().Mode()
	c.snap.BytesRead = c.prog.bytesRead
	c.snap.BytesWritten = c.prog.bytesWritten
}

// Status returns the pending fault status.
func (c *Controller) Status() Status {
	c.Lock()
	defer c.Unlock()
	return c.status
}

func (c *Controller) takeStatus() Status {
	c.Lock()
	defer c.Unlock()
	st := c.status
	c.status = StatusOk
	return st
}

// Snapshot retreives the state of c at a given time.
func (c *Controller) Snapshot() Snapshot {
	c.Lock()
	defer c.Unlock()
	s := c.snap
	s.Time = time.Now()
	s.Status = c.status
	return s
}

func (c *Controller) Config() Config {
	return *c.config
}
