package programmer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial.v1"
)

var ErrNoSerialPortFound = errors.New("didn't find any available serial port")
var ErrClosedPort = errors.New("serial port is closed")
var ErrTimeout = errors.New("read timeout")

var DefaultSerialConfig = serial.Mode{
	BaudRate: 9600,
	Parity:   serial.NoParity,
	DataBits: 8,
	StopBits: serial.OneStopBit,
}

var DefaultTimeout = time.Second

// Link carries raw bytes between the device and its host.
type Link interface {
	// Read returns the next bytes received, waiting up to timeout.
	// A timeout <= 0 waits until something arrives.
	Read(timeout time.Duration) ([]byte, error)
	Write(b []byte) error
}

// SerialConnection is a Link over a serial port. Reads and writes go
// through their own routine so neither can wedge the control loop
// past its timeouts.
type SerialConnection struct {
	WriteTimeout time.Duration

	port io.ReadWriteCloser
	path string

	rdChan    chan []byte
	wrChan    chan []byte
	errChan   chan error
	closeChan chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewSerial(port io.ReadWriteCloser, name string) *SerialConnection {
	return &SerialConnection{
		port:      port,
		path:      name,
		rdChan:    make(chan []byte),
		wrChan:    make(chan []byte),
		errChan:   make(chan error),
		closeChan: make(chan struct{}),

		WriteTimeout: DefaultTimeout,
	}
}

// Start begins the two routines responsible
// for reading and writing on serial port.
func (sc *SerialConnection) Start() {
	sc.wg.Add(2)
	go func() {
		sc.readRoutine()
		sc.wg.Done()
	}()
	go func() {
		sc.writeRoutine()
		sc.wg.Done()
	}()
}

// Read takes one of sc.rdChan or sc.errChan, waiting up to timeout,
// it also checks if connection is closed and returns error accordingly.
func (sc *SerialConnection) Read(timeout time.Duration) (b []byte, err error) {
	var expire <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expire = t.C
	}
	select {
	case b = <-sc.rdChan:
	case err = <-sc.errChan:
	case <-sc.closeChan:
		err = ErrClosedPort
	case <-expire:
		err = ErrTimeout
	}
	return b, err
}

// Write pushes b to sc.wrChan, or returns an error
// after sc.WriteTimeout, or if connection is closed.
func (sc *SerialConnection) Write(b []byte) (err error) {
	select {
	case sc.wrChan <- b:
	case <-sc.closeChan:
		err = ErrClosedPort
	case <-time.After(sc.WriteTimeout):
		err = fmt.Errorf("write timeout (%s)", sc.WriteTimeout)
	}
	return err
}

// Close notifies read/write routines to stop, closes the port so a
// pending read returns, then waits for both routines.
func (sc *SerialConnection) Close() error {
	var err error
	sc.closeOnce.Do(func() {
		close(sc.closeChan)
		err = sc.port.Close()
		sc.wg.Wait()
	})
	return err
}

// Path returns device name / path of serial port.
func (sc *SerialConnection) Path() string {
	return sc.path
}

func (sc *SerialConnection) readRoutine() {
	for {
		b := make([]byte, MaxReceive)
		i, err := sc.port.Read(b)
		if err != nil {
			select {
			case sc.errChan <- err:
			case <-sc.closeChan:
				return
			}
			continue
		}
		if i == 0 {
			continue
		}
		select {
		case sc.rdChan <- b[:i]:
		case <-sc.closeChan:
			return
		}
	}
}

func (sc *SerialConnection) writeRoutine() {
	var b []byte
	for {
		select {
		case b = <-sc.wrChan:
		case <-sc.closeChan:
			return
		}
		_, err := sc.port.Write(b)
		if err != nil {
			log.Println("in sc.writeRoutine:", err)
		}
	}
}

// FindSerial opens the first available serial port.
// If config is nil, DefaultSerialConfig is used.
func FindSerial(config *serial.Mode) (*SerialConnection, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = &DefaultSerialConfig
	}
	for _, v := range ports {
		var port serial.Port
		port, err = serial.Open(v, config)
		if err == nil {
			log.Printf("opened \"%s\"", v)
			return NewSerial(port, v), nil
		}
		log.Printf("trying \"%s\": %s", v, err)
	}
	if err == nil {
		return nil, ErrNoSerialPortFound
	}
	return nil, err
}

func OpenPortName(name string, config *serial.Mode) (*SerialConnection, error) {
	if config == nil {
		config = &DefaultSerialConfig
	}
	port, err := serial.Open(name, config)
	if err != nil {
		return nil, err
	}
	return NewSerial(port, name), nil
}
