package web

import (
	"github.com/solar3s/eeprommer/hal"
	"github.com/solar3s/eeprommer/programmer"
	"go.bug.st/serial.v1"
)

const (
	LinkSerial = "serial"
	LinkTerm   = "term"
)

var DefaultConfig = Config{
	Link:       LinkSerial,
	Serial:     programmer.DefaultSerialConfig,
	Board:      hal.DefaultConfig,
	Programmer: programmer.DefaultConfig,
	Web:        DefaultServerConfig,
}

type Config struct {
	Device     string // path to the host link, searched automatically if empty
	Link       string // "serial" or "term"
	Serial     serial.Mode
	Board      hal.Config
	Programmer programmer.Config
	Web        ServerConfig
}
