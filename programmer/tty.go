package programmer

import (
	"github.com/pkg/term"
)

// OpenTerm opens name as a raw tty at baud. It covers device nodes
// serial enumeration doesn't list, such as USB gadget ttys.
func OpenTerm(name string, baud int) (*SerialConnection, error) {
	t, err := term.Open(name, term.Speed(baud), term.RawMode)
	if err != nil {
		return nil, err
	}
	return NewSerial(t, name), nil
}
