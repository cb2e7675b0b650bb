package programmer

import (
	"errors"
	"fmt"
	"strconv"
)

// (Un)marshallers for the enum types, so snapshots and config files
// carry names instead of numbers.

func lookupName(names string, index []uint8, s string) (int, bool) {
	for i := 0; i+1 < len(index); i++ {
		if names[index[i]:index[i+1]] == s {
			return i, true
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i+1 < len(index) {
		return i, true
	}
	return 0, false
}

func quote(b []byte) []byte {
	return []byte(fmt.Sprintf("\"%s\"", b))
}

func unquote(t string, data []byte) ([]byte, error) {
	n := len(data)
	if n < 2 || data[0] != '"' || data[n-1] != '"' {
		return nil, errors.New(t + ".UnmarshalJSON: Invalid JSON provided")
	}
	return data[1 : n-1], nil
}

// ---- type Status int

func (s Status) MarshalJSON() ([]byte, error) {
	b, err := s.MarshalText()
	return quote(b), err
}

func (s *Status) UnmarshalJSON(data []byte) error {
	b, err := unquote("Status", data)
	if err != nil {
		return err
	}
	return s.UnmarshalText(b)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	i, ok := lookupName(_Status_name, _Status_index[:], string(b))
	if !ok {
		return fmt.Errorf("Cannot unmarshall \"%s\" to Status. Is it mispelled?", b)
	}
	*s = Status(i)
	return nil
}

// ---- type Mode int

func (m Mode) MarshalJSON() ([]byte, error) {
	b, err := m.MarshalText()
	return quote(b), err
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	b, err := unquote("Mode", data)
	if err != nil {
		return err
	}
	return m.UnmarshalText(b)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	i, ok := lookupName(_Mode_name, _Mode_index[:], string(b))
	if !ok {
		return fmt.Errorf("Cannot unmarshall \"%s\" to Mode. Is it mispelled?", b)
	}
	*m = Mode(i)
	return nil
}
