package programmer

import (
	"fmt"
)

// Dump streams the whole chip to the host in MaxPayload chunks, each
// acknowledged before the next is read. A Reset or any other reply in
// place of an ack stops the dump right there.
func (p *Programmer) Dump(t *Transport) error {
	chunk := make([]byte, MaxPayload)
	for addr := 0; addr < ChipSize; addr += MaxPayload {
		n := MaxPayload
		if ChipSize-addr < n {
			n = ChipSize - addr
		}
		p.readBlock(uint16(addr), chunk[:n])
		if err := t.Send(chunk[:n], true); err != nil {
			return err
		}
	}
	return nil
}

// Load acknowledges the load command, then writes length bytes from
// address 0 as they arrive, one packet per chunk. Every byte is polled
// to completion before the next one, and each chunk is acked once
// written. Bytes of the last chunk beyond length are dropped.
func (p *Programmer) Load(t *Transport, length int) error {
	if err := t.SendAck(); err != nil {
		return err
	}
	for addr := 0; addr < length; {
		chunk, err := t.Receive()
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return fmt.Errorf("%w: empty chunk at 0x%04x", ErrUnexpected, addr)
		}
		for _, v := range chunk {
			if addr >= length || addr >= ChipSize {
				break
			}
			p.WriteByte(uint16(addr), v)
			if err := p.WaitForWriteComplete(); err != nil {
				return fmt.Errorf("at 0x%04x: %w", addr, err)
			}
			addr++
		}
		if err := t.SendAck(); err != nil {
			return err
		}
	}
	return nil
}
