package programmer

// Command opcodes, first payload byte of a command frame.
const (
	CmdRead  byte = 0x72 // 'r' addr_hi addr_lo
	CmdDump  byte = 0x64 // 'd'
	CmdWrite byte = 0x77 // 'w' addr_hi addr_lo value
	CmdLoad  byte = 0x6c // 'l' len_hi len_lo
	CmdReset byte = 0x73 // 's', also aborts a transfer in place of an ack
)

// Frame sizes of each command, opcode included.
const (
	lenRead  = 3
	lenDump  = 1
	lenWrite = 4
	lenLoad  = 3
	lenReset = 1
)

const (
	// MaxPayload is the largest chunk the device sends in one packet.
	MaxPayload = 63
	// MaxReceive is the largest packet the device accepts.
	MaxReceive = MaxPayload + 1

	// ChipSize is the address space of the AT28C256.
	ChipSize = 0x8000
)

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
