package cat

// CI-V frame constants. Addresses are the factory defaults for the
// transceiver and the controlling PC.
const (
	framePreamble   = 0xFE
	frameEnd        = 0xFD
	addrTransceiver = 0x94
	addrController  = 0xE0

	cmdSetFrequency = 0x05
)

// EncodeSetFrequency builds the CI-V "set operating frequency" frame
// for an absolute frequency in Hz. The payload is five BCD bytes,
// least significant digit pair first.
func EncodeSetFrequency(hz int64) []byte {
	frame := make([]byte, 0, 11)
	frame = append(frame, framePreamble, framePreamble, addrTransceiver, addrController, cmdSetFrequency)
	for i := 0; i < 5; i++ {
		pair := hz % 100
		frame = append(frame, byte(pair/10)<<4|byte(pair%10))
		hz /= 100
	}
	return append(frame, frameEnd)
}
