package maestro

import "strings"

// Command bytes.
const (
	cmdSetTarget       = 0x84
	cmdSetSpeed        = 0x87
	cmdSetAcceleration = 0x89
	cmdGetErrors       = 0xa1
	cmdGoHome          = 0xa2

	pololuPreamble = 0xaa
	maxChannel     = 23
)

var errorBits = []string{
	"serial signal error",
	"serial overrun error",
	"serial buffer full",
	"serial crc error",
	"serial protocol error",
	"serial timeout",
	"script stack error",
	"script call stack error",
	"script program counter error",
}

func lo(x uint16) byte { return byte(x & 0x7f) }
func hi(x uint16) byte { return byte((x >> 7) & 0x7f) }

// frame builds one command for a channel. A negative channel omits it.
func frame(device uint8, command byte, channel int, values ...uint16) []byte {
	var b []byte
	if device == 0 {
		b = []byte{command}
	} else {
		b = []byte{pololuPreamble, device, command & 0x7f}
	}
	if channel >= 0 {
		b = append(b, byte(channel))
	}
	for _, v := range values {
		b = append(b, lo(v), hi(v))
	}
	return b
}

// describeErrors lists the set bits of the controller error register.
func describeErrors(val uint16) string {
	var s []string
	for i, e := range errorBits {
		if val&(1<<i) != 0 {
			s = append(s, e)
		}
	}
	return strings.Join(s, ",")
}
