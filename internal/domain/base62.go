package domain

import "strings"

// base62Alphabet is the fixed symbol order for the codec: index 0 is '0',
// index 61 is 'z'. Kept verbatim from the teacher's slug generator so both
// packages agree on symbol order.
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// EncodeBase62 encodes n as the minimal representation over base62Alphabet:
// EncodeBase62(0) == "0", EncodeBase62(61) == "z", EncodeBase62(62) == "10".
// Total: every uint64 has a representation, there is no error return.
func EncodeBase62(n uint64) string {
	if n == 0 {
		return string(base62Alphabet[0])
	}

	var buf [11]byte // ceil(64 / log2(62)) digits, max for uint64
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}

// PadLeft left-pads s with '0' until it reaches at least width, leaving
// longer strings untouched.
func PadLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
