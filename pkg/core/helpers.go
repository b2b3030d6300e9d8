package core

import (
	cryptorand "crypto/rand"
	"strconv"
)

const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandString base10 - numbers, base16 - hex, base36 - digits+letters
func RandString(size, base byte) string {
	b := make([]byte, size)
	if _, err := cryptorand.Read(b); err != nil {
		panic(err)
	}
	for i := byte(0); i < size; i++ {
		b[i] = digits[b[i]%base]
	}
	return string(b)
}

// FormatFloat without trailing zeros: 0.5 => "0.5", 1 => "1"
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func Between(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
