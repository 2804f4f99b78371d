package order

import (
	"crypto/rand"
	"fmt"
	"time"
)

// numberAlphabet avoids 0/O and 1/I confusion in phone-support scenarios.
const numberAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const numberSuffixLen = 6

// NewNumber generates a human-readable order number: a date-stamped prefix
// plus a random suffix, e.g. TH-20260831-K7Q2MF. Numbers sort by creation
// date. Collisions within a day are improbable but not impossible; the
// database uniqueness constraint is the real guard and callers retry on
// conflict.
func NewNumber(now time.Time) string {
	buf := make([]byte, numberSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in a broken state.
		panic(fmt.Sprintf("order number entropy: %v", err))
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return fmt.Sprintf("TH-%s-%s", now.UTC().Format("20060102"), buf)
}
