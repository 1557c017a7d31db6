package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	RoomCodeLen = 8
	JoinCodeLen = 6
)

// Alphabets drop 0/O, 1/I/l so codes survive being read aloud or typed
// from a screenshot. The room code is URL-safe and case-sensitive; the
// join code is uppercase-only because humans relay it out of band.
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// NewRoomCode generates the 8-character external room handle.
func NewRoomCode() (string, error) {
	return randomCode(roomCodeAlphabet, RoomCodeLen)
}

// NewJoinCode generates the 6-character code the host relays to the guest.
func NewJoinCode() (string, error) {
	return randomCode(joinCodeAlphabet, JoinCodeLen)
}

func randomCode(alphabet string, length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// ValidRoomCode reports whether s is shaped like a room code. Used by
// the transport to reject junk before any storage round trip.
func ValidRoomCode(s string) bool {
	if len(s) != RoomCodeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(roomCodeAlphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
