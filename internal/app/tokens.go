package app

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/pairwave/rendezvous/internal/domain"
)

const tokenBytes = 32

// MintToken returns an opaque bearer token and the hash stored in the
// room record. Only the hash is ever persisted; the token itself is
// returned exactly once (at create for the host, at join for the guest).
func MintToken() (token, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("mint token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken is the binding function between a bearer token and the
// per-role slot in the room record.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyRole resolves a token against the record's embedded bindings.
// Both slots are always compared so a miss costs the same as a hit.
func VerifyRole(rec *domain.RoomRecord, token string) (domain.Role, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	h := []byte(HashToken(token))
	hostMatch := subtle.ConstantTimeCompare(h, []byte(rec.HostTokenHash)) == 1
	guestMatch := rec.GuestTokenHash != "" &&
		subtle.ConstantTimeCompare(h, []byte(rec.GuestTokenHash)) == 1
	switch {
	case hostMatch:
		return domain.RoleHost, nil
	case guestMatch:
		return domain.RoleGuest, nil
	default:
		return "", domain.ErrUnauthorized
	}
}
