package core

import "github.com/pairwave/rendezvous/internal/domain"

// Write ownership is partitioned by key, not guarded by locks: each
// storage key is written by exactly one operation class, so a stale
// read in one class can never revert a field owned by another. The
// table below is the single source of truth; the engine derives every
// write key from it and a test asserts no two classes share a target.

// OpClass groups operations by the one key they are allowed to write.
type OpClass int

const (
	// OpRoomLifecycle covers create, join, offer, answer and close.
	// These serialize per browser role and share the room record.
	OpRoomLifecycle OpClass = iota
	// OpHostCandidate and OpGuestCandidate each own one ledger key.
	// Appends are idempotent and commutative, so same-key races within
	// a class converge.
	OpHostCandidate
	OpGuestCandidate

	numOpClasses
)

// KeyKind enumerates the physical record kinds per room.
type KeyKind int

const (
	KeyRoom KeyKind = iota
	KeyLedgerHost
	KeyLedgerGuest

	numKeyKinds
)

var writeTarget = [numOpClasses]KeyKind{
	OpRoomLifecycle:  KeyRoom,
	OpHostCandidate:  KeyLedgerHost,
	OpGuestCandidate: KeyLedgerGuest,
}

// WriteTarget exposes the ownership mapping for the engine and tests.
func WriteTarget(c OpClass) KeyKind {
	return writeTarget[c]
}

// WriteKey returns the only key the given class may write for a room.
// The engine never concatenates write keys by hand.
func (c OpClass) WriteKey(code string) string {
	switch writeTarget[c] {
	case KeyLedgerHost:
		return LedgerKey(code, domain.RoleHost)
	case KeyLedgerGuest:
		return LedgerKey(code, domain.RoleGuest)
	default:
		return RoomKey(code)
	}
}

// CandidateClass maps a role to the candidate class owning its ledger.
func CandidateClass(role domain.Role) OpClass {
	if role == domain.RoleHost {
		return OpHostCandidate
	}
	return OpGuestCandidate
}

// RoomKey addresses the room record. Read by everything, written only
// by OpRoomLifecycle.
func RoomKey(code string) string {
	return "room:" + code
}

// LedgerKey addresses one role's candidate ledger.
func LedgerKey(code string, role domain.Role) string {
	return "ice:" + code + ":" + string(role)
}

// NumOpClasses and NumKeyKinds are exported for the ownership test.
const (
	NumOpClasses = int(numOpClasses)
	NumKeyKinds  = int(numKeyKinds)
)
