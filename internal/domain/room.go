// Package domain contains the room entities and their pure state
// transitions. Nothing here touches storage or transport.
package domain

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"unicode"

	"github.com/pion/webrtc/v4"
)

const MaxDisplayNameLen = 36

// RoomStatus is the lifecycle state: open -> paired -> closed.
// closed is terminal and paired never goes back to open.
type RoomStatus string

const (
	StatusOpen   RoomStatus = "open"
	StatusPaired RoomStatus = "paired"
	StatusClosed RoomStatus = "closed"
)

// RoomRecord is the core per-room aggregate persisted at room:<code>.
// Candidate ledgers live under their own keys on purpose: the record is
// written only by create/join/offer/answer/close, never by a candidate
// append, so a stale read during candidate traffic has nothing it can
// revert here. Token bindings are embedded as hashes to avoid a second
// lookup round trip per request.
type RoomRecord struct {
	Status           RoomStatus                 `json:"status"`
	JoinCode         string                     `json:"joinCode"`
	HostUserName     string                     `json:"hostUserName"`
	GuestUserName    string                     `json:"guestUserName,omitempty"`
	Offer            *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer           *webrtc.SessionDescription `json:"answer,omitempty"`
	CreatedAtMs      int64                      `json:"createdAtMs"`
	LastActivityAtMs int64                      `json:"lastActivityAtMs"`
	HostTokenHash    string                     `json:"hostTokenHash"`
	GuestTokenHash   string                     `json:"guestTokenHash,omitempty"`
}

// NewRoomRecord builds a fresh open room. The join code and host token
// hash are generated by the caller so this stays deterministic.
func NewRoomRecord(hostName, joinCode, hostTokenHash string, nowMs int64) (*RoomRecord, error) {
	if err := ValidateDisplayName(hostName); err != nil {
		return nil, err
	}
	return &RoomRecord{
		Status:           StatusOpen,
		JoinCode:         joinCode,
		HostUserName:     hostName,
		CreatedAtMs:      nowMs,
		LastActivityAtMs: nowMs,
		HostTokenHash:    hostTokenHash,
	}, nil
}

// Join admits the guest. Absent record, non-open status and wrong code
// all surface as ErrBadJoinCode at the engine level; here only the
// record-present cases are checked.
func (r *RoomRecord) Join(joinCode, guestName, guestTokenHash string) error {
	if err := ValidateDisplayName(guestName); err != nil {
		return err
	}
	if r.Status != StatusOpen {
		return ErrBadJoinCode
	}
	if subtle.ConstantTimeCompare([]byte(r.JoinCode), []byte(joinCode)) != 1 {
		return ErrBadJoinCode
	}
	r.Status = StatusPaired
	r.GuestUserName = guestName
	r.GuestTokenHash = guestTokenHash
	return nil
}

// SetOffer stores the host's SDP leg. Legal while open or paired so the
// host can push its offer before the guest arrives. Resubmission
// overwrites: only the host can write this leg and its own browser
// serializes the calls.
func (r *RoomRecord) SetOffer(desc webrtc.SessionDescription) error {
	if r.Status == StatusClosed {
		return ErrRoomClosed
	}
	if desc.Type != webrtc.SDPTypeOffer || desc.SDP == "" {
		return fmt.Errorf("%w: payload is not an SDP offer", ErrInvalidRequest)
	}
	r.Offer = &desc
	return nil
}

// SetAnswer stores the guest's SDP leg. Requires a paired room and an
// existing offer (answer != nil implies offer != nil).
func (r *RoomRecord) SetAnswer(desc webrtc.SessionDescription) error {
	if r.Status == StatusClosed {
		return ErrRoomClosed
	}
	if r.Status != StatusPaired {
		return ErrInvalidState
	}
	if desc.Type != webrtc.SDPTypeAnswer || desc.SDP == "" {
		return fmt.Errorf("%w: payload is not an SDP answer", ErrInvalidRequest)
	}
	if r.Offer == nil {
		return ErrInvalidState
	}
	r.Answer = &desc
	return nil
}

// Close moves the room to its terminal state.
func (r *RoomRecord) Close() error {
	if r.Status == StatusClosed {
		return ErrRoomClosed
	}
	r.Status = StatusClosed
	return nil
}

// Validate asserts the structural invariants. The codec runs it on both
// encode and decode so a corrupt record never crosses the storage port
// in either direction.
func (r *RoomRecord) Validate() error {
	switch r.Status {
	case StatusOpen, StatusPaired, StatusClosed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, r.Status)
	}
	if len(r.JoinCode) != JoinCodeLen {
		return fmt.Errorf("%w: malformed join code", ErrInvalidRequest)
	}
	if r.Answer != nil && r.Offer == nil {
		return fmt.Errorf("%w: answer without offer", ErrInvalidRequest)
	}
	if r.Status == StatusOpen && (r.GuestUserName != "" || r.Answer != nil) {
		return fmt.Errorf("%w: open room with guest state", ErrInvalidRequest)
	}
	return nil
}

func EncodeRoomRecord(r *RoomRecord) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode room record: %w", err)
	}
	return raw, nil
}

func DecodeRoomRecord(raw []byte) (*RoomRecord, error) {
	var r RoomRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode room record: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// ValidateDisplayName rejects empty, oversized and non-printable names.
func ValidateDisplayName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: display name empty", ErrInvalidRequest)
	}
	if len(name) > MaxDisplayNameLen {
		return fmt.Errorf("%w: display name too long", ErrInvalidRequest)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: display name contains control characters", ErrInvalidRequest)
		}
	}
	return nil
}

// ValidDisplayName is the boolean form used by the request validator.
func ValidDisplayName(name string) bool {
	return ValidateDisplayName(name) == nil
}
