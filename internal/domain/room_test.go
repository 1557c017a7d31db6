package domain_test

import (
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairwave/rendezvous/internal/domain"
)

func newTestRoom(t *testing.T) *domain.RoomRecord {
	t.Helper()
	rec, err := domain.NewRoomRecord("alice", "ABC234", "hosthash", 1000)
	require.NoError(t, err)
	return rec
}

func TestNewRoomRecord(t *testing.T) {
	rec := newTestRoom(t)
	assert.Equal(t, domain.StatusOpen, rec.Status)
	assert.Equal(t, "alice", rec.HostUserName)
	assert.Empty(t, rec.GuestUserName)
	assert.Nil(t, rec.Offer)
	assert.Nil(t, rec.Answer)
	assert.Equal(t, int64(1000), rec.CreatedAtMs)
}

func TestNewRoomRecordRejectsBadNames(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"too long": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"control":  "al\x00ice",
	}
	for name, hostName := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := domain.NewRoomRecord(hostName, "ABC234", "h", 0)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestJoinTransitionsToPaired(t *testing.T) {
	rec := newTestRoom(t)
	require.NoError(t, rec.Join("ABC234", "bob", "guesthash"))
	assert.Equal(t, domain.StatusPaired, rec.Status)
	assert.Equal(t, "bob", rec.GuestUserName)
	assert.Equal(t, "guesthash", rec.GuestTokenHash)
}

func TestJoinWrongCode(t *testing.T) {
	rec := newTestRoom(t)
	assert.ErrorIs(t, rec.Join("XXXXXX", "bob", "h"), domain.ErrBadJoinCode)
	assert.Equal(t, domain.StatusOpen, rec.Status)
}

func TestJoinNotOpen(t *testing.T) {
	rec := newTestRoom(t)
	require.NoError(t, rec.Join("ABC234", "bob", "h"))
	// Correct code, but the room is already paired.
	assert.ErrorIs(t, rec.Join("ABC234", "carol", "h2"), domain.ErrBadJoinCode)

	require.NoError(t, rec.Close())
	assert.ErrorIs(t, rec.Join("ABC234", "carol", "h2"), domain.ErrBadJoinCode)
}

func TestOfferAllowedWhileOpen(t *testing.T) {
	rec := newTestRoom(t)
	err := rec.SetOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"})
	require.NoError(t, err)
	require.NotNil(t, rec.Offer)
	assert.Equal(t, "v=0", rec.Offer.SDP)
}

func TestOfferOverwrites(t *testing.T) {
	rec := newTestRoom(t)
	require.NoError(t, rec.SetOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "first"}))
	require.NoError(t, rec.SetOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "second"}))
	assert.Equal(t, "second", rec.Offer.SDP)
}

func TestOfferRejectsWrongType(t *testing.T) {
	rec := newTestRoom(t)
	err := rec.SetOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestAnswerRequiresPairedAndOffer(t *testing.T) {
	rec := newTestRoom(t)
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"}

	assert.ErrorIs(t, rec.SetAnswer(answer), domain.ErrInvalidState)

	require.NoError(t, rec.Join("ABC234", "bob", "h"))
	// Paired but no offer yet.
	assert.ErrorIs(t, rec.SetAnswer(answer), domain.ErrInvalidState)

	require.NoError(t, rec.SetOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}))
	assert.NoError(t, rec.SetAnswer(answer))
}

func TestClosedIsTerminal(t *testing.T) {
	rec := newTestRoom(t)
	require.NoError(t, rec.Close())

	assert.ErrorIs(t, rec.Close(), domain.ErrRoomClosed)
	assert.ErrorIs(t, rec.SetOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"}), domain.ErrRoomClosed)
	assert.ErrorIs(t, rec.SetAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"}), domain.ErrRoomClosed)
}

func TestCodecRoundTrip(t *testing.T) {
	rec := newTestRoom(t)
	require.NoError(t, rec.Join("ABC234", "bob", "guesthash"))
	require.NoError(t, rec.SetOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}))

	raw, err := domain.EncodeRoomRecord(rec)
	require.NoError(t, err)

	got, err := domain.DecodeRoomRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRejectsBrokenInvariants(t *testing.T) {
	// Answer without offer must never cross the storage port.
	raw := []byte(`{"status":"paired","joinCode":"ABC234","hostUserName":"a","guestUserName":"b",` +
		`"answer":{"type":"answer","sdp":"v=0"},"hostTokenHash":"h"}`)
	_, err := domain.DecodeRoomRecord(raw)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	raw = []byte(`{"status":"haunted","joinCode":"ABC234","hostUserName":"a","hostTokenHash":"h"}`)
	_, err = domain.DecodeRoomRecord(raw)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
