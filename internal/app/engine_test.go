package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairwave/rendezvous/internal/adapters/storage/storagetest"
	"github.com/pairwave/rendezvous/internal/app"
	"github.com/pairwave/rendezvous/internal/core"
	"github.com/pairwave/rendezvous/internal/domain"
)

var (
	offerSDP  = webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 offer"}
	answerSDP = webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 answer"}
)

func newEngine(t *testing.T) (*app.Engine, *storagetest.StaleStore) {
	t.Helper()
	store := storagetest.NewStale()
	return app.NewEngine(store, time.Hour), store
}

func createRoom(t *testing.T, e *app.Engine) *app.CreateResult {
	t.Helper()
	res, err := e.Create(context.Background(), "alice")
	require.NoError(t, err)
	return res
}

func pairRoom(t *testing.T, e *app.Engine) (*app.CreateResult, *app.JoinResult) {
	t.Helper()
	created := createRoom(t, e)
	joined, err := e.Join(context.Background(), created.Code, created.JoinCode, "bob")
	require.NoError(t, err)
	return created, joined
}

func TestCreateReturnsWellFormedCodes(t *testing.T) {
	e, _ := newEngine(t)
	res := createRoom(t, e)

	assert.Len(t, res.Code, domain.RoomCodeLen)
	assert.Len(t, res.JoinCode, domain.JoinCodeLen)
	assert.NotEqual(t, res.Code, res.JoinCode)
	assert.NotEmpty(t, res.OwnerToken)
}

func TestCreateRejectsBadName(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Create(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestLookupPublicProjection(t *testing.T) {
	e, _ := newEngine(t)
	res := createRoom(t, e)

	view, err := e.Lookup(context.Background(), res.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, view.Status)
	assert.Equal(t, "alice", view.HostUserName)
}

func TestLookupUnknownRoom(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Lookup(context.Background(), "aB2cD3eF")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinMintsGuestToken(t *testing.T) {
	e, _ := newEngine(t)
	created, joined := pairRoom(t, e)

	assert.NotEmpty(t, joined.GuestToken)
	assert.NotEqual(t, created.OwnerToken, joined.GuestToken)

	view, err := e.Lookup(context.Background(), created.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaired, view.Status)
}

func TestJoinFailuresCollapseToBadJoinCode(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created := createRoom(t, e)

	// Wrong code.
	_, err := e.Join(ctx, created.Code, "WRONG9", "bob")
	assert.ErrorIs(t, err, domain.ErrBadJoinCode)

	// Absent room.
	_, err = e.Join(ctx, "aB2cD3eF", created.JoinCode, "bob")
	assert.ErrorIs(t, err, domain.ErrBadJoinCode)

	// Already paired, even with the correct code.
	_, err = e.Join(ctx, created.Code, created.JoinCode, "bob")
	require.NoError(t, err)
	_, err = e.Join(ctx, created.Code, created.JoinCode, "carol")
	assert.ErrorIs(t, err, domain.ErrBadJoinCode)
}

func TestOfferLegalWhileOpen(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created := createRoom(t, e)

	require.NoError(t, e.SubmitOffer(ctx, created.Code, created.OwnerToken, offerSDP))

	snap, err := e.Snapshot(ctx, created.Code, created.OwnerToken)
	require.NoError(t, err)
	require.NotNil(t, snap.Offer)
	assert.Equal(t, offerSDP.SDP, snap.Offer.SDP)
	assert.Nil(t, snap.Answer)
}

func TestOfferRequiresHostToken(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created, joined := pairRoom(t, e)

	err := e.SubmitOffer(ctx, created.Code, joined.GuestToken, offerSDP)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = e.SubmitOffer(ctx, created.Code, "bogus", offerSDP)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAnswerBeforeJoinIsInvalidState(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created := createRoom(t, e)

	err := e.SubmitAnswer(ctx, created.Code, created.OwnerToken, answerSDP)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestAnswerRequiresGuestToken(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created, _ := pairRoom(t, e)
	require.NoError(t, e.SubmitOffer(ctx, created.Code, created.OwnerToken, offerSDP))

	err := e.SubmitAnswer(ctx, created.Code, created.OwnerToken, answerSDP)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCandidateIdempotent(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created, joined := pairRoom(t, e)

	const cand = "candidate:1 1 UDP 2130706431 192.0.2.1 54400 typ host"
	require.NoError(t, e.SubmitCandidate(ctx, created.Code, created.OwnerToken, cand))
	require.NoError(t, e.SubmitCandidate(ctx, created.Code, created.OwnerToken, cand))

	items, err := e.Candidates(ctx, created.Code, joined.GuestToken)
	require.NoError(t, err)
	assert.Equal(t, []string{cand}, items)
}

func TestCandidatesReturnOtherRolesLedger(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created, joined := pairRoom(t, e)

	require.NoError(t, e.SubmitCandidate(ctx, created.Code, created.OwnerToken, "host-cand"))
	require.NoError(t, e.SubmitCandidate(ctx, created.Code, joined.GuestToken, "guest-cand"))

	fromHost, err := e.Candidates(ctx, created.Code, created.OwnerToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-cand"}, fromHost)

	fromGuest, err := e.Candidates(ctx, created.Code, joined.GuestToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"host-cand"}, fromGuest)
}

func TestCandidatesEmptyLedgerIsEmptyList(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created, _ := pairRoom(t, e)

	items, err := e.Candidates(ctx, created.Code, created.OwnerToken)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

// The core distributed-systems property: a candidate append whose read
// of the room record is stale (from before a completed offer write)
// must leave the offer untouched, because the append writes a disjoint
// key. Here even freshest-effort reads return the stale version, which
// is exactly the contract of the replicated backend.
func TestCandidateNeverRevertsRoomFields(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)
	created, joined := pairRoom(t, e)

	// From now on every write keeps its previous version visible to the
	// next two reads, freshest or not.
	store.Lag = 2
	store.StaleFreshest = true

	require.NoError(t, e.SubmitOffer(ctx, created.Code, created.OwnerToken, offerSDP))

	// The candidate operation now reads a room record from before the
	// offer write. It must still complete and must not clobber the offer.
	require.NoError(t, e.SubmitCandidate(ctx, created.Code, created.OwnerToken, "cand-a"))

	// Drain whatever lag remains so we observe the converged state.
	store.Lag = 0
	store.StaleFreshest = false
	for i := 0; i < 3; i++ {
		_, _ = e.Snapshot(ctx, created.Code, created.OwnerToken)
	}

	snap, err := e.Snapshot(ctx, created.Code, created.OwnerToken)
	require.NoError(t, err)
	require.NotNil(t, snap.Offer, "candidate append reverted the offer")
	assert.Equal(t, offerSDP.SDP, snap.Offer.SDP)

	items, err := e.Candidates(ctx, created.Code, joined.GuestToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"cand-a"}, items)
}

func TestCloseIsHostOnlyAndTerminal(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	created, joined := pairRoom(t, e)

	err := e.Close(ctx, created.Code, joined.GuestToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, e.Close(ctx, created.Code, created.OwnerToken))

	// Every authorized operation now fails with RoomClosed, including a
	// second close and reads with previously valid tokens.
	assert.ErrorIs(t, e.Close(ctx, created.Code, created.OwnerToken), domain.ErrRoomClosed)
	assert.ErrorIs(t, e.SubmitOffer(ctx, created.Code, created.OwnerToken, offerSDP), domain.ErrRoomClosed)
	assert.ErrorIs(t, e.SubmitCandidate(ctx, created.Code, joined.GuestToken, "c"), domain.ErrRoomClosed)
	_, err = e.Snapshot(ctx, created.Code, created.OwnerToken)
	assert.ErrorIs(t, err, domain.ErrRoomClosed)
	_, err = e.Candidates(ctx, created.Code, joined.GuestToken)
	assert.ErrorIs(t, err, domain.ErrRoomClosed)

	// Joining a closed room is indistinguishable from a bad code.
	_, err = e.Join(ctx, created.Code, created.JoinCode, "carol")
	assert.ErrorIs(t, err, domain.ErrBadJoinCode)
}

func TestCloseDeletesLedgers(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)
	created, _ := pairRoom(t, e)
	require.NoError(t, e.SubmitCandidate(ctx, created.Code, created.OwnerToken, "cand"))
	require.NoError(t, e.Close(ctx, created.Code, created.OwnerToken))

	_, found, err := store.Get(ctx, core.LedgerKey(created.Code, domain.RoleHost), core.ReadOptions{Freshest: true})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEndToEndSignalingExchange(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	created := createRoom(t, e)
	joined, err := e.Join(ctx, created.Code, created.JoinCode, "bob")
	require.NoError(t, err)

	require.NoError(t, e.SubmitOffer(ctx, created.Code, created.OwnerToken, offerSDP))
	require.NoError(t, e.SubmitAnswer(ctx, created.Code, joined.GuestToken, answerSDP))
	require.NoError(t, e.SubmitCandidate(ctx, created.Code, created.OwnerToken, "host-cand"))
	require.NoError(t, e.SubmitCandidate(ctx, created.Code, joined.GuestToken, "guest-cand"))

	for _, token := range []string{created.OwnerToken, joined.GuestToken} {
		snap, err := e.Snapshot(ctx, created.Code, token)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaired, snap.Status)
		require.NotNil(t, snap.Offer)
		require.NotNil(t, snap.Answer)
	}

	hostSees, err := e.Candidates(ctx, created.Code, created.OwnerToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-cand"}, hostSees)

	guestSees, err := e.Candidates(ctx, created.Code, joined.GuestToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"host-cand"}, guestSees)
}

// failStore turns every call into a backend failure.
type failStore struct{}

func (failStore) Get(context.Context, string, core.ReadOptions) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}
func (failStore) Put(context.Context, string, []byte, core.WriteOptions) error {
	return errors.New("backend down")
}
func (failStore) Delete(context.Context, string) error {
	return errors.New("backend down")
}

func TestStorageFailuresSurfaceUnretried(t *testing.T) {
	e := app.NewEngine(failStore{}, time.Hour)
	_, err := e.Create(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = e.Lookup(context.Background(), "aB2cD3eF")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
