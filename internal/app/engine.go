// Package app implements the room synchronization engine: lifecycle
// state machine, token authority and the partitioned-write persistence
// discipline that keeps an eventually consistent backend safe.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/pairwave/rendezvous/internal/core"
	"github.com/pairwave/rendezvous/internal/domain"
)

// createAttempts bounds room code regeneration on the (vanishingly
// rare) collision with an existing room.
const createAttempts = 5

// Engine orchestrates room operations. It is stateless and
// shared-nothing: all cross-request coordination goes through the
// store, and the engine never holds a cross-request lock. Correctness
// under concurrent requests comes from key ownership (core.OpClass),
// not from serialization the engine performs itself.
type Engine struct {
	store core.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewEngine wires the engine to a storage backend. roomTTL is attached
// to every write so abandoned rooms expire on their own; zero disables
// expiry.
func NewEngine(store core.Store, roomTTL time.Duration) *Engine {
	return &Engine{store: store, ttl: roomTTL, now: time.Now}
}

// CreateResult is returned once; the owner token is never readable again.
type CreateResult struct {
	Code       string `json:"code"`
	JoinCode   string `json:"joinCode"`
	OwnerToken string `json:"ownerToken"`
}

// JoinResult is returned once, on the successful join.
type JoinResult struct {
	GuestToken string `json:"guestToken"`
}

// Create opens a new room and mints the owner token.
func (e *Engine) Create(ctx context.Context, hostName string) (*CreateResult, error) {
	joinCode, err := domain.NewJoinCode()
	if err != nil {
		return nil, err
	}
	token, hash, err := MintToken()
	if err != nil {
		return nil, err
	}
	rec, err := domain.NewRoomRecord(hostName, joinCode, hash, e.nowMs())
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := domain.NewRoomCode()
		if err != nil {
			return nil, err
		}
		_, exists, err := e.store.Get(ctx, core.RoomKey(code), core.ReadOptions{Freshest: true})
		if err != nil {
			return nil, storageErr("probe room code", err)
		}
		if exists {
			continue
		}
		if err := e.writeRoom(ctx, code, rec); err != nil {
			return nil, err
		}
		log.Info().Str("module", "app").Str("room", code).Msg("room created")
		return &CreateResult{Code: code, JoinCode: joinCode, OwnerToken: token}, nil
	}
	return nil, storageErr("allocate room code", errors.New("code space exhausted"))
}

// Lookup is the unauthenticated public projection.
func (e *Engine) Lookup(ctx context.Context, code string) (*PublicView, error) {
	rec, err := e.loadRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	v := publicView(rec)
	return &v, nil
}

// Join admits the guest and mints the guest token. Absent room,
// non-open room and wrong code are indistinguishable to the caller.
func (e *Engine) Join(ctx context.Context, code, joinCode, guestName string) (*JoinResult, error) {
	rec, err := e.loadRoom(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, domain.ErrBadJoinCode
		}
		return nil, err
	}
	token, hash, err := MintToken()
	if err != nil {
		return nil, err
	}
	if err := rec.Join(joinCode, guestName, hash); err != nil {
		return nil, err
	}
	if err := e.writeRoom(ctx, code, rec); err != nil {
		return nil, err
	}
	log.Info().Str("module", "app").Str("room", code).Msg("guest joined")
	return &JoinResult{GuestToken: token}, nil
}

// SubmitOffer stores the host's SDP offer. Legal while open or paired.
func (e *Engine) SubmitOffer(ctx context.Context, code, token string, desc webrtc.SessionDescription) error {
	rec, role, err := e.authorize(ctx, code, token)
	if err != nil {
		return err
	}
	if role != domain.RoleHost {
		return domain.ErrUnauthorized
	}
	if err := rec.SetOffer(desc); err != nil {
		return err
	}
	return e.writeRoom(ctx, code, rec)
}

// SubmitAnswer stores the guest's SDP answer. Requires a paired room
// with an offer already present.
func (e *Engine) SubmitAnswer(ctx context.Context, code, token string, desc webrtc.SessionDescription) error {
	rec, role, err := e.authorize(ctx, code, token)
	if err != nil {
		return err
	}
	// State before role: an answer is illegal in an unpaired room no
	// matter who asks, and before a join no guest token exists anyway.
	if rec.Status != domain.StatusPaired {
		return domain.ErrInvalidState
	}
	if role != domain.RoleGuest {
		return domain.ErrUnauthorized
	}
	if err := rec.SetAnswer(desc); err != nil {
		return err
	}
	return e.writeRoom(ctx, code, rec)
}

// SubmitCandidate appends to the caller's own ledger. The room record
// is read for authorization but never written here: the ledger key is
// the only write target, so a stale room read cannot revert any room
// field. Appending an already-present string is a no-op.
func (e *Engine) SubmitCandidate(ctx context.Context, code, token, candidate string) error {
	if candidate == "" {
		return fmt.Errorf("%w: empty candidate", domain.ErrInvalidRequest)
	}
	rec, role, err := e.authorize(ctx, code, token)
	if err != nil {
		return err
	}
	// Legality is gated on role and status only. Gating on the SDP legs
	// would make legality flip with replica staleness; status is
	// monotonic, so a fresh-enough read can only widen what is allowed.
	if role == domain.RoleGuest && rec.Status != domain.StatusPaired {
		return domain.ErrInvalidState
	}

	class := core.CandidateClass(role)
	key := class.WriteKey(code)
	raw, _, err := e.store.Get(ctx, key, core.ReadOptions{Freshest: true})
	if err != nil {
		return storageErr("get ledger", err)
	}
	items, err := decodeLedger(raw)
	if err != nil {
		return err
	}
	items, added := appendCandidate(items, candidate)
	if !added {
		return nil
	}
	out, err := encodeLedger(items)
	if err != nil {
		return err
	}
	if err := e.store.Put(ctx, key, out, core.WriteOptions{TTL: e.ttl}); err != nil {
		return storageErr("put ledger", err)
	}
	return nil
}

// Snapshot returns the authenticated room projection for either role.
func (e *Engine) Snapshot(ctx context.Context, code, token string) (*PrivateSnapshot, error) {
	rec, _, err := e.authorize(ctx, code, token)
	if err != nil {
		return nil, err
	}
	s := privateSnapshot(rec)
	return &s, nil
}

// Candidates returns the OTHER role's ledger: a peer never needs to
// read back its own contributions.
func (e *Engine) Candidates(ctx context.Context, code, token string) ([]string, error) {
	_, role, err := e.authorize(ctx, code, token)
	if err != nil {
		return nil, err
	}
	raw, _, err := e.store.Get(ctx, core.LedgerKey(code, role.Other()), core.ReadOptions{Freshest: true})
	if err != nil {
		return nil, storageErr("get ledger", err)
	}
	items, err := decodeLedger(raw)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

// Close is host-only and terminal. Ledgers are deleted best-effort;
// the write TTL is the backstop if a delete is lost.
func (e *Engine) Close(ctx context.Context, code, token string) error {
	rec, role, err := e.authorize(ctx, code, token)
	if err != nil {
		return err
	}
	if role != domain.RoleHost {
		return domain.ErrUnauthorized
	}
	if err := rec.Close(); err != nil {
		return err
	}
	if err := e.writeRoom(ctx, code, rec); err != nil {
		return err
	}
	for _, r := range []domain.Role{domain.RoleHost, domain.RoleGuest} {
		if err := e.store.Delete(ctx, core.LedgerKey(code, r)); err != nil {
			log.Warn().Err(err).Str("module", "app").Str("room", code).Msg("ledger cleanup failed")
		}
	}
	log.Info().Str("module", "app").Str("room", code).Msg("room closed")
	return nil
}

// authorize loads the room (freshest-effort) and resolves the token.
// Closed rooms fail before token verification: tokens die with the room.
func (e *Engine) authorize(ctx context.Context, code, token string) (*domain.RoomRecord, domain.Role, error) {
	rec, err := e.loadRoom(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, "", domain.ErrUnauthorized
		}
		return nil, "", err
	}
	if rec.Status == domain.StatusClosed {
		return nil, "", domain.ErrRoomClosed
	}
	role, err := VerifyRole(rec, token)
	if err != nil {
		return nil, "", err
	}
	return rec, role, nil
}

func (e *Engine) loadRoom(ctx context.Context, code string) (*domain.RoomRecord, error) {
	raw, ok, err := e.store.Get(ctx, core.RoomKey(code), core.ReadOptions{Freshest: true})
	if err != nil {
		return nil, storageErr("get room", err)
	}
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return domain.DecodeRoomRecord(raw)
}

// writeRoom is the single funnel for OpRoomLifecycle writes. Candidate
// operations have no path to it.
func (e *Engine) writeRoom(ctx context.Context, code string, rec *domain.RoomRecord) error {
	rec.LastActivityAtMs = e.nowMs()
	raw, err := domain.EncodeRoomRecord(rec)
	if err != nil {
		return err
	}
	key := core.OpRoomLifecycle.WriteKey(code)
	if err := e.store.Put(ctx, key, raw, core.WriteOptions{TTL: e.ttl}); err != nil {
		return storageErr("put room", err)
	}
	return nil
}

func (e *Engine) nowMs() int64 {
	return e.now().UnixMilli()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, op, err)
}
