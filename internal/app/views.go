package app

import (
	"github.com/pion/webrtc/v4"

	"github.com/pairwave/rendezvous/internal/domain"
)

// PublicView is what an unauthenticated lookup may learn about a room:
// enough to drive a join UI, nothing that leaks codes, tokens or SDP.
type PublicView struct {
	Status       domain.RoomStatus `json:"status"`
	HostUserName string            `json:"hostUserName"`
}

// PrivateSnapshot is the authenticated poll result. It never includes
// candidate ledgers; those have their own read path scoped to the
// other role.
type PrivateSnapshot struct {
	Status domain.RoomStatus          `json:"status"`
	Offer  *webrtc.SessionDescription `json:"offer"`
	Answer *webrtc.SessionDescription `json:"answer"`
}

func publicView(rec *domain.RoomRecord) PublicView {
	return PublicView{Status: rec.Status, HostUserName: rec.HostUserName}
}

func privateSnapshot(rec *domain.RoomRecord) PrivateSnapshot {
	return PrivateSnapshot{Status: rec.Status, Offer: rec.Offer, Answer: rec.Answer}
}
