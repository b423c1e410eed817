package session

import "time"

// PeerInfo is the public view of a relay peer.
type PeerInfo struct {
	ID             string    `json:"peer_id"`
	Name           string    `json:"name"`
	Status         Status    `json:"status"`
	Messages       int       `json:"messages"`
	ConnectedAt    time.Time `json:"connected_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}
