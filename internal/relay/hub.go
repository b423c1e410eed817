package relay

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/markovchat/internal/markov"
	"github.com/ent0n29/markovchat/internal/observability"
	"github.com/ent0n29/markovchat/internal/policy"
	"github.com/ent0n29/markovchat/internal/protocol"
	"github.com/ent0n29/markovchat/internal/session"
)

const (
	outboundQueue = 64
	readLimit     = 64 << 10
	readTimeout   = 120 * time.Second
	writeTimeout  = 10 * time.Second
	pingInterval  = 30 * time.Second
)

// Hub relays chat between peers. Every message a peer sends is turned into a
// seed (its trailing word) and offered to all other peers.
type Hub struct {
	sessions *session.Manager
	metrics  *observability.Metrics

	mu    sync.RWMutex
	peers map[string]*peer
}

type peer struct {
	id     string
	name   string
	out    chan any
	cancel context.CancelFunc
}

func NewHub(sessions *session.Manager, metrics *observability.Metrics) *Hub {
	return &Hub{
		sessions: sessions,
		metrics:  metrics,
		peers:    make(map[string]*peer),
	}
}

// SeedFor extracts the seed broadcast for a chat message: the last word of
// text after one trailing newline is removed.
func SeedFor(text string) string {
	return markov.LastWord(strings.TrimSuffix(text, "\n"))
}

// Serve runs one peer connection until it closes or ctx is done.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, name string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	info := h.sessions.Create(name)
	p := &peer{
		id:     info.ID,
		name:   info.Name,
		out:    make(chan any, outboundQueue),
		cancel: cancel,
	}
	h.add(p)
	defer h.remove(p)
	log.Printf("relay: accepted peer %s (%s)", p.name, p.id)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, p)
	}()

	h.enqueue(p, protocol.SystemEvent{
		Type:   protocol.TypeSystemEvent,
		PeerID: p.id,
		Code:   "connected",
	})

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		h.handle(p, data)
	}

	cancel()
	<-writerDone
}

func (h *Hub) handle(p *peer, data []byte) {
	parsed, err := protocol.ParseClientMessage(data)
	if err != nil {
		h.metrics.RelayMessages.WithLabelValues("inbound", "invalid").Inc()
		h.enqueue(p, protocol.ErrorEvent{
			Type:   protocol.TypeErrorEvent,
			Code:   "invalid_client_message",
			Source: "relay",
			Detail: err.Error(),
		})
		return
	}

	msg, ok := parsed.(protocol.ChatMessage)
	if !ok {
		return
	}
	h.metrics.RelayMessages.WithLabelValues("inbound", string(msg.Type)).Inc()
	_ = h.sessions.RecordMessage(p.id)

	redacted, _ := policy.RedactPII(strings.TrimSuffix(msg.Text, "\n"))
	log.Printf("relay: received from %s: %s", p.name, redacted)

	h.Broadcast(p.id, protocol.Seed{
		Type: protocol.TypeSeed,
		Word: SeedFor(msg.Text),
		From: p.name,
	})
}

// Broadcast queues msg for every peer except the one with id from and returns
// how many peers it was queued for.
func (h *Hub) Broadcast(from string, msg any) int {
	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	for id, p := range h.peers {
		if id != from {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	n := 0
	for _, p := range targets {
		if h.enqueue(p, msg) {
			n++
		}
	}
	return n
}

// Disconnect drops the peer with the given id, if connected.
func (h *Hub) Disconnect(id string) {
	h.mu.RLock()
	p, ok := h.peers[id]
	h.mu.RUnlock()
	if ok {
		p.cancel()
	}
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) enqueue(p *peer, msg any) bool {
	typ, _ := protocol.TypeOf(msg)
	select {
	case p.out <- msg:
		return true
	default:
		// Keep websocket writes single-threaded; drop if the queue is saturated.
		h.metrics.RelayMessages.WithLabelValues("dropped", string(typ)).Inc()
		return false
	}
}

func (h *Hub) writeLoop(ctx context.Context, conn *websocket.Conn, p *peer) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				p.cancel()
				return
			}
		case msg := <-p.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				p.cancel()
				return
			}
			if typ, ok := protocol.TypeOf(msg); ok {
				h.metrics.RelayMessages.WithLabelValues("outbound", string(typ)).Inc()
			}
		}
	}
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p.id] = p
	h.mu.Unlock()
	h.metrics.ActivePeers.Set(float64(h.sessions.ActiveCount()))
	h.metrics.PeerEvents.WithLabelValues("connected").Inc()
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p.id)
	h.mu.Unlock()
	_, _ = h.sessions.End(p.id)
	h.metrics.ActivePeers.Set(float64(h.sessions.ActiveCount()))
	h.metrics.PeerEvents.WithLabelValues("disconnected").Inc()
	log.Printf("relay: peer %s (%s) left", p.name, p.id)
}
