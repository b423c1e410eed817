package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestManagerCreateGetEnd(t *testing.T) {
	m := NewManager(time.Minute)
	p := m.Create("  John ")
	if p.ID == "" {
		t.Fatalf("peer ID should not be empty")
	}

	got, err := m.Get(p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "John" || got.Status != StatusActive {
		t.Fatalf("unexpected peer state: %+v", got)
	}

	ended, err := m.End(p.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
	if _, err := m.Get(p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after End error = %v, want ErrNotFound", err)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", m.ActiveCount())
	}
}

func TestManagerRecordMessage(t *testing.T) {
	m := NewManager(time.Minute)
	p := m.Create("")
	if p.Name != "anonymous" {
		t.Fatalf("Name = %q, want anonymous", p.Name)
	}
	for i := 0; i < 3; i++ {
		if err := m.RecordMessage(p.ID); err != nil {
			t.Fatalf("RecordMessage() error = %v", err)
		}
	}
	active := m.Active()
	if len(active) != 1 || active[0].Messages != 3 {
		t.Fatalf("Active() = %+v", active)
	}
	if err := m.RecordMessage("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RecordMessage(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	p := m.Create("quiet")
	var expired atomic.Int32
	m.SetExpireHook(func(got *Peer) {
		if got.ID == p.ID {
			expired.Add(1)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	time.Sleep(90 * time.Millisecond)
	got, err := m.Get(p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q", got.Status, StatusEnded)
	}
	if expired.Load() != 1 {
		t.Fatalf("expire hook ran %d times, want 1", expired.Load())
	}
}
