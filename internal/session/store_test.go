package session_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"tally/internal/logging"
	"tally/internal/sections"
	"tally/internal/services"
	"tally/internal/session"
)

func TestStoreAllowsOneInFlightOperation(t *testing.T) {
	store := session.NewStore(newSession(), logging.NewNop())

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		refused   atomic.Int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Dispatch(session.SetStatus{Status: session.StatusSaving})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, services.ErrOperationInFlight):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 || refused.Load() != 31 {
		t.Fatalf("expected exactly one operation to start, got %d started %d refused", succeeded.Load(), refused.Load())
	}
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	store := session.NewStore(newSession(), logging.NewNop())
	var kinds []string
	unsubscribe := store.Subscribe(func(prev, next session.Session, action session.Action) {
		kinds = append(kinds, action.Kind())
		if action.Kind() == "form_saved" && prev.Form.Furthest == next.Form.Furthest {
			t.Errorf("expected furthest to move in notification")
		}
	})

	if err := store.Dispatch(saved(sections.Recounted, true, false, nil, nil)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := store.Dispatch(session.RegisterCurrentForm{Ref: sections.PoliticalGroupVotesRef{Number: 9}}); err == nil {
		t.Fatal("expected invariant error")
	}
	unsubscribe()
	if err := store.Dispatch(session.ResetTargetSection{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if len(kinds) != 1 || kinds[0] != "form_saved" {
		t.Fatalf("unexpected notifications %v", kinds)
	}
	if store.State().Form.Furthest != sections.VotersVotesCounts {
		t.Fatalf("unexpected furthest %q", store.State().Form.Furthest)
	}
}

func TestStoreStateIsACopy(t *testing.T) {
	store := session.NewStore(newSession(), logging.NewNop())
	snapshot := store.State()
	sec := snapshot.Form.Sections[sections.Recounted]
	sec.IsSaved = true
	snapshot.Form.Sections[sections.Recounted] = sec
	if store.State().Form.Sections[sections.Recounted].IsSaved {
		t.Fatal("mutating a snapshot must not affect the store")
	}
}

func TestStoreDeliversTransitionsInCommitOrder(t *testing.T) {
	store := session.NewStore(newSession(), logging.NewNop())

	var (
		mu        sync.Mutex
		delivered []bool
		order     []string
	)
	first := store.Subscribe(func(prev, next session.Session, action session.Action) {
		mu.Lock()
		defer mu.Unlock()
		// Each delivery must start from the state the previous one ended in.
		if len(delivered) > 0 && (prev.Cache != nil) != delivered[len(delivered)-1] {
			t.Errorf("delivery %d starts from a stale state", len(delivered))
		}
		delivered = append(delivered, next.Cache != nil)
		order = append(order, "first")
	})
	defer first()
	second := store.Subscribe(func(prev, next session.Session, action session.Action) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, "second")
	})
	defer second()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(set bool) {
			defer wg.Done()
			var cache *session.Cache
			if set {
				cache = &session.Cache{Key: sections.Recounted}
			}
			if err := store.Dispatch(session.SetCache{Cache: cache}); err != nil {
				t.Errorf("Dispatch: %v", err)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 64 {
		t.Fatalf("expected 64 deliveries, got %d", len(delivered))
	}
	if got := store.State().Cache != nil; got != delivered[len(delivered)-1] {
		t.Fatalf("last delivery does not match the stored cache")
	}
	for i := 0; i < len(order); i += 2 {
		if order[i] != "first" || order[i+1] != "second" {
			t.Fatalf("subscribers ran out of registration order: %v", order[i:i+2])
		}
	}
}

func TestStoreLogsRejectedActionsBySeverity(t *testing.T) {
	var buf bytes.Buffer
	store := session.NewStore(newSession(), slog.New(slog.NewJSONHandler(&buf, nil)))

	if err := store.Dispatch(session.SetStatus{Status: session.Status("paused")}); !errors.Is(err, services.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
	if err := store.Dispatch(session.SetStatus{Status: session.StatusSaving}); err != nil {
		t.Fatalf("Dispatch saving: %v", err)
	}
	if err := store.Dispatch(session.SetStatus{Status: session.StatusDeleting}); !errors.Is(err, services.ErrOperationInFlight) {
		t.Fatalf("expected in-flight error, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two records, got %q", buf.String())
	}
	var invariant, refused map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &invariant); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &refused); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if invariant["level"] != "ERROR" || invariant[logging.FieldEventType] != "invariant_violation" {
		t.Fatalf("unexpected invariant record %v", invariant)
	}
	if refused["level"] != "WARN" || refused[logging.FieldAction] == nil {
		t.Fatalf("unexpected refusal record %v", refused)
	}
}
