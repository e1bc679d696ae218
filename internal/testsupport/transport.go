package testsupport

import (
	"context"
	"sync"

	"tally/internal/api"
	"tally/internal/services"
)

// Call records one request received by a FakeTransport.
type Call struct {
	Method           string
	PollingStationID int64
	EntryNumber      int
	RequestID        string
	Save             *api.SaveRequest
}

// FakeTransport is an in-memory server for coordinator tests. Responses and
// errors are configured through the exported fields before use. When Gate is
// non-nil every call blocks until a value is received from it or the context
// ends.
type FakeTransport struct {
	mu sync.Mutex

	LoadResponse api.LoadResponse
	SaveResponse api.SaveResponse
	LoadErr      error
	SaveErr      error
	DeleteErr    error
	FinaliseErr  error

	Gate    chan struct{}
	Started chan string

	calls []Call
}

// NewFakeTransport returns a transport that accepts everything.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Calls returns a copy of the recorded calls.
func (f *FakeTransport) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// LastSave returns the most recent save request, if any.
func (f *FakeTransport) LastSave() (api.SaveRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Save != nil {
			return *f.calls[i].Save, true
		}
	}
	return api.SaveRequest{}, false
}

func (f *FakeTransport) record(ctx context.Context, method string, ps int64, entry int, save *api.SaveRequest) error {
	id, _ := services.RequestIDFromContext(ctx)
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, PollingStationID: ps, EntryNumber: entry, RequestID: id, Save: save})
	gate, started := f.Gate, f.Started
	f.mu.Unlock()

	if started != nil {
		started <- method
	}
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return services.Wrap(services.ErrTransport, "fake", method, "cancelled", ctx.Err())
	}
}

func (f *FakeTransport) Load(ctx context.Context, ps int64, entry int) (api.LoadResponse, error) {
	if err := f.record(ctx, "load", ps, entry, nil); err != nil {
		return api.LoadResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LoadResponse, f.LoadErr
}

func (f *FakeTransport) Save(ctx context.Context, ps int64, entry int, req api.SaveRequest) (api.SaveResponse, error) {
	if err := f.record(ctx, "save", ps, entry, &req); err != nil {
		return api.SaveResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SaveErr != nil {
		return api.SaveResponse{}, f.SaveErr
	}
	return f.SaveResponse, nil
}

func (f *FakeTransport) Delete(ctx context.Context, ps int64, entry int) error {
	if err := f.record(ctx, "delete", ps, entry, nil); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DeleteErr
}

func (f *FakeTransport) Finalise(ctx context.Context, ps int64, entry int) error {
	if err := f.record(ctx, "finalise", ps, entry, nil); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.FinaliseErr
}
