package testsupport

import (
	"testing"

	"tally/internal/formstate"
	"tally/internal/logging"
	"tally/internal/session"
)

// Groups is the default pair of lists used by session fixtures.
var Groups = []formstate.PoliticalGroup{
	{Number: 1, Name: "Party A"},
	{Number: 2, Name: "Party B"},
}

// NewStore returns a store holding a fresh session for polling station 10,
// entry 1, with the default lists.
func NewStore(t testing.TB) *session.Store {
	t.Helper()
	return session.NewStore(session.New(1, 10, 1, Groups), logging.NewNop())
}

// MustDispatch applies actions to store and fails the test on error.
func MustDispatch(t testing.TB, store *session.Store, actions ...session.Action) {
	t.Helper()
	for _, a := range actions {
		if err := store.Dispatch(a); err != nil {
			t.Fatalf("dispatch %s: %v", a.Kind(), err)
		}
	}
}
