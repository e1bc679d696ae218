package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tally/internal/api"
)

// fakeServer keeps one data entry in memory and serves the data entry
// endpoints the way the election server does.
type fakeServer struct {
	mu          sync.Mutex
	data        api.PollingStationResults
	clientState json.RawMessage
	progress    int
	results     api.ValidationResults
	validate    func(api.PollingStationResults) api.ValidationResults
	saves       int
	failSaves   int
	deleted     bool
	finalised   bool
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{
		validate: func(api.PollingStationResults) api.ValidationResults {
			return api.ValidationResults{Errors: []api.ValidationResult{}, Warnings: []api.ValidationResult{}}
		},
	}
	server := httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(server.Close)
	return fs, server
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	const base = "/api/polling_stations/10/data_entries/1"
	switch {
	case r.URL.Path == base && r.Method == http.MethodGet:
		if fs.deleted {
			writeError(w, http.StatusNotFound, "data entry not found")
			return
		}
		_ = json.NewEncoder(w).Encode(api.LoadResponse{
			Data:              fs.data,
			ClientState:       fs.clientState,
			Progress:          fs.progress,
			ValidationResults: fs.results,
		})
	case r.URL.Path == base && r.Method == http.MethodPost:
		if fs.finalised {
			writeError(w, http.StatusConflict, "data entry already finalised")
			return
		}
		if fs.failSaves > 0 {
			fs.failSaves--
			writeError(w, http.StatusServiceUnavailable, "server busy")
			return
		}
		var req api.SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		fs.saves++
		fs.data = req.Data
		fs.clientState = req.ClientState
		fs.progress = req.Progress
		fs.deleted = false
		fs.results = fs.validate(req.Data)
		_ = json.NewEncoder(w).Encode(api.SaveResponse{ValidationResults: fs.results})
	case r.URL.Path == base && r.Method == http.MethodDelete:
		fs.deleted = true
		fs.data = api.PollingStationResults{}
		fs.clientState = nil
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == base+"/finalise" && r.Method == http.MethodPost:
		fs.finalised = true
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusNotFound, "no route")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: message})
}

func (fs *fakeServer) snapshot() (int, bool, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.saves, fs.deleted, fs.finalised
}

type cliTestEnv struct {
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, serverURL string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TALLY_SERVER_URL", "")
	t.Setenv("TALLY_API_TOKEN", "")

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[server]
base_url = %q
api_token = "test-token"
request_timeout = 5

[election]
id = 1

[[election.political_groups]]
number = 1
name = "Party A"

[[election.political_groups]]
number = 2
name = "Party B"

[paths]
state_dir = %q
log_dir = %q

[logging]
format = "console"
level = "error"
`, serverURL, filepath.Join(base, "state"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
