package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tally/internal/config"
)

const userAgent = "tally/0.1.0"

// Entry identifies the data entry a notice is about.
type Entry struct {
	ElectionID       int64
	PollingStationID int64
	EntryNumber      int
	Progress         int
}

func (e Entry) label() string {
	return fmt.Sprintf("polling station %d, entry %d", e.PollingStationID, e.EntryNumber)
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyFinalised(ctx context.Context, entry Entry) error
	NotifyDeleted(ctx context.Context, entry Entry) error
	NotifyLeft(ctx context.Context, entry Entry) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	return newNtfyService(topic, &http.Client{Timeout: cfg.NotificationTimeout()})
}

// Enabled reports whether svc delivers notices anywhere.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func newNtfyService(endpoint string, client *http.Client) *ntfyService {
	return &ntfyService{endpoint: endpoint, client: client}
}

func (n *ntfyService) NotifyFinalised(ctx context.Context, entry Entry) error {
	return n.send(ctx, payload{
		title:    "Tally - Entry Finalised",
		message:  fmt.Sprintf("Finalised %s (election %d)", entry.label(), entry.ElectionID),
		tags:     []string{"tally", "entry", "finalised"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyDeleted(ctx context.Context, entry Entry) error {
	return n.send(ctx, payload{
		title:   "Tally - Entry Deleted",
		message: fmt.Sprintf("Deleted %s (election %d)", entry.label(), entry.ElectionID),
		tags:    []string{"tally", "entry", "deleted"},
	})
}

func (n *ntfyService) NotifyLeft(ctx context.Context, entry Entry) error {
	return n.send(ctx, payload{
		title:   "Tally - Entry Saved For Later",
		message: fmt.Sprintf("Left %s at %d%% (election %d)", entry.label(), entry.Progress, entry.ElectionID),
		tags:    []string{"tally", "entry", "aborted"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "Tally - Error",
		message:  builder.String(),
		tags:     []string{"tally", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Tally - Test",
		message:  "Notification system test",
		tags:     []string{"tally", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyFinalised(context.Context, Entry) error     { return nil }
func (noopService) NotifyDeleted(context.Context, Entry) error       { return nil }
func (noopService) NotifyLeft(context.Context, Entry) error          { return nil }
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
