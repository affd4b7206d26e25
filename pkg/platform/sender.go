package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers one chat message to a destination channel on a platform.
// Implementations wrap the per-platform chat clients (IRC, REST, websocket)
// which live outside this service.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// Registry resolves the Sender for a provider.
type Registry struct {
	senders map[string]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

func (r *Registry) Register(provider string, s Sender) {
	r.senders[provider] = s
}

func (r *Registry) Resolve(provider string) (Sender, error) {
	s, ok := r.senders[provider]
	if !ok {
		return nil, fmt.Errorf("no chat sender registered for provider %q", provider)
	}
	return s, nil
}

// HTTPSender posts messages to an internal chat-proxy endpoint that owns the
// platform connection.
type HTTPSender struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewHTTPSender(baseURL, token string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSender{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
	}
}

func (s *HTTPSender) Send(ctx context.Context, destination, text string) error {
	body, err := json.Marshal(map[string]string{
		"destination": destination,
		"text":        text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat proxy returned status %d", resp.StatusCode)
	}

	return nil
}
