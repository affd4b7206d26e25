package webhook

import (
	"encoding/json"
	"strconv"
	"time"

	"memealerts-eventplane/pkg/event"
)

// Normalizer maps one provider's raw payload to the canonical envelope.
// Returns false when the payload cannot be normalized: missing identity
// fields, unknown event type, malformed JSON. Never panics on shape.
type Normalizer func(body []byte) (*event.Envelope, bool)

type payload = map[string]any

func decode(body []byte) (payload, bool) {
	var m payload
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, false
	}
	return m, true
}

func obj(m payload, key string) payload {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func str(m payload, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func num(m payload, keys ...string) int64 {
	if m == nil {
		return 0
	}
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int64(v)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

func timeAt(m payload, keys ...string) *time.Time {
	for _, key := range keys {
		raw := str(m, key)
		if raw == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return &ts
		}
	}
	return nil
}

func strList(m payload, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
