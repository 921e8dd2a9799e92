package serialmux

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

// DeviceState holds the latest config values reported by the bridge so admin
// routes and the status endpoint can inspect them.
type DeviceState struct {
	mu     sync.RWMutex
	values map[string]any
}

// Snapshot returns a copy of the reported values.
func (s *DeviceState) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *DeviceState) merge(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]any)
	}
	for k, v := range values {
		s.values[k] = v
	}
}

// Handlers routes the non-sample lines of the bridge stream. Samples are
// consumed by the gyro source through its own subscription.
type Handlers struct {
	// OnButton is called for every button edge.
	OnButton func()
	// State receives config responses. May be nil.
	State *DeviceState
}

// HandleConfigResponse merges a JSON config line into state.
func HandleConfigResponse(state *DeviceState, payload string) error {
	var configValues map[string]any
	if err := json.Unmarshal([]byte(payload), &configValues); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if state != nil {
		state.merge(configValues)
	}
	monitoring.Logf("Config Line: %+v", payload)
	return nil
}

// HandleEvent dispatches one line.
func HandleEvent(h Handlers, payload string) error {
	switch ClassifyPayload(payload) {
	case EventTypeButton:
		if h.OnButton != nil {
			h.OnButton()
		}
	case EventTypeConfig:
		if err := HandleConfigResponse(h.State, payload); err != nil {
			return fmt.Errorf("failed to handle config response: %w", err)
		}
	case EventTypeSample, EventTypeRawData:
		// consumed by the sample source
	default:
		monitoring.Logf("unknown event type: %s", payload)
	}
	return nil
}

// Dispatch subscribes to mux and feeds every line to HandleEvent until ctx
// is cancelled or the mux closes the subscription.
func Dispatch(ctx context.Context, mux SerialMuxInterface, h Handlers) {
	id, ch := mux.Subscribe()
	defer mux.Unsubscribe(id)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-ch:
			if !ok {
				return
			}
			if err := HandleEvent(h, line); err != nil {
				monitoring.Logf("serialmux: %v", err)
			}
		}
	}
}
