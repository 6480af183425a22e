package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/turnforge/internal/storage"
)

type recordingTelemetryStore struct {
	events []storage.TelemetryEvent
}

func (s *recordingTelemetryStore) AppendTelemetryEvent(_ context.Context, evt storage.TelemetryEvent) error {
	s.events = append(s.events, evt)
	return nil
}

func TestEmitRecordsEvent(t *testing.T) {
	store := &recordingTelemetryStore{}
	emitter := NewEmitter(store)
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	emitter.clock = func() time.Time { return fixed }

	err := emitter.Emit(context.Background(), SeverityInfo, "turn.advanced", map[string]string{"turn_id": "t1"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	evt := store.events[0]
	if evt.Name != "turn.advanced" || evt.Severity != "INFO" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if !evt.Timestamp.Equal(fixed) {
		t.Fatalf("expected fixed timestamp, got %v", evt.Timestamp)
	}
}

func TestEmitNilSafe(t *testing.T) {
	var emitter *Emitter
	if err := emitter.Emit(context.Background(), SeverityWarn, "noop", nil); err != nil {
		t.Fatalf("nil emitter emit: %v", err)
	}
	if err := NewEmitter(nil).Emit(context.Background(), SeverityWarn, "noop", nil); err != nil {
		t.Fatalf("nil store emit: %v", err)
	}
}
