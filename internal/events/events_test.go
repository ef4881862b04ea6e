package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestBuildEvent_JSON(t *testing.T) {
	ev := BuildEvent{
		BuildID:    "b1",
		Outcome:    "partial",
		Pages:      4,
		Failed:     1,
		DurationMS: 12.5,
		Timestamp:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"build_id": "b1",
		"outcome": "partial",
		"pages": 4,
		"failed": 1,
		"duration_ms": 12.5,
		"timestamp": "2024-05-01T12:00:00Z"
	}`, string(data))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	require.NoError(t, p.PublishBuild(t.Context(), &BuildEvent{BuildID: "x"}))
	require.NoError(t, p.Close())
}

func TestNewNATSPublisher_RequiresSubject(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:4222", "", false)
	require.ErrorContains(t, err, "subject")
}

func TestNewNATSPublisher_ConnectFailure(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "mdsite.builds", false,
		nats.Timeout(200*time.Millisecond), nats.MaxReconnects(0))
	require.ErrorContains(t, err, "failed to connect to NATS")
}
