package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/apidoc/internal/diag"
)

func TestRunEventJSONShape(t *testing.T) {
	event := RunEvent{
		RunID:    "run-42",
		Project:  "Demo",
		Revision: "abc1234",
		Outcome:  "warning",
		Formats:  []string{"markdown"},
		Records:  10,
		Symbols:  9,
		Diagnostics: map[diag.Kind]int{
			diag.OrphanedSymbol: 1,
		},
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "run-42", decoded["run_id"])
	require.Equal(t, "warning", decoded["outcome"])
	require.Equal(t, float64(1), decoded["diagnostics"].(map[string]any)["orphaned_symbol"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.PublishRunCompleted(context.Background(), RunEvent{RunID: "run-1"}))
	p.Close()
}
