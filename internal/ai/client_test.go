package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFence(t *testing.T) {
	plain := `{"event_name":"call mom"}`
	assert.Equal(t, plain, stripFence(plain))
	assert.Equal(t, plain, stripFence("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, stripFence("```\n"+plain+"\n```"))
	assert.Equal(t, plain, stripFence("  "+plain+"  "))
}

func TestIntentDecoding(t *testing.T) {
	raw := `{
		"event_name": "take medication",
		"event_description": "morning pills",
		"date": "2026-09-01",
		"time": "08:00:00",
		"type": "recurring",
		"rrule": "FREQ=DAILY",
		"tags": ["health"],
		"status": "success"
	}`

	var intent Intent
	require.NoError(t, json.Unmarshal([]byte(raw), &intent))
	assert.Equal(t, "take medication", intent.EventName)
	assert.Equal(t, "recurring", intent.Type)
	assert.Equal(t, []string{"health"}, intent.Tags)
	assert.False(t, intent.NeedsClarification())

	var vague Intent
	require.NoError(t, json.Unmarshal([]byte(`{"status":"clarification_needed","clarification":"When?"}`), &vague))
	assert.True(t, vague.NeedsClarification())
}
