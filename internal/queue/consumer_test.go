package queue

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWritesAuditRecord(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsumer("amqp://unused", zerolog.Nop(), zerolog.New(&buf))

	ev := NewEvent(ScreeningAccepted, 7, "user1")
	ev.ScreeningID = 42
	ev.From, ev.To = "APPROVED", "SCHEDULED"
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.handle(body))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "screening.accepted", rec["type"])
	assert.Equal(t, ev.ID, rec["event_id"])
	assert.EqualValues(t, 7, rec["program_id"])
	assert.EqualValues(t, 42, rec["screening_id"])
	assert.Equal(t, "SCHEDULED", rec["to"])
	assert.Equal(t, "user1", rec["actor"])
}

func TestHandleRejectsGarbage(t *testing.T) {
	c := NewConsumer("amqp://unused", zerolog.Nop(), zerolog.Nop())
	assert.Error(t, c.handle([]byte("not json")))
	assert.Error(t, c.handle([]byte(`{"program_id":1}`)))
}

func TestNewEventStampsIdentity(t *testing.T) {
	a := NewEvent(ProgramCreated, 1, "prog1")
	b := NewEvent(ProgramCreated, 1, "prog1")
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
}
