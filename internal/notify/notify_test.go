package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

func sampleEvent() Event {
	minorista := uuid.New()
	agent := uuid.New()
	return Event{
		Type:              domain.GiroEventTypeCompleted,
		GiroID:            uuid.New(),
		Status:            domain.GiroStatusCompletado,
		MinoristaID:       &minorista,
		TransferencistaID: &agent,
		OccurredAt:        time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	p := NewRedisPublisher(client, "giro-events")
	e := sampleEvent()

	payload, err := json.Marshal(e)
	require.NoError(t, err)
	mock.ExpectPublish("giro-events", string(payload)).SetVal(1)

	require.NoError(t, p.Publish(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_BrokerError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	p := NewRedisPublisher(client, "giro-events")
	e := sampleEvent()

	payload, err := json.Marshal(e)
	require.NoError(t, err)
	mock.ExpectPublish("giro-events", string(payload)).SetErr(errors.New("connection refused"))

	err = p.Publish(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDecode_RoundTripsFields(t *testing.T) {
	e := sampleEvent()
	payload, err := json.Marshal(e)
	require.NoError(t, err)

	got, err := Decode(string(payload))
	require.NoError(t, err)
	assert.Equal(t, e.GiroID, got.GiroID)
	assert.Equal(t, *e.MinoristaID, *got.MinoristaID)
	assert.True(t, e.OccurredAt.Equal(got.OccurredAt))

	_, err = Decode("{not json")
	require.Error(t, err)
}

func TestEventFor(t *testing.T) {
	agent := uuid.New()
	g := &domain.Giro{ID: uuid.New(), Status: domain.GiroStatusAsignado, TransferencistaID: &agent, UpdatedAt: time.Now()}

	e := EventFor(g, domain.GiroEventTypeAssigned)
	assert.Equal(t, domain.GiroEventTypeAssigned, e.Type)
	assert.Equal(t, g.ID, e.GiroID)
	assert.Equal(t, &agent, e.TransferencistaID)
	assert.Nil(t, e.MinoristaID)
}
