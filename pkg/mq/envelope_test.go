package mq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope("order.cancelled", map[string]any{"order_id": 7})
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "order.cancelled", env.Event)
	assert.Equal(t, 1, env.Version)
	_, err = time.Parse(time.RFC3339, env.OccurredAt)
	assert.NoError(t, err)

	var data struct {
		OrderID int `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 7, data.OrderID)
}

func TestNewEnvelope_Unmarshalable(t *testing.T) {
	_, err := NewEnvelope("x", make(chan int))
	assert.Error(t, err)
}
