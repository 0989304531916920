package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	OrderID int64 `json:"order_id"`
}

func TestUnwrapPayload(t *testing.T) {
	got, err := UnwrapPayload[samplePayload](json.RawMessage(`{"order_id":42}`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.OrderID)

	_, err = UnwrapPayload[samplePayload](json.RawMessage(`{"order_id":"x"}`))
	assert.ErrorContains(t, err, "decode payload")
}

func TestMustMarshal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMarshal(make(chan int)) })
	assert.JSONEq(t, `{"order_id":7}`, string(MustMarshal(samplePayload{OrderID: 7})))
}

func TestProducer_PublishAfterCloseIsDropped(t *testing.T) {
	p := NewProducer([]string{"localhost:9"}, "t", 1)
	p.Close()
	p.Close()
	assert.NotPanics(t, func() { p.Publish([]byte("k"), []byte("v")) })
}
