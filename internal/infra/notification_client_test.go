package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"order-lifecycle/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationClient_NotifyStatusChanged(t *testing.T) {
	var received domain.OrderStatusChangedEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/notify", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewNotificationClient(srv.URL+"/", time.Second)
	evt := domain.OrderStatusChangedEvent{
		OrderID:        "o-1",
		BuyerID:        "buyer-1",
		Status:         domain.StatusProcessing,
		PreviousStatus: domain.StatusPending,
	}

	require.NoError(t, client.NotifyStatusChanged(context.Background(), evt))
	assert.Equal(t, "o-1", received.OrderID)
	assert.Equal(t, "buyer-1", received.BuyerID)
	assert.Equal(t, domain.StatusProcessing, received.Status)
}

func TestNotificationClient_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewNotificationClient(srv.URL, time.Second).NotifyStatusChanged(context.Background(), domain.OrderStatusChangedEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	unreachable := NewNotificationClient("http://127.0.0.1:1", 100*time.Millisecond)
	assert.Error(t, unreachable.NotifyStatusChanged(context.Background(), domain.OrderStatusChangedEvent{}))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, n.NotifyStatusChanged(context.Background(), domain.OrderStatusChangedEvent{OrderID: "o-9", Status: domain.StatusDone}))
	assert.Contains(t, buf.String(), `"order_id":"o-9"`)
	assert.Contains(t, buf.String(), `"status":"DONE"`)
}
