// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package upstream

import (
	"encoding/json"
	"testing"
)

func TestWireQueueStats_ArrayAndScalarDecoding(t *testing.T) {
	raw := `{
		"messagesInQueue": [10, 12, 15],
		"messagesInFlight": 3,
		"messagesSent": [],
		"messagesReceived": null,
		"messagesAcked": 7,
		"queueSize": [1024, 2048],
		"averageMessageSize": null
	}`

	var wire wireQueueStats
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	stats := wire.toQueueStats()
	if stats.MessagesInQueue != 15 {
		t.Errorf("MessagesInQueue = %v, want 15 (last array element)", stats.MessagesInQueue)
	}
	if stats.MessagesInFlight != 3 {
		t.Errorf("MessagesInFlight = %v, want 3 (scalar)", stats.MessagesInFlight)
	}
	if stats.MessagesSent != 0 {
		t.Errorf("MessagesSent = %v, want 0 (empty array)", stats.MessagesSent)
	}
	if stats.MessagesReceived != 0 {
		t.Errorf("MessagesReceived = %v, want 0 (null)", stats.MessagesReceived)
	}
	if stats.MessagesAcked != 7 {
		t.Errorf("MessagesAcked = %v, want 7", stats.MessagesAcked)
	}
	if stats.QueueSizeBytes == nil || *stats.QueueSizeBytes != 2048 {
		t.Errorf("QueueSizeBytes = %v, want 2048", stats.QueueSizeBytes)
	}
	if stats.AverageMessageSize != nil {
		t.Errorf("AverageMessageSize = %v, want nil", *stats.AverageMessageSize)
	}
}

func TestWireExchangeStats_Decoding(t *testing.T) {
	raw := `{"messagesPublished": [1, 2, 3], "messagesDelivered": 9}`

	var wire wireExchangeStats
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	stats := wire.toExchangeStats()
	if stats.MessagesPublished != 3 {
		t.Errorf("MessagesPublished = %v, want 3", stats.MessagesPublished)
	}
	if stats.MessagesDelivered != 9 {
		t.Errorf("MessagesDelivered = %v, want 9", stats.MessagesDelivered)
	}
}

func TestWireQueueStats_MissingFieldsDefaultToZero(t *testing.T) {
	var wire wireQueueStats
	if err := json.Unmarshal([]byte(`{}`), &wire); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	stats := wire.toQueueStats()
	if stats.MessagesInQueue != 0 || stats.MessagesInFlight != 0 || stats.MessagesSent != 0 {
		t.Errorf("expected all-zero counters for empty object, got %+v", stats)
	}
	if stats.QueueSizeBytes != nil {
		t.Errorf("expected nil QueueSizeBytes for absent field, got %v", *stats.QueueSizeBytes)
	}
}
