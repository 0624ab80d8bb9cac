// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package upstream

import "encoding/json"

// flexibleNumber decodes a statistics field that the platform may
// return either as a bare scalar or as an array of historical samples,
// the last of which is the current value. Missing, null, or empty
// values decode to zero.
type flexibleNumber float64

func (f *flexibleNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}

	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*f = flexibleNumber(scalar)
		return nil
	}

	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) == 0 {
		*f = 0
		return nil
	}
	*f = flexibleNumber(arr[len(arr)-1])
	return nil
}

// flexibleNumberPtr is like flexibleNumber but distinguishes "absent"
// from "present with value zero", for optional size fields.
type flexibleNumberPtr struct {
	value *float64
}

func (f *flexibleNumberPtr) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.value = nil
		return nil
	}

	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		f.value = &scalar
		return nil
	}

	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) == 0 {
		f.value = nil
		return nil
	}
	last := arr[len(arr)-1]
	f.value = &last
	return nil
}

// wireQueueStats is the decoding shape for the queue statistics
// endpoint's response, before conversion to QueueStats.
type wireQueueStats struct {
	MessagesInQueue    flexibleNumber    `json:"messagesInQueue"`
	MessagesInFlight   flexibleNumber    `json:"messagesInFlight"`
	MessagesSent       flexibleNumber    `json:"messagesSent"`
	MessagesReceived   flexibleNumber    `json:"messagesReceived"`
	MessagesAcked      flexibleNumber    `json:"messagesAcked"`
	QueueSize          flexibleNumberPtr `json:"queueSize"`
	AverageMessageSize flexibleNumberPtr `json:"averageMessageSize"`
}

func (w wireQueueStats) toQueueStats() QueueStats {
	return QueueStats{
		MessagesInQueue:    int64(w.MessagesInQueue),
		MessagesInFlight:   int64(w.MessagesInFlight),
		MessagesSent:       int64(w.MessagesSent),
		MessagesReceived:   int64(w.MessagesReceived),
		MessagesAcked:      int64(w.MessagesAcked),
		QueueSizeBytes:     w.QueueSize.value,
		AverageMessageSize: w.AverageMessageSize.value,
	}
}

// wireExchangeStats is the decoding shape for the exchange statistics endpoint.
type wireExchangeStats struct {
	MessagesPublished flexibleNumber `json:"messagesPublished"`
	MessagesDelivered flexibleNumber `json:"messagesDelivered"`
}

func (w wireExchangeStats) toExchangeStats() ExchangeStats {
	return ExchangeStats{
		MessagesPublished: int64(w.MessagesPublished),
		MessagesDelivered: int64(w.MessagesDelivered),
	}
}
