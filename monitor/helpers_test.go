// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package monitor

import "github.com/netflexity/anypoint-mq-exporter/upstream"

func upstreamQueueStats(inQueue int64) upstream.QueueStats {
	return upstream.QueueStats{MessagesInQueue: inQueue}
}

func upstreamQueueStatsReceived(received int64) upstream.QueueStats {
	return upstream.QueueStats{MessagesReceived: received}
}

func upstreamFullQueueStats(inQueue, inFlight, received int64) upstream.QueueStats {
	return upstream.QueueStats{MessagesInQueue: inQueue, MessagesInFlight: inFlight, MessagesReceived: received}
}
