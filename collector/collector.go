// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package collector runs the per-cycle fan-out that turns a discovery
// snapshot into published Prometheus gauges.
//
// Each cycle walks every (environment, region) pair in the current
// snapshot, lists destinations, and fetches stats for each one with
// bounded concurrency. A single destination's failure is counted and
// skipped; it never aborts the cycle.
package collector

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/discovery"
	"github.com/netflexity/anypoint-mq-exporter/pkg/logger"
	"github.com/netflexity/anypoint-mq-exporter/pkg/metrics"
	"github.com/netflexity/anypoint-mq-exporter/upstream"
)

// staleAfterCycles bounds how many scrape intervals a destination's
// cached stats survive after it stops appearing upstream.
const staleAfterCycles = 3

// Fetcher is the subset of upstream.Client that collection depends on.
type Fetcher interface {
	ListDestinations(ctx context.Context, tenantID, envID, region string) ([]upstream.Destination, error)
	GetQueueStats(ctx context.Context, tenantID, envID, region, queueID string, periodSeconds int) (upstream.QueueStats, error)
	GetExchangeStats(ctx context.Context, tenantID, envID, region, exchangeID string, periodSeconds int) (upstream.ExchangeStats, error)
}

// SnapshotSource is the subset of discovery.Engine that collection depends on.
type SnapshotSource interface {
	Current() discovery.Snapshot
	Regions() []string
}

type queueEntry struct {
	stats   upstream.QueueStats
	updated time.Time
	env     string
	region  string
	queue   string
	isDLQ   bool
}

type exchangeEntry struct {
	stats    upstream.ExchangeStats
	updated  time.Time
	env      string
	region   string
	exchange string
}

// Scheduler runs collection cycles and publishes gauges. It also holds
// the current-stats handoff the monitor evaluator reads from.
type Scheduler struct {
	client        Fetcher
	snapshots     SnapshotSource
	periodSeconds int
	concurrency   int
	interval      time.Duration

	mu              sync.RWMutex
	queueStats      map[string]*queueEntry
	exchangeStats   map[string]*exchangeEntry
}

// New builds a Scheduler from configuration.
func New(client Fetcher, snapshots SnapshotSource, cfg *config.Config) *Scheduler {
	return &Scheduler{
		client:        client,
		snapshots:     snapshots,
		periodSeconds: cfg.Scrape.PeriodSeconds,
		concurrency:   16,
		interval:      time.Duration(cfg.Scrape.IntervalSeconds) * time.Second,
		queueStats:    make(map[string]*queueEntry),
		exchangeStats: make(map[string]*exchangeEntry),
	}
}

func statsKey(parts ...string) string {
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += "\x00"
		}
		key += p
	}
	return key
}

// RunCycle executes one full collection pass across every
// (environment, region) pair in the current snapshot.
func (s *Scheduler) RunCycle(ctx context.Context) {
	start := time.Now()
	s.evictStale()

	snap := s.snapshots.Current()
	regions := s.snapshots.Regions()

	var attempted, succeeded int32
	var wg sync.WaitGroup
	for _, env := range snap.Environments {
		for _, region := range regions {
			attempted++
			wg.Add(1)
			go func(env upstream.EnvironmentRef, region string) {
				defer wg.Done()
				if s.collectEnvironmentRegion(ctx, env, region) {
					atomic.AddInt32(&succeeded, 1)
				}
			}(env, region)
		}
	}
	wg.Wait()

	metrics.ScrapeDuration.Observe(time.Since(start).Seconds())
	if attempted == 0 || atomic.LoadInt32(&succeeded) > 0 {
		metrics.LastScrapeTimestamp.Set(float64(time.Now().Unix()))
	}
}

// collectEnvironmentRegion lists and fetches every destination in one
// (environment, region) pair, reporting whether the listing itself
// succeeded (the cycle's fully-failed test is based on this, not on
// individual destination fetch outcomes).
func (s *Scheduler) collectEnvironmentRegion(ctx context.Context, env upstream.EnvironmentRef, region string) bool {
	destinations, err := s.client.ListDestinations(ctx, env.Tenant.ID, env.ID, region)
	if err != nil {
		logger.Warn().Err(err).Str("environment", env.Name).Str("region", region).Msg("Failed to list destinations")
		metrics.ScrapeErrorsTotal.WithLabelValues("environment_failed").Inc()
		return false
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, d := range destinations {
		wg.Add(1)
		sem <- struct{}{}
		go func(d upstream.Destination) {
			defer wg.Done()
			defer func() { <-sem }()
			switch d.Kind {
			case upstream.KindQueue:
				s.collectQueue(ctx, env, region, d)
			case upstream.KindExchange:
				s.collectExchange(ctx, env, region, d)
			}
		}(d)
	}
	wg.Wait()
	return true
}

func (s *Scheduler) collectQueue(ctx context.Context, env upstream.EnvironmentRef, region string, d upstream.Destination) {
	stats, err := s.client.GetQueueStats(ctx, env.Tenant.ID, env.ID, region, d.ID, s.periodSeconds)
	if err != nil {
		logger.Warn().Err(err).Str("queue", d.Name).Str("environment", env.Name).Msg("Failed to fetch queue stats")
		metrics.ScrapeErrorsTotal.WithLabelValues("queue_stats_failed").Inc()
		return
	}

	name := d.SanitizedName()
	labels := []string{name, env.Name, region}
	metrics.QueueMessagesInQueue.WithLabelValues(labels...).Set(float64(stats.MessagesInQueue))
	metrics.QueueMessagesInFlight.WithLabelValues(labels...).Set(float64(stats.MessagesInFlight))
	metrics.QueueMessagesSent.WithLabelValues(labels...).Set(float64(stats.MessagesSent))
	metrics.QueueMessagesReceived.WithLabelValues(labels...).Set(float64(stats.MessagesReceived))
	metrics.QueueMessagesAcked.WithLabelValues(labels...).Set(float64(stats.MessagesAcked))

	isFIFO, maxDeliveries, ttl := "false", "0", "0"
	if d.Queue != nil {
		isFIFO = strconv.FormatBool(d.Queue.FIFO)
		maxDeliveries = strconv.Itoa(d.Queue.MaxDeliveries)
		ttl = strconv.FormatInt(d.Queue.DefaultTTLMillis, 10)
	}
	metrics.QueueMetadata.WithLabelValues(name, env.Name, region, isFIFO, strconv.FormatBool(d.IsDLQ()), maxDeliveries, ttl).Set(1)

	key := statsKey(name, env.Name, region)
	s.mu.Lock()
	s.queueStats[key] = &queueEntry{stats: stats, updated: time.Now(), env: env.Name, region: region, queue: name, isDLQ: d.IsDLQ()}
	s.mu.Unlock()
}

func (s *Scheduler) collectExchange(ctx context.Context, env upstream.EnvironmentRef, region string, d upstream.Destination) {
	stats, err := s.client.GetExchangeStats(ctx, env.Tenant.ID, env.ID, region, d.ID, s.periodSeconds)
	if err != nil {
		logger.Warn().Err(err).Str("exchange", d.Name).Str("environment", env.Name).Msg("Failed to fetch exchange stats")
		metrics.ScrapeErrorsTotal.WithLabelValues("exchange_stats_failed").Inc()
		return
	}

	name := d.SanitizedName()
	labels := []string{name, env.Name, region}
	metrics.ExchangeMessagesPublished.WithLabelValues(labels...).Set(float64(stats.MessagesPublished))
	metrics.ExchangeMessagesDelivered.WithLabelValues(labels...).Set(float64(stats.MessagesDelivered))

	key := statsKey(name, env.Name, region)
	s.mu.Lock()
	s.exchangeStats[key] = &exchangeEntry{stats: stats, updated: time.Now(), env: env.Name, region: region, exchange: name}
	s.mu.Unlock()
}

// evictStale drops cached entries that have not been refreshed for
// more than staleAfterCycles scrape intervals, tolerating the brief
// staleness that follows a destination disappearing upstream.
func (s *Scheduler) evictStale() {
	if s.interval <= 0 {
		return
	}
	cutoff := time.Now().Add(-staleAfterCycles * s.interval)

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.queueStats {
		if v.updated.Before(cutoff) {
			delete(s.queueStats, k)
		}
	}
	for k, v := range s.exchangeStats {
		if v.updated.Before(cutoff) {
			delete(s.exchangeStats, k)
		}
	}
}

// QueueSample pairs a destination's identity with its latest observed stats.
type QueueSample struct {
	Queue       string
	Environment string
	Region      string
	Stats       upstream.QueueStats
	IsDLQ       bool
}

// CurrentQueueStats returns a snapshot of every cached queue sample,
// the handoff the monitor evaluator reads from.
func (s *Scheduler) CurrentQueueStats() []QueueSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]QueueSample, 0, len(s.queueStats))
	for _, v := range s.queueStats {
		out = append(out, QueueSample{Queue: v.queue, Environment: v.env, Region: v.region, Stats: v.stats, IsDLQ: v.isDLQ})
	}
	return out
}
