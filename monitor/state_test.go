// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package monitor

import (
	"math"
	"testing"
	"time"
)

func TestStateAddValue_ComputesMeanAndPopulationStdDev(t *testing.T) {
	s := &State{}
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	for _, v := range values {
		s.AddValue(v)
	}

	mean, stdDev := s.Baseline()
	if math.Abs(mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", mean)
	}
	if math.Abs(stdDev-2) > 1e-9 {
		t.Errorf("stdDev = %v, want 2", stdDev)
	}
}

func TestStateAddValue_EvictsOldestBeyondCapacity(t *testing.T) {
	s := &State{}
	for i := 0; i < bufferCapacity+10; i++ {
		s.AddValue(float64(i))
	}
	if len(s.buffer) != bufferCapacity {
		t.Fatalf("buffer length = %d, want %d", len(s.buffer), bufferCapacity)
	}
	if s.buffer[0] != 10 {
		t.Errorf("buffer[0] = %v, want 10 (oldest 10 entries evicted)", s.buffer[0])
	}
}

func TestStateRecentAverage_ThroughputDropScenario(t *testing.T) {
	s := &State{}
	for _, v := range []float64{100, 100, 100, 100, 100, 40, 40} {
		s.AddValue(v)
	}

	recentAvg, ok := s.RecentAverage(2)
	if !ok {
		t.Fatal("RecentAverage() ok = false, want true")
	}
	if math.Abs(recentAvg-40) > 1e-9 {
		t.Errorf("recentAvg = %v, want 40", recentAvg)
	}

	baselineAvg, _ := s.Baseline()
	wantBaseline := 580.0 / 7.0
	if math.Abs(baselineAvg-wantBaseline) > 1e-6 {
		t.Errorf("baselineAvg = %v, want %v", baselineAvg, wantBaseline)
	}

	pctChange := ((recentAvg - baselineAvg) / baselineAvg) * 100
	if pctChange > -50 || pctChange < -53 {
		t.Errorf("pctChange = %v, want approximately -51.7", pctChange)
	}
}

func TestStateRecentAverage_RequiresAtLeastTwoPoints(t *testing.T) {
	s := &State{}
	s.AddValue(10)
	if _, ok := s.RecentAverage(2); ok {
		t.Error("RecentAverage() ok = true with only one point, want false")
	}
}

func TestStatePassesCooldown_GatingRequiresMarkNotified(t *testing.T) {
	s := &State{}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cooldown := 15 * time.Minute

	if !s.PassesCooldown(cooldown, base) {
		t.Error("first check should pass (no prior last-notified)")
	}
	if !s.PassesCooldown(cooldown, base.Add(5*time.Minute)) {
		t.Error("a failed dispatch must not consume the cooldown window")
	}

	s.MarkNotified(base)
	if s.PassesCooldown(cooldown, base.Add(5*time.Minute)) {
		t.Error("notification 5 minutes after a successful dispatch should be suppressed by cooldown")
	}
	if !s.PassesCooldown(cooldown, base.Add(20*time.Minute)) {
		t.Error("notification 20 minutes after a successful dispatch should pass (cooldown elapsed)")
	}
}

func TestStoreGetOrCreate_ReturnsSameStateForSameKey(t *testing.T) {
	store := NewStore()
	key := Key{Monitor: "m1", Destination: "q1", Environment: "e1", Region: "r1"}

	a := store.GetOrCreate(key)
	b := store.GetOrCreate(key)
	if a != b {
		t.Error("GetOrCreate() returned different states for the same key")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}
