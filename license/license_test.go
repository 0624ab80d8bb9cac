// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package license

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netflexity/anypoint-mq-exporter/config"
)

func TestNewGate_EmptyKeyIsFreeTierAndLocksFeatures(t *testing.T) {
	g := NewGate(config.LicenseConfig{})
	assert.Equal(t, TierFree, g.Tier())
	assert.False(t, g.MonitorsEnabled(), "free tier should lock monitors")
	assert.False(t, g.SyntheticTestEnabled(), "free tier should lock the synthetic test endpoint")
}

func TestNewGate_NonEmptyKeyIsProTierAndUnlocksFeatures(t *testing.T) {
	g := NewGate(config.LicenseConfig{Key: "any-nonempty-value"})
	assert.Equal(t, TierPro, g.Tier())
	assert.True(t, g.MonitorsEnabled(), "pro tier should unlock monitors")
	assert.True(t, g.SyntheticTestEnabled(), "pro tier should unlock the synthetic test endpoint")
}

func TestGate_FeaturesMirrorsPredicates(t *testing.T) {
	g := NewGate(config.LicenseConfig{Key: "k"})
	features := g.Features()
	assert.True(t, features["monitors"])
	assert.True(t, features["syntheticTest"])
}
