package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthwatch/internal/models"
)

func TestSimulatedSamplerIsDeterministicPerSeed(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	providers := []string{"aws", "azure", "gcp"}

	a := NewSimulatedSampler(providers, 7)
	b := NewSimulatedSampler(providers, 7)
	a.now = func() time.Time { return fixed }
	b.now = func() time.Time { return fixed }

	for i := 0; i < 10; i++ {
		sa, err := a.Sample(context.Background())
		require.NoError(t, err)
		sb, err := b.Sample(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sa, sb)
	}
}

func TestSimulatedSamplerRanges(t *testing.T) {
	s := NewSimulatedSampler([]string{"aws"}, 1)

	for i := 0; i < 200; i++ {
		snap, err := s.Sample(context.Background())
		require.NoError(t, err)

		for _, m := range models.ThresholdMetrics {
			v, ok := snap.Value(m)
			require.True(t, ok)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 100.0)
		}
		require.NotNil(t, snap.Traffic)
		assert.Less(t, *snap.Traffic, 1000.0)

		p := snap.Providers["aws"]
		assert.GreaterOrEqual(t, p.Instances, 5)
		assert.LessOrEqual(t, p.Instances, 14)
		assert.Contains(t, []models.Health{models.HealthHealthy, models.HealthDegraded}, p.Health)
	}
}

func TestSimulatedProvidersSometimesDegrade(t *testing.T) {
	prober := NewSimulatedProviders(rand.New(rand.NewPCG(3, 4)))

	degraded := 0
	for i := 0; i < 1000; i++ {
		status, err := prober.Probe(context.Background(), "aws")
		require.NoError(t, err)
		if status.Health == models.HealthDegraded {
			degraded++
		}
	}
	assert.Greater(t, degraded, 50)
	assert.Less(t, degraded, 150)
}

type failingProber struct{}

func (failingProber) Probe(ctx context.Context, provider string) (models.ProviderStatus, error) {
	if provider == "azure" {
		return models.ProviderStatus{}, errors.New("api timeout")
	}
	return models.ProviderStatus{Instances: 3, Health: models.HealthHealthy}, nil
}

func TestProbeProvidersRecordsFailuresAsDegraded(t *testing.T) {
	statuses := ProbeProviders(context.Background(), failingProber{}, []string{"aws", "azure"})

	require.Len(t, statuses, 2)
	assert.Equal(t, models.HealthHealthy, statuses["aws"].Health)
	assert.Equal(t, models.HealthDegraded, statuses["azure"].Health)
	assert.Equal(t, "api timeout", statuses["azure"].Error)
}

func TestSimulatedProvidersHonourCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	statuses := ProbeProviders(ctx, NewSimulatedProviders(rand.New(rand.NewPCG(1, 2))), []string{"gcp"})
	assert.Equal(t, models.HealthDegraded, statuses["gcp"].Health)
}
