package observability_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio-grid/kernel/observability"
)

func TestPromObserverCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := observability.NewPromObserver(reg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		obs.OnEvent(context.Background(), observability.Event{
			Type:  "hook.complete",
			Level: observability.LevelInfo,
		})
	}
	obs.OnEvent(context.Background(), observability.Event{
		Type:  "lifecycle.faulted",
		Level: observability.LevelError,
	})

	count, err := testutil.GatherAndCount(reg, "gridkernel_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per type/severity pair")
}

func TestPromObserverDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewPromObserver(reg)
	require.NoError(t, err)

	_, err = observability.NewPromObserver(reg)
	assert.Error(t, err)
}
