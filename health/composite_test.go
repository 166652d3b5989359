package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studio-grid/kernel/health"
)

func staticCheck(name string, status health.Status) health.Check {
	return health.CheckFunc{
		CheckName: name,
		Fn: func(ctx context.Context) (health.Status, error) {
			return status, nil
		},
	}
}

func TestCompositeWorstOfN(t *testing.T) {
	tests := []struct {
		name     string
		statuses []health.Status
		want     health.Status
	}{
		{"all healthy", []health.Status{health.Healthy, health.Healthy}, health.Healthy},
		{"degraded wins over healthy", []health.Status{health.Healthy, health.Degraded, health.Healthy}, health.Degraded},
		{"unhealthy wins over all", []health.Status{health.Healthy, health.Unhealthy, health.Degraded}, health.Unhealthy},
		{"empty set is healthy by convention", nil, health.Healthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checks []health.Check
			for i, s := range tt.statuses {
				checks = append(checks, staticCheck(string(rune('a'+i)), s))
			}

			agg := health.NewComposite(checks).Check(context.Background())
			assert.Equal(t, tt.want, agg.Status)
			assert.Len(t, agg.Results, len(tt.statuses),
				"aggregate must carry every individual result")
		})
	}
}

func TestCompositeDowngradesFaultToUnhealthy(t *testing.T) {
	boom := errors.New("connection refused")
	c := health.NewComposite([]health.Check{
		staticCheck("ok", health.Healthy),
		health.CheckFunc{
			CheckName: "db",
			Fn: func(ctx context.Context) (health.Status, error) {
				return health.Healthy, boom
			},
		},
	})

	agg := c.Check(context.Background())
	assert.Equal(t, health.Unhealthy, agg.Status)

	require.Len(t, agg.Results, 2)
	assert.Equal(t, "db", agg.Results[1].Source)
	assert.Equal(t, health.Unhealthy, agg.Results[1].Status)
	assert.Equal(t, boom.Error(), agg.Results[1].Detail)
}

func TestCompositeContainsPanics(t *testing.T) {
	c := health.NewComposite([]health.Check{
		health.CheckFunc{
			CheckName: "flaky",
			Fn: func(ctx context.Context) (health.Status, error) {
				panic("nil map write")
			},
		},
	})

	agg := c.Check(context.Background())
	require.Len(t, agg.Results, 1)
	assert.Equal(t, health.Unhealthy, agg.Status)
	assert.Contains(t, agg.Results[0].Detail, "panicked")
}

func TestCompositePerCheckTimeout(t *testing.T) {
	c := health.NewComposite([]health.Check{
		staticCheck("fast", health.Healthy),
		health.CheckFunc{
			CheckName: "stuck",
			Fn: func(ctx context.Context) (health.Status, error) {
				<-ctx.Done()
				return health.Healthy, ctx.Err()
			},
		},
	}, health.WithCheckTimeout(20*time.Millisecond))

	start := time.Now()
	agg := c.Check(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, health.Unhealthy, agg.Status)
	assert.Less(t, elapsed, 2*time.Second, "a slow check must not stall the aggregate")

	var stuck health.Result
	for _, r := range agg.Results {
		if r.Source == "stuck" {
			stuck = r
		}
	}
	assert.Equal(t, health.Unhealthy, stuck.Status)
	assert.NotEmpty(t, stuck.Detail)
}

func TestCompositeChecksRunConcurrently(t *testing.T) {
	const checks = 4
	const sleep = 50 * time.Millisecond

	var all []health.Check
	for i := 0; i < checks; i++ {
		all = append(all, health.CheckFunc{
			CheckName: string(rune('a' + i)),
			Fn: func(ctx context.Context) (health.Status, error) {
				time.Sleep(sleep)
				return health.Healthy, nil
			},
		})
	}

	start := time.Now()
	agg := health.NewComposite(all).Check(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, health.Healthy, agg.Status)
	assert.Less(t, elapsed, time.Duration(checks)*sleep,
		"checks must not run sequentially")
}

func TestRegisterAddsCheck(t *testing.T) {
	c := health.NewComposite(nil)
	c.Register(staticCheck("late", health.Degraded))

	agg := c.Check(context.Background())
	assert.Equal(t, health.Degraded, agg.Status)
	require.Len(t, agg.Results, 1)
	assert.Equal(t, "late", agg.Results[0].Source)
}
