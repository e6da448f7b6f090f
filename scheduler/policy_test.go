package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/netfab/scheduler"
)

func TestNew_UnknownPolicy(t *testing.T) {
	_, err := scheduler.New("does-not-exist", 4)
	require.Error(t, err)
}

func TestNew_InvalidWorkerCount(t *testing.T) {
	_, err := scheduler.New("single-cpu", 0)
	require.Error(t, err)
}

func TestSingleCPU_AlwaysSameWorker(t *testing.T) {
	p, err := scheduler.New("single-cpu", 4)
	require.NoError(t, err)

	first := p.Schedule(0, 64)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, p.Schedule(i%2, 64))
	}
}

func TestRandomCPU_StaysInRange(t *testing.T) {
	p, err := scheduler.New("random-cpu", 4)
	require.NoError(t, err)

	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		w := p.Schedule(0, 64)
		require.GreaterOrEqual(t, w, 0)
		require.Less(t, w, 4)
		seen[w] = true
	}
	// With 1000 draws over 4 workers, expect to have seen more than one.
	assert.Greater(t, len(seen), 1)
}

func TestNames_IncludesBuiltins(t *testing.T) {
	names := scheduler.Names()
	assert.Contains(t, names, "single-cpu")
	assert.Contains(t, names, "random-cpu")
}
