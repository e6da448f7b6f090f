package engine_test

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/netfab"
	"code.hybscloud.com/netfab/engine"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newEngine(t *testing.T, nWorkers int) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Config{NumWorkers: nWorkers, SchedulerName: "single-cpu", QueueCapacity: 16}, testLogger())
	require.NoError(t, err)
	return e
}

// TestSingleHopDrop is spec.md §8 scenario 1: a callback that returns
// Dropped should count as a drop with the packet's byte length recorded.
func TestSingleHopDrop(t *testing.T) {
	e := newEngine(t, 1)
	e.Start()
	defer e.Stop()

	fb := netfab.AllocFB()
	require.NoError(t, netfab.InitFB(fb, "A", nil))
	fb.NetRx = func(fb *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction) netfab.Verdict {
		return netfab.Dropped
	}
	require.NoError(t, e.Registry.Publish(fb))

	pkt := netfab.NewPacket(make([]byte, 64), netfab.Ingress, fb.IDP())
	require.NoError(t, e.Dispatch(pkt, netfab.Ingress))

	require.Eventually(t, func() bool {
		return e.Stats()[0].Packets == 1
	}, time.Second, time.Millisecond)

	snap := e.Stats()[0]
	assert.Equal(t, uint64(1), snap.Drops)
	assert.Equal(t, uint64(64), snap.Bytes)
	assert.True(t, snap.Invariant())
}

// TestTwoHopPassThrough is spec.md §8 scenario 2.
func TestTwoHopPassThrough(t *testing.T) {
	e := newEngine(t, 1)
	e.Start()
	defer e.Stop()

	var aCalls, bCalls int

	b := netfab.AllocFB()
	require.NoError(t, netfab.InitFB(b, "B", nil))
	b.NetRx = func(fb *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction) netfab.Verdict {
		bCalls++
		pkt.PushNextIDP(netfab.IDPExit)
		return netfab.Success
	}
	require.NoError(t, e.Registry.Publish(b))

	a := netfab.AllocFB()
	require.NoError(t, netfab.InitFB(a, "A", nil))
	a.NetRx = func(fb *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction) netfab.Verdict {
		aCalls++
		pkt.PushNextIDP(b.IDP())
		return netfab.Success
	}
	require.NoError(t, e.Registry.Publish(a))

	pkt := netfab.NewPacket(make([]byte, 32), netfab.Ingress, a.IDP())
	require.NoError(t, e.Dispatch(pkt, netfab.Ingress))

	require.Eventually(t, func() bool {
		return e.Stats()[0].Packets == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, 1, aCalls)
	assert.Equal(t, 1, bCalls)
	assert.Equal(t, uint64(0), e.Stats()[0].Drops)
}

// TestRemoveWhileInUse is spec.md §8 scenario 6.
func TestRemoveWhileInUse(t *testing.T) {
	e := newEngine(t, 1)

	a := netfab.AllocFB()
	require.NoError(t, netfab.InitFB(a, "A", nil))
	require.NoError(t, e.Registry.Publish(a))

	// Simulate an outstanding bind reference plus the RM dispatcher's own
	// resolve-by-name lookup, so refcount is 3 when Unpublish runs
	// (registry's implicit 1 + the bind + the dispatcher's own lookup).
	held, err := e.Registry.LookupByName("A")
	require.NoError(t, err)
	defer held.Put()

	resolved, err := e.Registry.LookupByName("A")
	require.NoError(t, err)
	defer resolved.Put()

	err = e.Registry.Unpublish(a)
	require.ErrorIs(t, err, netfab.ErrBusy)

	_, ok := e.Registry.LookupByIDP(a.IDP())
	assert.True(t, ok)
}
