package netfab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/netfab"
)

func passThroughFB(t *testing.T, name string) *netfab.FB {
	t.Helper()
	fb := netfab.AllocFB()
	require.NoError(t, netfab.InitFB(fb, name, []*netfab.PortState{netfab.NewPortState()}))
	fb.NetRx = func(fb *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction) netfab.Verdict {
		return netfab.Success
	}
	return fb
}

func TestRegistry_PublishLookup(t *testing.T) {
	reg := netfab.NewRegistry(2)
	fb := passThroughFB(t, "A")
	require.NoError(t, reg.Publish(fb))

	got, ok := reg.LookupByIDP(fb.IDP())
	require.True(t, ok)
	assert.Same(t, fb, got)

	byName, err := reg.LookupByName("A")
	require.NoError(t, err)
	defer byName.Put()
	assert.Same(t, fb, byName)
}

func TestRegistry_PublishDuplicateNameFails(t *testing.T) {
	reg := netfab.NewRegistry(2)
	require.NoError(t, reg.Publish(passThroughFB(t, "A")))

	err := reg.Publish(passThroughFB(t, "A"))
	assert.ErrorIs(t, err, netfab.ErrInUse)
}

func TestRegistry_UnpublishThenNotFound(t *testing.T) {
	reg := netfab.NewRegistry(2)
	fb := passThroughFB(t, "A")
	require.NoError(t, reg.Publish(fb))
	require.NoError(t, reg.Unpublish(fb))

	_, ok := reg.LookupByIDP(fb.IDP())
	assert.False(t, ok)
	_, err := reg.LookupByName("A")
	assert.ErrorIs(t, err, netfab.ErrNotFound)
}

// TestBindIdempotence is spec.md §8's "BIND then UNBIND with matching ids
// restores port to sentinel."
func TestBindIdempotence(t *testing.T) {
	reg := netfab.NewRegistry(2)
	a := passThroughFB(t, "A")
	b := passThroughFB(t, "B")
	require.NoError(t, reg.Publish(a))
	require.NoError(t, reg.Publish(b))

	require.NoError(t, reg.Bind("A", "B"))

	ports := a.Private().([]*netfab.PortState)[0]
	next, _ := ports.Read(netfab.Ingress)
	assert.Equal(t, b.IDP(), next)

	require.NoError(t, reg.Unbind("A", "B"))
	next, _ = ports.Read(netfab.Ingress)
	assert.Equal(t, netfab.IDPExit, next)
}

// TestUnbind_MismatchedIDPFails is spec.md §4.3: UNBIND must fail when the
// current port does not exactly match the idp being removed.
func TestUnbind_MismatchedIDPFails(t *testing.T) {
	reg := netfab.NewRegistry(2)
	a := passThroughFB(t, "A")
	b := passThroughFB(t, "B")
	c := passThroughFB(t, "C")
	require.NoError(t, reg.Publish(a))
	require.NoError(t, reg.Publish(b))
	require.NoError(t, reg.Publish(c))

	require.NoError(t, reg.Bind("A", "B"))

	err := reg.Unbind("A", "C")
	assert.Error(t, err)

	ports := a.Private().([]*netfab.PortState)[0]
	next, _ := ports.Read(netfab.Ingress)
	assert.Equal(t, b.IDP(), next, "mismatched UNBIND must not clear an unrelated bind")
}

// TestReplace is spec.md §8 scenario 5 (simplified to a single reader):
// Replace swaps name1's slot for name2's FB without a lookup gap.
func TestReplace(t *testing.T) {
	reg := netfab.NewRegistry(2)
	v1 := passThroughFB(t, "V1")
	v2 := passThroughFB(t, "V2")
	require.NoError(t, reg.Publish(v1))
	require.NoError(t, reg.Publish(v2))

	idp1 := v1.IDP()
	require.NoError(t, reg.Replace("V1", "V2", false))

	got, ok := reg.LookupByIDP(idp1)
	require.True(t, ok)
	assert.Same(t, v2, got)

	_, err := reg.LookupByName("V2")
	assert.ErrorIs(t, err, netfab.ErrNotFound)
}

// TestRegistry_SubscribeDelivery is spec.md §4.2: a BIND against the
// publisher FB must deliver the event to everything that subscribed to
// it, via FB.Deliver iterating subscribers' EventRx.
func TestRegistry_SubscribeDelivery(t *testing.T) {
	reg := netfab.NewRegistry(2)
	a := passThroughFB(t, "A")
	b := passThroughFB(t, "B")
	c := passThroughFB(t, "C")

	var received netfab.Event
	c.EventRx = func(fb *netfab.FB, ev netfab.Event) error {
		received = ev
		return nil
	}

	require.NoError(t, reg.Publish(a))
	require.NoError(t, reg.Publish(b))
	require.NoError(t, reg.Publish(c))
	require.NoError(t, reg.Subscribe("A", "C"))

	require.NoError(t, reg.Bind("A", "B"))

	assert.Equal(t, netfab.BindIDP, received.Kind)
	assert.Equal(t, netfab.Ingress, received.Dir)
	assert.Equal(t, b.IDP(), received.IDP)
}

// TestRegistry_UnsubscribeStopsDelivery confirms Unsubscribe removes the
// subscriber from future deliveries.
func TestRegistry_UnsubscribeStopsDelivery(t *testing.T) {
	reg := netfab.NewRegistry(2)
	a := passThroughFB(t, "A")
	b := passThroughFB(t, "B")
	c := passThroughFB(t, "C")

	calls := 0
	c.EventRx = func(fb *netfab.FB, ev netfab.Event) error {
		calls++
		return nil
	}

	require.NoError(t, reg.Publish(a))
	require.NoError(t, reg.Publish(b))
	require.NoError(t, reg.Publish(c))
	require.NoError(t, reg.Subscribe("A", "C"))
	require.NoError(t, reg.Unsubscribe("A", "C"))

	require.NoError(t, reg.Bind("A", "B"))
	assert.Equal(t, 0, calls)
}
