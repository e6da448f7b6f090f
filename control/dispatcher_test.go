package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/netfab"
	"code.hybscloud.com/netfab/control"
)

func passThroughFactory(typ string) *netfab.Factory {
	return &netfab.Factory{
		Type: typ,
		New: func(name string) (*netfab.FB, error) {
			fb := netfab.AllocFB()
			if err := netfab.InitFB(fb, name, nil); err != nil {
				return nil, err
			}
			fb.NetRx = func(fb *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction) netfab.Verdict {
				return netfab.Success
			}
			return fb, nil
		},
	}
}

func TestDispatch_AddRm(t *testing.T) {
	reg := netfab.NewRegistry(1)
	d := control.NewDispatcher(reg)
	d.RegisterFactory(passThroughFactory("pass"))

	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Add, Name1: "a", Type: "pass"}))

	fb, err := reg.LookupByName("a")
	require.NoError(t, err)
	fb.Put()

	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Rm, Name1: "a"}))
	_, err = reg.LookupByName("a")
	assert.ErrorIs(t, err, netfab.ErrNotFound)
}

func TestDispatch_RmBusy(t *testing.T) {
	reg := netfab.NewRegistry(1)
	d := control.NewDispatcher(reg)
	d.RegisterFactory(passThroughFactory("pass"))

	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Add, Name1: "a", Type: "pass"}))

	held, err := reg.LookupByName("a")
	require.NoError(t, err)
	defer held.Put()

	err = d.Dispatch(control.Message{Cmd: control.Rm, Name1: "a"})
	assert.ErrorIs(t, err, netfab.ErrBusy)
}

func TestDispatch_UnknownType(t *testing.T) {
	reg := netfab.NewRegistry(1)
	d := control.NewDispatcher(reg)

	err := d.Dispatch(control.Message{Cmd: control.Add, Name1: "a", Type: "nope"})
	assert.ErrorIs(t, err, netfab.ErrInvalid)
}

func TestDispatch_SubscribeUnsubscribe(t *testing.T) {
	reg := netfab.NewRegistry(1)
	d := control.NewDispatcher(reg)
	d.RegisterFactory(passThroughFactory("pass"))

	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Add, Name1: "a", Type: "pass"}))
	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Add, Name1: "b", Type: "pass"}))

	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Subscribe, Name1: "a", Name2: "b"}))
	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Unsubscribe, Name1: "a", Name2: "b"}))
}

// TestDispatch_SetDeliversToSubscribers is spec.md §4.2/§4.3: a SET on a
// published FB must both invoke the FB's own EventRx and deliver the
// event to whatever subscribed to it.
func TestDispatch_SetDeliversToSubscribers(t *testing.T) {
	reg := netfab.NewRegistry(1)
	d := control.NewDispatcher(reg)
	d.RegisterFactory(passThroughFactory("pass"))

	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Add, Name1: "a", Type: "pass"}))
	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Add, Name1: "b", Type: "pass"}))
	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Subscribe, Name1: "a", Name2: "b"}))

	b, err := reg.LookupByName("b")
	require.NoError(t, err)
	defer b.Put()

	var received netfab.Event
	b.EventRx = func(fb *netfab.FB, ev netfab.Event) error {
		received = ev
		return nil
	}

	require.NoError(t, d.Dispatch(control.Message{Cmd: control.Set, Name1: "a", Option: "mtu=1500"}))

	assert.Equal(t, netfab.SetOpt, received.Kind)
	assert.Equal(t, "mtu", received.Key)
	assert.Equal(t, "1500", received.Val)
}
