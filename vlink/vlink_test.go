package vlink_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/netfab/vlink"
)

func TestChain_OrdersByPriorityDescending(t *testing.T) {
	var order []string
	var c vlink.Chain

	c.Register(vlink.Low, func(vlink.Message) vlink.Outcome {
		order = append(order, "low")
		return vlink.Next
	})
	c.Register(vlink.High, func(vlink.Message) vlink.Outcome {
		order = append(order, "high")
		return vlink.Next
	})
	c.Register(vlink.Norm, func(vlink.Message) vlink.Outcome {
		order = append(order, "norm")
		return vlink.Next
	})

	require.NoError(t, c.Dispatch(vlink.Message{Kind: vlink.AddDevice}))
	assert.Equal(t, []string{"high", "norm", "low"}, order)
}

func TestChain_StopHaltsChain(t *testing.T) {
	var ran []string
	var c vlink.Chain
	c.Register(vlink.High, func(vlink.Message) vlink.Outcome {
		ran = append(ran, "high")
		return vlink.Stop
	})
	c.Register(vlink.Low, func(vlink.Message) vlink.Outcome {
		ran = append(ran, "low")
		return vlink.Next
	})

	require.NoError(t, c.Dispatch(vlink.Message{Kind: vlink.RmDevice}))
	assert.Equal(t, []string{"high"}, ran)
}

func TestChain_EmergReturnsError(t *testing.T) {
	var c vlink.Chain
	c.Register(vlink.Norm, func(vlink.Message) vlink.Outcome {
		return vlink.Emerg
	})

	err := c.Dispatch(vlink.Message{Kind: vlink.StartHookDevice, VirtName: "veth0"})
	assert.Error(t, err)
}
