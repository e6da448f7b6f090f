package linkfb_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/netfab"
	"code.hybscloud.com/netfab/fblock/linkfb"
)

type fakeIngest struct {
	pkts []*netfab.Packet
}

func (f *fakeIngest) EnqueueIngress(pkt *netfab.Packet) error {
	f.pkts = append(f.pkts, pkt)
	return nil
}

func TestEgress_WritesFrameAndDrops(t *testing.T) {
	registry := netfab.NewRegistry(1)
	dev := linkfb.NewFakeDevice("eth-test", net.HardwareAddr{0, 1, 2, 3, 4, 5})

	lfb, err := linkfb.Attach(registry, "eth-test", dev, 1)
	require.NoError(t, err)
	assert.NotNil(t, lfb)

	fb, err := registry.LookupByName("eth-test")
	require.NoError(t, err)
	defer fb.Put()

	pkt := netfab.NewPacket([]byte{1, 2, 3}, netfab.Egress, netfab.IDPExit)
	dir := netfab.Egress
	verdict := fb.NetRx(fb, pkt, &dir)

	assert.Equal(t, netfab.Dropped, verdict)
	require.Len(t, dev.Written, 1)
	assert.Equal(t, []byte{1, 2, 3}, dev.Written[0])
}
