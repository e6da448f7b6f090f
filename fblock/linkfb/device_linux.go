//go:build linux

package linkfb

import (
	"net"

	"golang.org/x/sys/unix"

	"code.hybscloud.com/netfab/bufpool"
)

// RawDevice is a Device backed by a Linux AF_PACKET raw socket bound to a
// single interface, grounded on fb_eth.c's use of a raw device handle and
// tomponline-lxd's convention of wrapping golang.org/x/sys/unix syscalls
// behind a small interface.
type RawDevice struct {
	fd   int
	name string
	mac  net.HardwareAddr
	mtu  int
}

// OpenRawDevice opens an AF_PACKET socket bound to ifaceName.
func OpenRawDevice(ifaceName string) (*RawDevice, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, err
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	return &RawDevice{fd: fd, name: iface.Name, mac: iface.HardwareAddr, mtu: iface.MTU}, nil
}

func (d *RawDevice) Name() string                  { return d.name }
func (d *RawDevice) HardwareAddr() net.HardwareAddr { return d.mac }

// ReadFrame reads one frame into a page-aligned buffer, matching the
// DMA-style alignment bufpool.AlignedMemBlock documents for AF_PACKET
// ring consumers.
func (d *RawDevice) ReadFrame() ([]byte, net.HardwareAddr, error) {
	buf := bufpool.AlignedMemBlock()
	n, from, err := unix.Recvfrom(d.fd, buf, 0)
	if err != nil {
		return nil, nil, err
	}
	var src net.HardwareAddr
	if ll, ok := from.(*unix.SockaddrLinklayer); ok {
		src = net.HardwareAddr(ll.Addr[:ll.Halen])
	}
	return buf[:n], src, nil
}

func (d *RawDevice) WriteFrame(frame []byte) error {
	addr := &unix.SockaddrLinklayer{Protocol: htons(unix.ETH_P_ALL)}
	return unix.Sendto(d.fd, frame, 0, addr)
}

// WriteFrames batches several frames into a single vectored writev call
// via bufpool.IoVec, standing in for fb_eth.c's batched egress path
// (SPEC_FULL.md §2: "Domain: vectored I/O for link egress").
func (d *RawDevice) WriteFrames(frames [][]byte) error {
	if len(frames) == 0 {
		return nil
	}
	vec := bufpool.IoVecFromBytesSlice(frames)
	addr, n := bufpool.IoVecAddrLen(vec)
	_, _, errno := unix.Syscall(unix.SYS_WRITEV, uintptr(d.fd), addr, uintptr(n))
	if errno != 0 {
		return errno
	}
	return nil
}

func (d *RawDevice) Close() error {
	return unix.Close(d.fd)
}

// htons converts a 16-bit value from host to network byte order, needed
// because AF_PACKET's protocol field is big-endian regardless of host
// architecture.
func htons(v int) uint16 {
	return uint16(v<<8&0xff00 | v>>8&0xff)
}
