package linkfb

import "net"

// Device abstracts the OS network device a link FB reads frames from and
// writes frames to (SPEC_FULL.md §4.6: "abstracted behind a linkfb.Device
// interface... tests use an in-memory fake and a real build tag wires an
// AF_PACKET raw socket").
type Device interface {
	Name() string
	HardwareAddr() net.HardwareAddr
	ReadFrame() (frame []byte, srcMAC net.HardwareAddr, err error)
	WriteFrame(frame []byte) error
	Close() error
}

// FakeDevice is an in-memory Device used by tests: WriteFrame appends to
// Written, and ReadFrame drains a channel tests can feed via Inject.
type FakeDevice struct {
	name string
	mac  net.HardwareAddr

	inbound chan fakeFrame
	Written [][]byte
}

type fakeFrame struct {
	data []byte
	src  net.HardwareAddr
}

// NewFakeDevice returns a FakeDevice named name with the given MAC.
func NewFakeDevice(name string, mac net.HardwareAddr) *FakeDevice {
	return &FakeDevice{name: name, mac: mac, inbound: make(chan fakeFrame, 64)}
}

func (d *FakeDevice) Name() string                  { return d.name }
func (d *FakeDevice) HardwareAddr() net.HardwareAddr { return d.mac }

// Inject makes frame available to the next ReadFrame call, as if it had
// arrived from src.
func (d *FakeDevice) Inject(frame []byte, src net.HardwareAddr) {
	d.inbound <- fakeFrame{data: frame, src: src}
}

func (d *FakeDevice) ReadFrame() ([]byte, net.HardwareAddr, error) {
	f, ok := <-d.inbound
	if !ok {
		return nil, nil, errClosed
	}
	return f.data, f.src, nil
}

func (d *FakeDevice) WriteFrame(frame []byte) error {
	d.Written = append(d.Written, append([]byte(nil), frame...))
	return nil
}

func (d *FakeDevice) Close() error {
	close(d.inbound)
	return nil
}
