// Package linkfb implements the link-layer source functional block of
// spec.md §4.6: the singleton FB that bridges a worker engine to an OS
// network device, grounded on original_source/fb_eth.c.
package linkfb

import (
	"bytes"
	"errors"
	"net"
	"sync"

	"code.hybscloud.com/netfab"
)

var errClosed = errors.New("linkfb: device closed")

// singleton guards spec.md §4.6's "at most one instance" invariant
// process-wide, matching fb_eth.c's module-level instance check.
var singleton sync.Once

// Ingest is called by the daemon's ingress loop for every frame read from
// dev; it validates the source, stamps the packet, and enqueues it on
// the engine (spec.md §4.6: "on ingress").
type Ingest interface {
	EnqueueIngress(pkt *netfab.Packet) error
}

// ingressPoolCapacity sizes the PacketPool each link FB uses for its
// ingress payloads, per tier.
const ingressPoolCapacity = 256

// FB is the link-layer source/sink functional block. Exactly one may be
// attached per process (spec.md §4.6).
type FB struct {
	fb    *netfab.FB
	dev   Device
	ports []*netfab.PortState // one per worker, also stored as fb's Private
	pool  *netfab.PacketPool
}

// Attach publishes a link FB named name, bound to dev, into registry,
// wiring its egress path. nWorkers sizes the per-worker port state the
// same way fblock/tee does. It returns an error if a link FB has already
// been attached in this process.
func Attach(registry *netfab.Registry, name string, dev Device, nWorkers int) (*FB, error) {
	var attachErr error
	first := false
	singleton.Do(func() {
		first = true
		attachErr = doAttach(registry, name, dev, nWorkers)
	})
	if !first {
		return nil, errors.New("linkfb: a link FB has already been attached in this process")
	}
	if attachErr != nil {
		return nil, attachErr
	}
	return attachErrHolder, nil
}

var attachErrHolder *FB

func doAttach(registry *netfab.Registry, name string, dev Device, nWorkers int) error {
	ports := make([]*netfab.PortState, nWorkers)
	for i := range ports {
		ports[i] = netfab.NewPortState()
	}
	lfb := &FB{dev: dev, ports: ports, pool: netfab.NewPacketPool(ingressPoolCapacity)}

	fb := netfab.AllocFB()
	if err := netfab.InitFB(fb, name, ports); err != nil {
		return err
	}
	fb.NetRx = lfb.netRx
	lfb.fb = fb

	if err := registry.Publish(fb); err != nil {
		return err
	}
	attachErrHolder = lfb
	return nil
}

// netRx implements the egress half: reset the OS device on the packet
// (no-op here since Go has no skb->dev field to clear) and hand the
// frame to the OS transmit path, returning Dropped to release ownership
// (spec.md §4.6: "On egress... returns dropped to signal the engine
// 'ownership released'").
func (l *FB) netRx(_ *netfab.FB, pkt *netfab.Packet, dir *netfab.Direction) netfab.Verdict {
	if *dir != netfab.Egress {
		return netfab.Error
	}
	if err := l.dev.WriteFrame(pkt.Payload); err != nil {
		return netfab.Error
	}
	return netfab.Dropped
}

// Run pumps frames from l's device into the engine until the device is
// closed, implementing spec.md §4.6's ingress validation: reject
// loopback-to-self frames and stamp (source_idp, next_idp=port[INGRESS]).
// workerID selects which worker's port state to consult.
func (l *FB) Run(engine Ingest, workerID int) error {
	for {
		frame, src, err := l.dev.ReadFrame()
		if err != nil {
			return err
		}
		if bytes.Equal(src, l.dev.HardwareAddr()) {
			continue // loopback: source MAC equals our own device
		}

		next := netfab.IDPExit
		if workerID < len(l.ports) {
			next, _ = l.ports[workerID].Read(netfab.Ingress)
		}

		// Ingress payloads come from the tiered PacketPool rather than
		// wrapping the device's own read buffer directly, so the packet
		// queue downstream (spec.md §2) ultimately owns pool-backed
		// memory end to end.
		pkt, err := l.pool.Alloc(len(frame), netfab.Ingress, next)
		if err != nil {
			continue // every buffer in this tier is checked out: drop the frame
		}
		copy(pkt.Payload, frame)
		pkt.SourceIDP = l.fb.IDP()
		if err := engine.EnqueueIngress(pkt); err != nil {
			_ = pkt.Release()
			continue // queue full: drop, matching spec.md's non-blocking rule
		}
	}
}

// HardwareAddr exposes the attached device's MAC, mostly for tests.
func (l *FB) HardwareAddr() net.HardwareAddr { return l.dev.HardwareAddr() }
