// Package netfab implements the core of a user-configurable, modular
// network packet-processing engine: an id-addressable registry of
// functional blocks (FBs) bound together by named ports, driven by
// per-CPU worker engines.
//
// Administrators assemble a directed graph of FBs, bind them with named
// ports, and push packets through the resulting topology. Packets enter
// from a link-layer source FB, traverse an arbitrary chain of FBs chosen
// by each FB's per-direction next-hop, and exit via whichever FB hands the
// packet to the operating system.
//
// # Subpackages
//
//   - bufpool: lock-free tiered packet buffer pools (the teacher library
//     this engine was built out of).
//   - queue: the lock-free MPMC ring that backs per-worker queues.
//   - scheduler: pluggable (packet, direction) -> worker policies.
//   - engine: the per-CPU worker drain loop.
//   - control: the control-message dispatcher.
//   - vlink: the virtual-link device event subsystem.
//   - fblock/linkfb, fblock/tee: concrete functional block implementations.
//
// # Dependencies
//
// netfab depends on code.hybscloud.com/spin for seqlock retry backoff and
// github.com/pkg/errors / github.com/sirupsen/logrus for control-plane
// error wrapping and structured logging.
package netfab
