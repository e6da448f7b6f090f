// Package bufpool provides lock-free packet buffer pools and memory
// management utilities for the netfab packet-processing engine.
//
// Packet payloads are never allocated with plain make([]byte, n) on the hot
// path: they are acquired from one of four size tiers, each backed by a
// lock-free bounded pool, and returned once the owning functional block is
// done with them. This keeps allocation off the GC on the steady-state
// path, matching the non-blocking allocation requirement of the engine's
// data path (no packet may block waiting for memory; on exhaustion the
// packet is dropped).
//
// # Buffer tiers
//
//	Tier    Size     Use case
//	----    ----     --------
//	Micro   512 B    control-area cells, small protocol frames
//	Small   2 KiB    typical Ethernet frames
//	Medium  8 KiB    jumbo frames, reassembled segments
//	Big     32 KiB   tee/clone scratch space, batched vectored I/O
//
// # Bounded pool
//
// BoundedPool is a lock-free multi-producer multi-consumer pool based on
// the algorithm from "A Scalable, Portable, and Memory-Efficient Lock-Free
// FIFO Queue" (Ruslan Nikolaev, 2019). It backs the buffer pools in this
// package; the per-worker packet queues in package queue are a separate
// ring with a sequence counter per slot.
//
// # Dependencies
//
// bufpool depends on:
//   - iox: semantic error types (ErrWouldBlock)
//   - spin: spinlock and spin-wait primitives for backpressure
package bufpool
