// Package sim provides the event-driven engine of a queueing-network
// simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - individual.go: Individual lifecycle (queued → in service → blocked → departed)
//   - node.go: the node state machine (accept, finish service, block, release)
//   - network.go: the event loop that picks the earliest event and fires it
//
// # Blocking
//
// Nodes may have a finite capacity. An individual whose routed destination is
// full stays on its server, is marked blocked, and joins the destination's
// FIFO blocked queue. Every time the destination lets someone out, the head
// of its blocked queue is released into it, which may free space at the
// origin and cascade further. DependencyGraph records which server waits on
// which; a knot in it is a deadlock.
//
// # Key Interfaces
//
// The collaborators a node writes to are small interfaces carried by Env:
//   - BlockingGraph: server-to-server waiting edges
//   - NetworkState: per-node in-service and blocked counters
//   - RecordSink: one DataRecord per finished visit
//   - ServiceTimeSource: service durations per node and class
//
// Sub-packages:
//   - sim/netspec/: YAML network descriptions, distributions, and Build
//   - sim/observe/: Prometheus occupancy gauges and OpenTelemetry setup
//   - sim/trace/: decision trace recording
package sim
