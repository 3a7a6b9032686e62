/*
Package camino is a journey execution engine: it runs directed workflow
graphs of typed nodes, advancing each run step by step through a durable
queue.

# Concept

A journey is a graph of nodes. Each node carries a type (LOG, DELAY, or
CONDITIONAL) and a typed definition saying what to do and which node
comes next. Triggering a journey creates a run with its own context map;
the engine then walks the graph one step at a time, appending an
execution log entry per step, until a node has no successor (the run
COMPLETES) or a step cannot be carried out (the run FAILS).

Steps travel through a scheduler rather than a call stack, so DELAY
nodes simply re-enqueue the successor with a ready-at time in the
future and long waits cost nothing. Delivery is at-least-once: a worker
that crashes mid-step loses its claim after a visibility timeout and
the step is handed to another worker.

# Architecture

The core is hexagonal. pkg/domain holds the node and run types,
pkg/ports defines the Store and Scheduler contracts, and
pkg/adapters provides two implementations of each: Redis for
production and in-memory for tests and local development. The engine in
internal/engine is transport-agnostic; the HTTP API and the worker pool
are both thin shells around it.

# Usage

Wire a System around a store and scheduler pair, serve its handler, and
run its workers:

	package main

	import (
		"context"
		"net/http"

		"github.com/camino-run/camino"
		"github.com/camino-run/camino/pkg/adapters/memory"
	)

	func main() {
		sys := camino.New(memory.NewStore(), memory.NewScheduler())

		go sys.RunWorkers(context.Background())

		http.ListenAndServe(":8080", sys.Handler())
	}

The cmd/camino binary does exactly this with Redis-backed adapters,
split into a "serve" command for the API and a "work" command for the
worker pool.
*/
package camino
