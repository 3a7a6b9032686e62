/*
Package ports defines the driven-side interfaces of the Camino engine.

The engine core depends only on these contracts; adapters (Redis, in-memory)
implement them. Both the store and the scheduler are injected explicitly
into the engine rather than reached through package-level singletons, so
every test and every worker instance can be constructed in isolation.
*/
package ports
