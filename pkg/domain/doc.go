/*
Package domain contains the core domain models for the Camino journey engine.

It defines the fundamental entities of the execution graph and its runs:
Journeys, JourneyNodes, Runs, ExecutionLogs and StepTasks. This package is
kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Journey: A named, reusable workflow graph of nodes.
  - JourneyNode: One typed step in a graph (LOG, DELAY or CONDITIONAL).
  - Run: One stateful execution instance of a journey against a context.
  - ExecutionLog: The append-only audit trail of node executions per run.
  - StepTask: A queue-delivered unit of work ("execute node N for run R").
*/
package domain
