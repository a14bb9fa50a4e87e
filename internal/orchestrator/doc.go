// Package orchestrator drives a security review through its phases.
//
// A run is a finite state machine: intake, plan_todos, act, collect,
// consolidate, evaluate, done. Each phase has exactly one registered
// handler which produces a typed output naming the phase it wants to
// enter next. The engine validates that request against the transition
// table; a handler requesting an illegal transition is a contract
// violation and aborts the run immediately. There is no retry at the
// engine level: recoverable failures (oracle hiccups, worker crashes,
// delegation timeouts) are absorbed inside the phase that owns them.
//
// All mutable run state lives in the Session. Phase handlers execute
// strictly one at a time; the only concurrency in a run is the act
// phase's dispatcher fan-out, which merges worker results through a
// single collector before the phase returns.
package orchestrator
