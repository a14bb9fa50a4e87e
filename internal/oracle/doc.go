// Package oracle defines the decision-oracle boundary: the reasoning
// backend consulted by phase handlers for context-sensitive decisions
// (planning the todo set, choosing a delegation strategy per todo, and
// final triage).
//
// Every oracle response is untrusted input: it is decoded and
// schema-validated before use. A malformed response is a recoverable
// failure surfaced as ErrMalformedDecision, never a crash. Transport
// failures and malformed payloads are retried with exponential backoff
// up to the policy's bound.
package oracle
