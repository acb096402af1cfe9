// Package metrics defines the sinks that record simulation activity. Every
// sink records tick snapshots; AssignmentRecorder and OutcomeRecorder are
// optional and detected with a type assertion. Sinks are built from
// configuration through the factory registry and several sinks combine into
// a MultiSink automatically.
package metrics
