// Package state implements the application state machine: four
// independent, purely functional state slices (viewer, ui, data,
// session) reduced through a single synchronous dispatch entry point.
//
// Reducers never mutate their input; every transition produces a new
// value. The Store serializes dispatches with a mutex, so two
// dispatches never interleave mid-transition even on a multi-threaded
// runtime. Asynchronous work (search, extraction, persistence) feeds
// back into the machine by dispatching result actions when it
// completes.
package state
