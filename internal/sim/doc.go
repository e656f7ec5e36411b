// Package sim advances the synthetic radar scene one tick at a time.
//
// The scene is an explicit State value: Step takes a State and returns the
// next one, drawing every random number from the *rand.Rand it is handed, so
// a run is fully reproducible from its seed. Stepper wraps Step with noise and
// clutter synthesis and fans each Frame out to its sinks.
//
// Sinks are called synchronously from the tick loop. A log sink writing to a
// file assumes it is the only writer of that file; no locking is done.
package sim
