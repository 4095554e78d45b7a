// Package schedule owns recurring execution of named sync jobs.
//
// Each scheduled job runs as its own goroutine; ticks within one job are
// strictly sequential (the next interval only starts counting after the
// previous tick returns), so a slow pass never overlaps itself. Different
// jobs run fully concurrently and share no state.
//
// Scheduling the same job id again replaces the prior job rather than
// stacking a second one. Cancellation takes effect before the next tick and
// never interrupts a tick already in flight.
package schedule
