// Package scheduler coalesces bursts of "something changed" signals into a
// single delayed execution per task id.
//
// Each id owns one timer. Scheduling an id again before its timer fires
// restarts the delay and replaces the task body, so a storm of filesystem
// events produces one refresh that sees the state at execution time. Bodies
// for the same id never overlap; bodies for different ids run concurrently on
// a fixed-size ants pool.
//
//	coord, err := scheduler.New(workers.ForRefresh())
//	if err != nil {
//	    return err
//	}
//	defer coord.Close()
//
//	coord.Schedule("index:refresh", 120*time.Millisecond, idx.Refresh)
//
// Cancel only removes work that has not started. Running bodies are expected
// to poll their own liveness flag and return early.
package scheduler
