// Package memory keeps the long-running watch mode inside its container
// memory budget.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from the container limit, which Go does
// not detect on its own:
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and nothing changes
//   - MEMORY_LIMIT: container memory limit in bytes, e.g. from the
//     Kubernetes Downward API (resourceFieldRef limits.memory)
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the heap, default 0.9
//
// [Monitor] samples the heap and pauses index refreshes while usage sits
// above the critical mark. The index waits on it through
// indexer.WithThrottle:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	idx := indexer.New(root, coord, indexer.WithThrottle(monitor))
//
// Without a limit from either source the monitor never pauses.
package memory
