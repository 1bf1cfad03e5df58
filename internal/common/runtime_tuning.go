package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Runtime profiles by core count. The engine serializes calls behind one
// lock, so extra procs only serve the ops server and snapshots.
const (
	SmallServerGOGC     = 200
	SmallServerMemLimit = 1 * 1024 * 1024 * 1024
	SmallServerMaxProcs = 2

	LargeServerGOGC     = 400
	LargeServerMemLimit = 4 * 1024 * 1024 * 1024
	LargeServerMaxProcs = 4
)

func detectServerProfile() (gogc int, memLimit int64, maxProcs int) {
	if runtime.NumCPU() <= 4 {
		return SmallServerGOGC, SmallServerMemLimit, min(SmallServerMaxProcs, runtime.NumCPU())
	}
	return LargeServerGOGC, LargeServerMemLimit, LargeServerMaxProcs
}

// InitRuntime applies the detected profile. GOGC, GOMAXPROCS and GOMEMLIMIT
// from the environment win.
func InitRuntime() {
	gogc, memLimit, maxProcs := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(gogc)
	}
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(maxProcs)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(memLimit)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Int("gogc", gogc).
		Int64("memlimit_bytes", memLimit).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] current runtime settings")
}
