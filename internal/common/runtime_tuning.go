package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const (
	// Small server: 2 vCPU, 4GB RAM (dev)
	SmallServerGOGC     = 100
	SmallServerMemLimit = 2.5 * 1024 * 1024 * 1024

	// Anything larger
	DefaultServerGOGC     = 200
	DefaultServerMemLimit = 8 * 1024 * 1024 * 1024
)

func detectServerProfile() (gogc int, memLimit int64) {
	if runtime.NumCPU() <= 2 {
		return SmallServerGOGC, int64(SmallServerMemLimit)
	}
	return DefaultServerGOGC, int64(DefaultServerMemLimit)
}

// InitRuntime applies GOGC and GOMEMLIMIT defaults for the host unless the
// environment already sets them.
func InitRuntime() {
	gogc, memLimit := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(gogc)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(memLimit)
	}

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Int("gogc", gogc).
		Float64("memlimit_gb", float64(memLimit)/1024/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] settings applied")
}
