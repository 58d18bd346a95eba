package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const gib = 1024 * 1024 * 1024

// RuntimeProfile is the GC and scheduler setting applied at startup.
type RuntimeProfile struct {
	Name     string
	GOGC     int
	MemLimit int64
	MaxProcs int
}

// ProfileForCPUs picks a profile from the CPU count. Route search allocates
// many short-lived big integers per request, so GOGC stays moderate and the
// memory limit caps the heap.
func ProfileForCPUs(cpus int) RuntimeProfile {
	switch {
	case cpus <= 2:
		return RuntimeProfile{Name: "small", GOGC: 200, MemLimit: 2 * gib, MaxProcs: cpus}
	case cpus <= 8:
		return RuntimeProfile{Name: "medium", GOGC: 300, MemLimit: 6 * gib, MaxProcs: cpus}
	default:
		// quote workers scale with GOMAXPROCS; leave headroom for the http server
		return RuntimeProfile{Name: "large", GOGC: 400, MemLimit: 12 * gib, MaxProcs: cpus - 2}
	}
}

// InitRuntime applies the profile for this machine. GOGC, GOMAXPROCS and
// GOMEMLIMIT in the environment take precedence.
func InitRuntime() RuntimeProfile {
	p := ProfileForCPUs(runtime.NumCPU())

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(p.GOGC)
	}
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(p.MaxProcs)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(p.MemLimit)
	}

	log.Info().
		Str("profile", p.Name).
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Int64("gomemlimit_bytes", debug.SetMemoryLimit(-1)).
		Str("go_version", runtime.Version()).
		Msg("[runtime] settings applied")
	return p
}
