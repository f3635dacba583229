package main

import (
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// startProfiles starts a cpu profile and execution trace for the non-empty
// paths. The returned function stops them and writes the memory profile.
func startProfiles(cpupath, mempath, tracepath string) (stop func()) {
	var stops []func()

	if tracepath != "" {
		f, err := os.Create(tracepath)
		xcheckf(err, "create trace file")
		err = trace.Start(f)
		xcheckf(err, "start trace")
		stops = append(stops, func() {
			trace.Stop()
			closeProfile(f, "trace")
		})
	}

	if cpupath != "" {
		f, err := os.Create(cpupath)
		xcheckf(err, "creating cpu profile")
		err = pprof.StartCPUProfile(f)
		xcheckf(err, "start cpu profile")
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			closeProfile(f, "cpu profile")
		})
	}

	return func() {
		for _, fn := range stops {
			fn()
		}
		if mempath != "" {
			writeMemProfile(mempath)
		}
	}
}

func writeMemProfile(path string) {
	f, err := os.Create(path)
	xcheckf(err, "creating memory profile")
	defer closeProfile(f, "memory profile")
	runtime.GC() // Up-to-date statistics.
	err = pprof.WriteHeapProfile(f)
	xcheckf(err, "writing memory profile")
}

func closeProfile(f *os.File, what string) {
	if err := f.Close(); err != nil {
		log.Printf("closing %s: %v", what, err)
	}
}
