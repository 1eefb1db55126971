package bootstrap

import (
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sys/unix"
)

// pinCurrentGoroutine locks the calling goroutine to its OS thread and
// pins that thread to cpu. A scan daemon's per-queue workers are
// homogeneous, so pinning is one core per queue worker rather than
// role-specialized.
func pinCurrentGoroutine(cpu int) error {
	runtime.LockOSThread()

	numCPU := runtime.NumCPU()
	if cpu >= numCPU {
		cpu = cpu % numCPU
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	tid := unix.Gettid()
	if err := unix.SchedSetaffinity(tid, &set); err != nil {
		return fmt.Errorf("bootstrap: pinning tid %d to cpu %d: %w", tid, cpu, err)
	}
	return nil
}

// logTopology reports the core count a scan session has to spread its
// scanner/completer/responder goroutines across.
func logTopology(queueCount uint32) {
	n := runtime.NumCPU()
	log.Printf("bootstrap: %d cpu cores available, %d nic queues", n, queueCount)
	if uint32(n) < queueCount {
		log.Printf("bootstrap: fewer cpu cores (%d) than nic queues (%d), workers will share cores", n, queueCount)
	}
}
