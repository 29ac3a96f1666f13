package tuner

// Worker policy limits.
const (
	// maxSolidStateIOWorkers caps I/O workers on flash storage.
	maxSolidStateIOWorkers = 24

	// maxRotationalIOWorkers caps I/O workers on spinning disks, where
	// concurrent readers mostly add seeks.
	maxRotationalIOWorkers = 8

	// solidStateIOFactor is I/O workers per CPU on flash storage.
	solidStateIOFactor = 3
)

// Memory tiers in bytes.
const (
	gib        = 1024 * 1024 * 1024
	lowMemory  = 4 * gib
	midMemory  = 8 * gib
	highMemory = 16 * gib
)

// Batch sizes per memory tier.
const (
	lowMemoryBatch  = 500
	midMemoryBatch  = 1000
	highMemoryBatch = 2000
	maxMemoryBatch  = 5000
)

// Profile is the one-shot resource profile and the worker policy derived from it.
type Profile struct {
	// CPUCount is the number of logical CPUs.
	CPUCount int

	// MemoryBytes is total physical memory.
	MemoryBytes int64

	// Medium is the storage medium backing the scan root.
	Medium Medium

	// IOWorkers is the recommended worker count for read-bound hashing.
	IOWorkers int

	// CPUWorkers is the recommended worker count for compute-bound hashing.
	CPUWorkers int

	// BatchSize is the base batch size before it is bounded by the file count.
	BatchSize int

	// Override is the manual worker count; zero means none.
	Override int
}

// MemoryGB returns MemoryBytes in GiB.
func (p Profile) MemoryGB() float64 {
	return float64(p.MemoryBytes) / gib
}

// Calculate derives worker counts and batch size from resources and medium.
//
//   - I/O workers: min(cpu*3, 24) on solid state, min(cpu, 8) on rotational
//   - CPU workers: max(1, cpu-1)
//   - below 4GB RAM, I/O is capped at 4 and CPU at 2; below 8GB at 8 and 4
//   - batch size: 500, 1000, 2000 or 5000 by memory tier, x1.5 on rotational
func Calculate(resources SystemResources, medium Medium) Profile {
	cpus := max(resources.CPUCores, 1)
	mem := resources.TotalRAM

	var io int
	if medium == MediumRotational {
		io = min(cpus, maxRotationalIOWorkers)
	} else {
		io = min(cpus*solidStateIOFactor, maxSolidStateIOWorkers)
	}
	cpu := max(1, cpus-1)

	switch {
	case mem < lowMemory:
		io = min(io, 4)
		cpu = min(cpu, 2)
	case mem < midMemory:
		io = min(io, 8)
		cpu = min(cpu, 4)
	}

	var batch int
	switch {
	case mem < lowMemory:
		batch = lowMemoryBatch
	case mem < midMemory:
		batch = midMemoryBatch
	case mem < highMemory:
		batch = highMemoryBatch
	default:
		batch = maxMemoryBatch
	}
	if medium == MediumRotational {
		batch = batch * 3 / 2
	}

	return Profile{
		CPUCount:    cpus,
		MemoryBytes: mem,
		Medium:      medium,
		IOWorkers:   io,
		CPUWorkers:  cpu,
		BatchSize:   batch,
	}
}

// WithOverride returns a copy of p where both worker counts are n.
// An override takes precedence over the profile, the workload caps and
// adaptive adjustment. n <= 0 clears the override.
func (p Profile) WithOverride(n int) Profile {
	if n <= 0 {
		p.Override = 0
		return p
	}
	p.Override = n
	p.IOWorkers = n
	p.CPUWorkers = n
	return p
}

// BatchSizeFor bounds the base batch size by the number of files: a batch is
// never larger than a quarter of totalFiles (at least 1).
func (p Profile) BatchSizeFor(totalFiles int) int {
	return min(max(p.BatchSize, 1), max(1, totalFiles/4))
}

// IOWorkersFor caps I/O workers for a small workload: at most 4 workers for
// under 100 files and 8 for under 1000.
func (p Profile) IOWorkersFor(files int) int {
	return capForWorkload(p.IOWorkers, p.Override, files, [2]int{100, 4}, [2]int{1000, 8})
}

// CPUWorkersFor caps CPU workers for a small workload: at most 2 workers for
// under 50 tasks and 4 for under 500.
func (p Profile) CPUWorkersFor(tasks int) int {
	return capForWorkload(p.CPUWorkers, p.Override, tasks, [2]int{50, 2}, [2]int{500, 4})
}

// capForWorkload applies {below, cap} pairs to workers. An override wins.
func capForWorkload(workers, override, n int, small, medium [2]int) int {
	if override > 0 {
		return override
	}
	switch {
	case n < small[0]:
		workers = min(workers, small[1])
	case n < medium[0]:
		workers = min(workers, medium[1])
	}
	return max(1, workers)
}
