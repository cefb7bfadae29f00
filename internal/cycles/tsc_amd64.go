package cycles

const source = "tsc"

// rdtsc is implemented in tsc_amd64.s.
func rdtsc() uint64

func read() uint64 { return rdtsc() }
