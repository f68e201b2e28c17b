package allocheap

import "os"

// Environment variable names consulted live, on every call that needs
// them, rather than cached in a config object.
const (
	envAlgorithm = "ALLOCATOR_ALGORITHM"
	envScribble  = "ALLOCATOR_SCRIBBLE"
	envTrace     = "ALLOCATOR_TRACE"

	// scribbleByte fills freshly allocated payloads when envScribble is
	// enabled, to surface uninitialized-read bugs in callers.
	scribbleByte = 0xAA
)

// currentAlgorithm reads ALLOCATOR_ALGORITHM fresh on every call; the
// allocator has no persistent config object, matching the teacher's
// direct-os-package style (no config library appears anywhere in the
// retrieval pack's candidate-teacher go.mod files).
func currentAlgorithm() Algorithm {
	return parseAlgorithm(os.Getenv(envAlgorithm))
}

// scribbleEnabled reads ALLOCATOR_SCRIBBLE fresh on every call.
func scribbleEnabled() bool {
	return os.Getenv(envScribble) == "1"
}

// traceEnabled mirrors the teacher package's trace const, but as a live
// env read rather than a build-time flag, so a failing unmap can be
// diagnosed in a running process without a recompile.
func traceEnabled() bool {
	return os.Getenv(envTrace) == "1"
}
