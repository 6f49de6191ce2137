// Package exitcodes defines the standard exit codes used by vtbench.
package exitcodes

// Exit code constants used by vtbench
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every invocation in the run succeeds
// * BenchFailure (1): Used when one or more invocations fail
// * RuntimeErr (2): Used for runtime errors such as bad configuration or panics
const (
	Success      = 0 // All invocations succeeded
	BenchFailure = 1 // One or more invocations failed
	RuntimeErr   = 2 // Runtime or configuration errors
)
