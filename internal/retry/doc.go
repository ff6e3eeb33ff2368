// Package retry provides the retry policy shared by every component that
// performs network I/O.
//
// A Policy is a plain value: attempts, delay between attempts, optional
// exponential growth and cap. Policy.Do runs an operation until it succeeds,
// returns a Permanent error, exhausts its attempts, or the context is done.
package retry
