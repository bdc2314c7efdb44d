package invariant

import "fmt"

// Invariant panics when cond is false. It is reserved for conditions that
// indicate corrupted accounting state rather than bad input; callers that
// can recover should return an error instead.
func Invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic("invariant violation: " + fmt.Sprintf(format, args...))
	}
}
