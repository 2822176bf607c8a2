package overlay

import "fmt"

// Strict turns invariant violations into panics instead of clamping them.
// Tests enable it; release builds leave it off.
var Strict = false

func violation(format string, args ...interface{}) {
	if Strict {
		panic(fmt.Sprintf("overlay: "+format, args...))
	}
}
