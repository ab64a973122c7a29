package log

import "runtime/debug"

// SafeGo runs fn in a new goroutine with panic recovery. A recovered panic is
// logged with the goroutine's name and stack trace instead of crashing the
// process. Use for every long-lived background goroutine.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				current().Error("goroutine panic",
					"goroutine", name,
					"panic", r,
					"stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
