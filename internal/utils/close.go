package utils

import "io"

// Close is for deferred best-effort cleanup where the error carries no
// information, like draining response bodies.
func Close(c io.Closer) {
	_ = c.Close()
}
