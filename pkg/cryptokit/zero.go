// Copyright 2025 Certen Protocol

package cryptokit

import "runtime"

// Zero overwrites b with zero bytes. The runtime.KeepAlive call anchors b
// past the overwrite loop so the compiler cannot prove the writes are dead
// and elide them — secret material must never outlive the signing or
// verification call that used it.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
