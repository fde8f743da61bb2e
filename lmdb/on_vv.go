//go:build defvv

package lmdb

// Verbose turns on vv tracing when built with -tags defvv.
const Verbose = true
