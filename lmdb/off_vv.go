//go:build !defvv

package lmdb

// Verbose is off by default; build with -tags defvv to get vv tracing.
const Verbose = false
