package lmdb

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"
)

var vvMut sync.Mutex

// vv is a tsPrintf-style trace helper, silent unless built with -tags defvv.
// Kept cheap enough (a single bool check) that call sites don't need to be
// guarded themselves.
func vv(format string, a ...interface{}) {
	if !Verbose {
		return
	}
	vvMut.Lock()
	defer vvMut.Unlock()
	fmt.Printf("%s %s\n", time.Now().Format("2006-01-02T15:04:05.000"), fmt.Sprintf(format, a...))
}

// CurGID extracts the calling goroutine's id from its stack trace header.
// The kv adapter's RTX pool uses it to bias which pooled read transaction a
// caller probes first; it is never load bearing for correctness, so a parse
// failure just degrades to id 0.
func CurGID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.Atoi(string(b[:i]))
	if err != nil {
		return 0
	}
	return id
}
