package kv

import (
	"errors"
	"sync"
	"testing"

	"github.com/hendursaga/datalevin-go/lmdb"
)

// scenario 6: many goroutines performing get_value concurrently must never
// see BadReaderLock, and the pool must never allocate more RTX slots than
// UseReaders regardless of contention. A Barrier gates all goroutines at
// the same start line so the RTX pool sees its full fan-in at once, rather
// than goroutines trickling in one at a time as they're scheduled.
func TestConcurrentGetValue_PoolBounded(t *testing.T) {
	const goroutines = 16
	const opsPerGoroutine = 1000

	opts := DefaultOptions()
	opts.UseReaders = 8
	env := setupEnv(t, opts)
	if _, err := env.OpenDBI("a"); err != nil {
		t.Fatal(err)
	}
	if err := env.Transact([]WriteOp{{Kind: OpPut, DBI: "a", Key: "k", Val: "v"}}); err != nil {
		t.Fatal(err)
	}

	gate := lmdb.NewBarrier()
	defer gate.Close()

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			gate.WaitAtGate(id)
			for i := 0; i < opsPerGoroutine; i++ {
				if _, err := env.GetValue("a", "k", TypeData, TypeData); err != nil {
					errCh <- err
					return
				}
			}
		}(g)
	}

	gate.BlockUntil(goroutines)
	gate.UnblockReaders()

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if errors.Is(err, ErrBadReaderLock) {
			t.Fatalf("unexpected BadReaderLock: %v", err)
		}
		t.Fatalf("unexpected error from GetValue: %v", err)
	}

	if n := env.pool.Allocated(); n > opts.UseReaders {
		t.Fatalf("pool allocated %d RTXs, want <= %d", n, opts.UseReaders)
	}
}
