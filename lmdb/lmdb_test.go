package lmdb

import (
	"bytes"
	"os"
	"testing"
)

func setup(t *testing.T) *Env {
	t.Helper()
	dir, err := os.MkdirTemp("", "lmdb-test-")
	if err != nil {
		t.Fatal(err)
	}
	env, err := NewEnv(16)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	if err := env.SetMapSize(64 << 20); err != nil {
		t.Fatal(err)
	}
	if err := env.SetMaxDBs(8); err != nil {
		t.Fatal(err)
	}
	if err := env.Open(dir, NoReadahead|MapAsync|WriteMap, 0664); err != nil {
		t.Fatal(err)
	}
	return env
}

func clean(env *Env, t *testing.T) {
	t.Helper()
	path := env.path
	env.Close()
	if path != "" {
		os.RemoveAll(path)
	}
}

func TestTxn_PutGet(t *testing.T) {
	env := setup(t)
	defer clean(env, t)

	txn, err := env.BeginTxn(false)
	if err != nil {
		t.Fatal(err)
	}
	dbi, err := txn.OpenDBI("a", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := txn.Put(dbi, []byte("hello"), []byte("world"), 0); err != nil {
		t.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	rtxn, err := env.BeginTxn(true)
	if err != nil {
		t.Fatal(err)
	}
	defer rtxn.Abort()
	v, err := rtxn.Get(dbi, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(v, []byte("world")) {
		t.Fatalf("unexpected value: %q", v)
	}
}

func TestTxn_GetNotFound(t *testing.T) {
	env := setup(t)
	defer clean(env, t)

	txn, err := env.BeginTxn(false)
	if err != nil {
		t.Fatal(err)
	}
	dbi, err := txn.OpenDBI("a", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	rtxn, err := env.BeginTxn(true)
	if err != nil {
		t.Fatal(err)
	}
	defer rtxn.Abort()
	_, err = rtxn.Get(dbi, []byte("missing"))
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCursor_Walk(t *testing.T) {
	env := setup(t)
	defer clean(env, t)

	txn, err := env.BeginTxn(false)
	if err != nil {
		t.Fatal(err)
	}
	dbi, err := txn.OpenDBI("a", true)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := txn.Put(dbi, []byte(k), []byte(k+k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	rtxn, err := env.BeginTxn(true)
	if err != nil {
		t.Fatal(err)
	}
	defer rtxn.Abort()

	cur, err := rtxn.OpenCursor(dbi)
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()

	var got []string
	k, v, err := cur.Get(nil, First)
	for err == nil {
		got = append(got, string(k)+"="+string(v))
		k, v, err = cur.Get(nil, Next)
	}
	if !IsNotFound(err) {
		t.Fatalf("unexpected walk error: %v", err)
	}
	want := []string{"a=aa", "b=bb", "c=cc"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestTxn_ResetRenew(t *testing.T) {
	env := setup(t)
	defer clean(env, t)

	txn, err := env.BeginTxn(false)
	if err != nil {
		t.Fatal(err)
	}
	dbi, err := txn.OpenDBI("a", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := txn.Put(dbi, []byte("k"), []byte("v1"), 0); err != nil {
		t.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	rtxn, err := env.BeginTxn(true)
	if err != nil {
		t.Fatal(err)
	}
	v, err := rtxn.Get(dbi, []byte("k"))
	if err != nil || !bytes.Equal(v, []byte("v1")) {
		t.Fatalf("got %q, %v", v, err)
	}
	rtxn.Reset()

	wtxn, err := env.BeginTxn(false)
	if err != nil {
		t.Fatal(err)
	}
	if err := wtxn.Put(dbi, []byte("k"), []byte("v2"), 0); err != nil {
		t.Fatal(err)
	}
	if err := wtxn.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := rtxn.Renew(); err != nil {
		t.Fatal(err)
	}
	defer rtxn.Abort()
	v, err = rtxn.Get(dbi, []byte("k"))
	if err != nil || !bytes.Equal(v, []byte("v2")) {
		t.Fatalf("renew did not see new snapshot: %q, %v", v, err)
	}
}

func TestDrop_Clear(t *testing.T) {
	env := setup(t)
	defer clean(env, t)

	txn, err := env.BeginTxn(false)
	if err != nil {
		t.Fatal(err)
	}
	dbi, err := txn.OpenDBI("a", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := txn.Put(dbi, []byte("k"), []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := txn.Drop(dbi, false); err != nil {
		t.Fatal(err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatal(err)
	}

	rtxn, err := env.BeginTxn(true)
	if err != nil {
		t.Fatal(err)
	}
	defer rtxn.Abort()
	stat, err := rtxn.Stat(dbi)
	if err != nil {
		t.Fatal(err)
	}
	if stat.Entries != 0 {
		t.Fatalf("expected 0 entries after clear, got %d", stat.Entries)
	}
}
