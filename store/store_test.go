// Copyright (c) 2025 Quillworks.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"encoding/json"
	"testing"

	"github.com/quillworks/quill/store"
	"github.com/quillworks/quill/testutil"
)

type testRecord struct {
	Value string `json:"value"`
}

func TestSetGetRoundTrip(t *testing.T) {
	st := testutil.SetupStore(t)

	if err := st.Set("some/key", testRecord{Value: "hello"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	raw, ok, err := st.Get("some/key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}

	var rec testRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("Failed to decode record: %v", err)
	}
	if rec.Value != "hello" {
		t.Errorf("record value = %q, want %q", rec.Value, "hello")
	}
}

func TestSetOverwrites(t *testing.T) {
	st := testutil.SetupStore(t)

	if err := st.Set("k", testRecord{Value: "first"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := st.Set("k", testRecord{Value: "second"}); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	var rec testRecord
	testutil.GetRecord(t, st, "k", &rec)
	if rec.Value != "second" {
		t.Errorf("record value = %q, want %q", rec.Value, "second")
	}
}

func TestGetMissing(t *testing.T) {
	st := testutil.SetupStore(t)

	_, ok, err := st.Get("nothing/here")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for missing key, want false")
	}
}

func TestDelete(t *testing.T) {
	st := testutil.SetupStore(t)

	if err := st.Set("k", testRecord{Value: "v"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := st.Delete("k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, ok, err := st.Get("k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true after delete, want false")
	}

	// Deleting a missing key is not an error
	if err := st.Delete("k"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestAppendAndList(t *testing.T) {
	st := testutil.SetupStore(t)

	for _, v := range []string{"a", "b", "c"} {
		if err := st.Append("history", testRecord{Value: v}); err != nil {
			t.Fatalf("Append(%q) error = %v", v, err)
		}
	}

	raws, err := st.List("history")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(raws))
	}

	// Oldest first
	for i, want := range []string{"a", "b", "c"} {
		var rec testRecord
		if err := json.Unmarshal(raws[i], &rec); err != nil {
			t.Fatalf("Failed to decode record %d: %v", i, err)
		}
		if rec.Value != want {
			t.Errorf("record %d = %q, want %q", i, rec.Value, want)
		}
	}
}

func TestListEmptyCollection(t *testing.T) {
	st := testutil.SetupStore(t)

	raws, err := st.List("empty")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(raws) != 0 {
		t.Errorf("List() returned %d records, want 0", len(raws))
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	st := store.New(conn)

	if err := st.Set("k", testRecord{Value: "survives"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// A new Store over the same database simulates a process restart
	st2 := store.New(conn)
	var rec testRecord
	testutil.GetRecord(t, st2, "k", &rec)
	if rec.Value != "survives" {
		t.Errorf("record value after reopen = %q, want %q", rec.Value, "survives")
	}
}
