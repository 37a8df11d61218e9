package agas

import (
	"testing"

	"github.com/launix-de/gidrc/gid"
)

func TestRefusingClientPanicsWhileLocked(t *testing.T) {
	id := gid.New(1, 1)
	id.Lock()
	defer id.Unlock()

	r := &RefusingClient{Next: NewMockClient(nil)}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when calling Decref on a locked identifier")
		}
	}()
	r.Decref(id, 1)
}

func TestRefusingClientDelegatesWhenUnlocked(t *testing.T) {
	id := gid.New(1, 1)
	mock := NewMockClient(nil)
	r := &RefusingClient{Next: mock}

	r.Decref(id, 1) // should not panic, and should reach the mock
	if id.IsLocked() {
		t.Fatal("Decref must not leave the identifier locked")
	}
	if calls := mock.DecrefCalls(); len(calls) != 1 || calls[0].ID != id || calls[0].N != 1 {
		t.Fatalf("mock DecrefCalls() = %+v, want one call for %v with n=1", calls, id)
	}
}
