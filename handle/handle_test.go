package handle

import (
	"errors"
	"testing"

	"github.com/launix-de/gidrc/agas"
	"github.com/launix-de/gidrc/gid"
)

func newTestEnv() (*Environment, *agas.MockClient) {
	mock := agas.NewMockClient(nil)
	env := NewEnvironment(mock)
	return env, mock
}

// newGuardedTestEnv wires agas.RefusingClient in front of the mock so
// that any code path holding rec.id's lock while calling into the
// address service panics the test, rather than merely being asserted
// against RefusingClient in isolation.
func newGuardedTestEnv() (*Environment, *agas.MockClient) {
	mock := agas.NewMockClient(nil)
	env := NewEnvironment(&agas.RefusingClient{Next: mock})
	return env, mock
}

func newManagedIdentifier(log2Credit uint8) gid.Identifier {
	id := gid.New(1, 1)
	id.SetLog2Credit(log2Credit)
	return id
}

func TestConstructRejectsBadManagement(t *testing.T) {
	env, _ := newTestEnv()
	_, err := Construct(env, gid.New(1, 1), ManagementType(99))
	if !errors.Is(err, ErrBadParameter) {
		t.Fatalf("err = %v, want ErrBadParameter", err)
	}
}

func TestCopyIncrementsRefCount(t *testing.T) {
	env, _ := newTestEnv()
	h, err := Construct(env, gid.New(1, 1), Unmanaged)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if h.RefCount() != 1 {
		t.Fatalf("RefCount = %d, want 1", h.RefCount())
	}
	h2 := h.Copy()
	if h.RefCount() != 2 || h2.RefCount() != 2 {
		t.Fatalf("RefCount after Copy = %d/%d, want 2/2", h.RefCount(), h2.RefCount())
	}
}

func TestDropUnmanagedNeverTouchesAddressService(t *testing.T) {
	env, mock := newTestEnv()
	h, err := Construct(env, gid.New(1, 1), Unmanaged)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	h.Drop()
	if got := mock.Destroyed(); len(got) != 0 {
		t.Fatalf("expected no destroy calls, got %v", got)
	}
}

func TestDropManagedSplitDecrefs(t *testing.T) {
	env, mock := newTestEnv()
	id := newManagedIdentifier(10)
	id.SetSplitFlag()
	h, err := Construct(env, id, Managed)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	h.Drop()

	calls := mock.DecrefCalls()
	if len(calls) != 1 || calls[0].ID != id || calls[0].N != id.Credit() {
		t.Fatalf("DecrefCalls() = %+v, want one call for %v with n=%d", calls, id, id.Credit())
	}
	if got := mock.Destroyed(); len(got) != 0 {
		t.Fatalf("expected no destroy_component call for a split handle, got %v", got)
	}
}

func TestDropManagedResolvedAndNeverSplitDestroys(t *testing.T) {
	env, mock := newTestEnv()
	id := newManagedIdentifier(10)
	addr := agas.Address{Locality: 1, ComponentType: 1, LVA: 0xabc}
	mock.Register(id, addr)

	h, err := Construct(env, id, Managed)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	h.Drop()

	destroyed := mock.Destroyed()
	if len(destroyed) != 1 || destroyed[0] != id {
		t.Fatalf("Destroyed() = %v, want [%v]", destroyed, id)
	}
}

func TestDropManagedUnresolvedDecrefs(t *testing.T) {
	env, mock := newTestEnv()
	id := newManagedIdentifier(10) // never registered -> ResolveCached misses

	h, err := Construct(env, id, Managed)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	h.Drop()

	if got := mock.Destroyed(); len(got) != 0 {
		t.Fatalf("expected no destroy_component call for an unresolved handle, got %v", got)
	}
	if calls := mock.DecrefCalls(); len(calls) != 1 {
		t.Fatalf("DecrefCalls() = %v, want exactly one call", calls)
	}
}

func TestDropDuringShutdownFreesLocally(t *testing.T) {
	env, mock := newTestEnv()
	id := newManagedIdentifier(10)
	addr := agas.Address{Locality: 1, ComponentType: 1, LVA: 0xabc}
	mock.Register(id, addr)
	env.Shutdown()

	h, err := Construct(env, id, Managed)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	h.Drop()

	if got := mock.Destroyed(); len(got) != 0 {
		t.Fatalf("expected no address-service traffic during shutdown, got %v", got)
	}
}

func TestZeroHandleIsInvalid(t *testing.T) {
	var h Handle
	if h.String() != "{invalid}" {
		t.Fatalf("String() = %q, want {invalid}", h.String())
	}
	if h.ManagementType() != Unmanaged {
		t.Fatalf("ManagementType() = %v, want Unmanaged", h.ManagementType())
	}
	h.Drop()  // must not panic
	h.Copy()  // must not panic
}

func TestManagementTypeString(t *testing.T) {
	cases := map[ManagementType]string{
		Unmanaged:         "unmanaged",
		Managed:           "managed",
		ManagedMoveCredit: "managed_move_credit",
		ManagementType(7): "invalid",
	}
	for mgmt, want := range cases {
		if got := mgmt.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", mgmt, got, want)
		}
	}
}

// TestDropNeverCallsAddressServiceWhileLocked wires agas.RefusingClient
// into a real Environment so that managedDelete's decref and
// destroy_component branches are exercised under a client that panics
// if it is ever called while rec.id's lock bit is still set. This
// covers the same lock-discipline property agas/refusing_test.go
// checks in isolation, but against the actual drop decision tree rather
// than a synthetic call.
func TestDropNeverCallsAddressServiceWhileLocked(t *testing.T) {
	t.Run("split", func(t *testing.T) {
		env, mock := newGuardedTestEnv()
		id := newManagedIdentifier(10)
		id.SetSplitFlag()
		h, err := Construct(env, id, Managed)
		if err != nil {
			t.Fatalf("Construct: %v", err)
		}
		h.Drop()
		if len(mock.DecrefCalls()) != 1 {
			t.Fatalf("DecrefCalls() = %v, want exactly one call", mock.DecrefCalls())
		}
	})

	t.Run("resolved and never split", func(t *testing.T) {
		env, mock := newGuardedTestEnv()
		id := newManagedIdentifier(10)
		addr := agas.Address{Locality: 1, ComponentType: 1, LVA: 0xdef}
		mock.Register(id, addr)
		h, err := Construct(env, id, Managed)
		if err != nil {
			t.Fatalf("Construct: %v", err)
		}
		h.Drop()
		if len(mock.Destroyed()) != 1 {
			t.Fatalf("Destroyed() = %v, want exactly one entry", mock.Destroyed())
		}
	})
}
