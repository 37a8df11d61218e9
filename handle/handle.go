/*
Copyright (C) 2024-2026  gidrc contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package handle

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/launix-de/gidrc/agas"
	"github.com/launix-de/gidrc/gid"
)

// ManagementType is a small tagged-sum enum in place of a deleter
// interface hierarchy: three variants, dispatched by a switch in
// runDeleter (see deleter.go), where Managed and ManagedMoveCredit share
// the managed deleter.
type ManagementType int

const (
	Unmanaged ManagementType = iota
	Managed
	ManagedMoveCredit
)

// String names each management value, a small name table in the style
// of a C runtime's get_management_type_name.
func (m ManagementType) String() string {
	switch m {
	case Unmanaged:
		return "unmanaged"
	case Managed:
		return "managed"
	case ManagedMoveCredit:
		return "managed_move_credit"
	default:
		return "invalid"
	}
}

func (m ManagementType) valid() bool {
	return m == Unmanaged || m == Managed || m == ManagedMoveCredit
}

// record is the internal, intrusively-refcounted state a Handle points
// to. refcount is an atomic.Int64 rather than a mutex-guarded int,
// mirroring the lock-free hot-field discipline memcp's cacheMapEntry
// uses for its lastUsed timestamp: refcount changes on every Copy/Drop
// and must never contend with a mutex to do it.
type record struct {
	id       gid.Identifier
	mgmt     ManagementType
	env      *Environment
	refcount atomic.Int64

	// replenishMu and replenishFuture coordinate concurrent splitters
	// racing the same identifier through Case B (see split.go). The
	// future covers the whole incref-then-reconcile sequence, not just
	// the network call, so at most one goroutine ever reconciles a given
	// exhaustion window; every other goroutine that finds a future
	// already in flight waits for it and then retries the split fresh.
	replenishMu     sync.Mutex
	replenishFuture *agas.Future[gid.Identifier]
}

// Handle is a shared, ref-counted reference to a component. The zero
// Handle (nil rec) is the "invalid" sentinel, a default-constructible
// falsy handle: ManagementType reports Unmanaged, String reports
// "{invalid}", and Drop is a no-op.
type Handle struct {
	rec *record
}

// Construct builds a new Handle owning raw under management discipline
// mgmt, starting its local refcount at one. It returns ErrBadParameter
// if mgmt is not one of the three known variants.
func Construct(env *Environment, raw gid.Identifier, mgmt ManagementType) (Handle, error) {
	if !mgmt.valid() {
		return Handle{}, fmt.Errorf("%w: management type %d", ErrBadParameter, mgmt)
	}
	rec := &record{id: raw, mgmt: mgmt, env: env}
	rec.refcount.Store(1)
	return Handle{rec: rec}, nil
}

// Copy increments h's local refcount and returns a new Handle value
// sharing the same underlying record. No credit changes hands - copying
// is free.
func (h Handle) Copy() Handle {
	if h.rec == nil {
		return Handle{}
	}
	h.rec.refcount.Add(1)
	return Handle{rec: h.rec}
}

// Drop decrements h's local refcount; at zero it invokes the deleter
// matching h's management type. Calling Drop more than once per Copy is
// a caller bug (the second call would double-free); Drop does not guard
// against it, the same contract any intrusive refcount carries.
func (h Handle) Drop() {
	if h.rec == nil {
		return
	}
	if h.rec.refcount.Add(-1) == 0 {
		runDeleter(h.rec)
	}
}

// ManagementType reports h's management discipline. The zero Handle
// reports Unmanaged.
func (h Handle) ManagementType() ManagementType {
	if h.rec == nil {
		return Unmanaged
	}
	return h.rec.mgmt
}

// Identifier returns a snapshot of h's current raw identifier. The
// returned value's lock bit reflects whatever state the record was in
// at the instant of the read; callers needing to observe-then-mutate
// under the lock should go through the split protocol instead.
func (h Handle) Identifier() gid.Identifier {
	if h.rec == nil {
		return gid.Invalid
	}
	return h.rec.id
}

// String reports the identifier's textual form, or "{invalid}" for the
// zero Handle.
func (h Handle) String() string {
	if h.rec == nil {
		return "{invalid}"
	}
	return h.rec.id.String()
}

// RefCount reports h's current local reference count. Exposed for tests
// and for cmd/gidsh's inspector; not part of the credit protocol itself.
func (h Handle) RefCount() int64 {
	if h.rec == nil {
		return 0
	}
	return h.rec.refcount.Load()
}
