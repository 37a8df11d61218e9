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
package wire

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/launix-de/gidrc/agas"
	"github.com/launix-de/gidrc/gid"
	"github.com/launix-de/gidrc/handle"
	"github.com/launix-de/gidrc/internal/bitset"
)

// Archive collects the handles going into a single outgoing parcel. It
// runs every handle's credit split in a preprocessing pass (some of
// which need a real address-service round trip), waits for them all to
// resolve, and only then produces wire records - the save pass itself
// never blocks.
//
// One Archive is single-use: build it, Preprocess every handle going
// into the parcel, Await, then Save each one in the same order. Reusing
// an Archive across two unrelated parcels is not supported - its gid
// table would leak identifiers from the first parcel into the second's
// dedup decision.
type Archive struct {
	mu sync.Mutex

	// gidTable dedups repeated handles, keyed by target identity so a
	// handle's own in-place credit mutation across the split doesn't
	// fragment its entry: serializing the same handle twice into one
	// archive must only ever run the split protocol once and must
	// produce the same post-split identifier both times, so a
	// decref/incref pair issued for one copy is never double counted
	// against the other.
	gidTable map[gid.Identifier]gid.Identifier

	pending  *bitset.Set
	futures  map[uint32]*agas.Future[gid.Identifier]
	slotByID map[gid.Identifier]uint32

	checkpointing bool
}

// NewArchive builds an empty Archive. If checkpointing is true,
// Preprocess rejects every Managed or ManagedMoveCredit handle with
// ErrCheckpointing before it ever touches the address service -
// checkpointing a managed handle would durably persist a live credit
// obligation this core has no way to reconstitute after a restart.
func NewArchive(checkpointing bool) *Archive {
	return &Archive{
		gidTable:      make(map[gid.Identifier]gid.Identifier),
		pending:       &bitset.Set{},
		futures:       make(map[uint32]*agas.Future[gid.Identifier]),
		slotByID:      make(map[gid.Identifier]uint32),
		checkpointing: checkpointing,
	}
}

// Preprocess runs h's credit split to completion (attaching an
// in-flight future to the archive's await set if the split needs one)
// and records the result in the archive's gid table, keyed by h's
// target identity. Save later looks the result up by that same key.
//
// Unmanaged handles are a no-op: nothing about an unmanaged identifier
// changes when it crosses the wire.
func (a *Archive) Preprocess(h handle.Handle) error {
	if h.ManagementType() == handle.Unmanaged {
		return nil
	}
	if a.checkpointing {
		return fmt.Errorf("wire: preprocess managed handle: %w", handle.ErrCheckpointing)
	}

	// Keyed by target identity, not the raw identifier: a split mutates
	// h's own credit/flag bits in place, so the identifier Save later
	// reads back off the same handle is not byte-identical to the one
	// seen here, even though it names the same target.
	key := h.Identifier().TargetIdentity()

	// The dedup check must run before the credit check below. A
	// managed_move_credit handle preprocessed a second time in the same
	// archive has already lost its credit to the first call's MoveGID,
	// so if the credit check ran first it would look exactly like a
	// handle that arrived credit-less and overwrite the first call's
	// recorded (full-credit) result with a stale, credit-less one.
	// A split still in flight (Case B, not yet collected by Await) has a
	// slot but no gid table entry yet; it counts as already seen too.
	a.mu.Lock()
	_, done := a.gidTable[key]
	_, inFlight := a.slotByID[key]
	if done || inFlight {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	id := h.Identifier()
	if !id.HasCredits() {
		// A managed_move_credit handle whose credit already departed on
		// an earlier move: nothing left to split, record it as-is.
		a.mu.Lock()
		a.gidTable[key] = id
		a.mu.Unlock()
		return nil
	}

	var fut *agas.Future[gid.Identifier]
	if h.ManagementType() == handle.ManagedMoveCredit {
		fut = agas.Ready(handle.MoveGID(h))
	} else {
		fut = handle.SplitAsync(h)
	}

	slot := a.pending.Reserve()
	a.mu.Lock()
	a.futures[slot] = fut
	a.slotByID[key] = slot
	a.mu.Unlock()

	if fut.IsReady() {
		result, err := fut.Await(context.Background())
		if err != nil {
			return fmt.Errorf("wire: preprocess split: %w", err)
		}
		a.pending.MarkResolved(slot)
		a.mu.Lock()
		a.gidTable[key] = result
		a.mu.Unlock()
		return nil
	}
	return nil
}

// Await blocks until every future attached during Preprocess has
// resolved, or ctx is canceled first. A canceled Await leaves those
// futures running in the background - see agas.Future.Await - so
// Save must not be called until a later Await on the same Archive
// returns successfully.
func (a *Archive) Await(ctx context.Context) error {
	a.mu.Lock()
	pending := make(map[gid.Identifier]uint32, len(a.slotByID))
	for id, slot := range a.slotByID {
		if !a.pending.IsResolved(slot) {
			pending[id] = slot
		}
	}
	futures := make(map[gid.Identifier]*agas.Future[gid.Identifier], len(pending))
	for id, slot := range pending {
		futures[id] = a.futures[slot]
	}
	a.mu.Unlock()

	for id, fut := range futures {
		result, err := fut.Await(ctx)
		if err != nil {
			return fmt.Errorf("wire: await split for %s: %w", id.String(), err)
		}
		slot := pending[id]
		a.pending.MarkResolved(slot)
		a.mu.Lock()
		a.gidTable[id] = result
		a.mu.Unlock()
	}
	return nil
}

// ErrNotPreprocessed is returned by Save when called for a handle that
// was never passed to Preprocess on the same archive, or whose split is
// still pending.
var ErrNotPreprocessed = errors.New("wire: handle was not preprocessed on this archive")

// Save produces h's wire record. Preprocess (and, if it attached a
// future, a successful Await) must have already run for h on this same
// archive; Save itself never blocks and never touches the address
// service.
func (a *Archive) Save(h handle.Handle) (Record, error) {
	if h.ManagementType() == handle.Unmanaged {
		out := h.Identifier().StripLock()
		return Record{MSB: out.Msb, LSB: out.Lsb, Management: managementUnmanaged}, nil
	}

	key := h.Identifier().TargetIdentity()
	a.mu.Lock()
	result, ok := a.gidTable[key]
	if slot, has := a.slotByID[key]; has && !a.pending.IsResolved(slot) {
		ok = false
	}
	a.mu.Unlock()
	if !ok {
		return Record{}, fmt.Errorf("wire: save %s: %w", h.Identifier().String(), ErrNotPreprocessed)
	}

	out := result.StripLock()
	return Record{MSB: out.Msb, LSB: out.Lsb, Management: managementManaged}, nil
}
