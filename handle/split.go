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
	"context"

	"github.com/launix-de/gidrc/agas"
	"github.com/launix-de/gidrc/gid"
)

// SplitGID runs the credit-split protocol on h's identifier and returns
// the new identifier to hand off to a recipient (typically into a
// serialized message). h's own identifier is updated in place so the
// conservation law keeps holding. This is the synchronous convenience
// entry point; wire.Archive's preprocessing pass uses SplitAsync
// directly so it can attach the in-flight future to its await set
// instead of blocking the caller.
func SplitGID(ctx context.Context, h Handle) (gid.Identifier, error) {
	fut := SplitAsync(h)
	return fut.Await(ctx)
}

// SplitAsync starts the credit-split protocol and returns a future for
// the resulting identifier. For cases A and C the future is already
// resolved by the time this returns - only case B (credit exhaustion)
// does real asynchronous work.
func SplitAsync(h Handle) *agas.Future[gid.Identifier] {
	if h.rec == nil {
		return agas.Ready(gid.Invalid)
	}
	rec := h.rec

	id := &rec.id
	id.Lock()

	if !id.HasCredits() {
		// Case C: nothing to split, caller opted out of credit tracking.
		id.Unlock()
		return agas.Ready(rec.id)
	}

	k := id.Log2Credit()
	if k > 1 {
		return agas.Ready(splitCaseA(rec))
	}

	// Case B: k == 1, exhaustion. Mark was_split and release the lock
	// before doing anything that could block - holding the lock across a
	// call to the address service is forbidden.
	id.SetSplitFlag()
	id.Unlock()
	return splitCaseB(rec)
}

// splitCaseA implements the fast local-only halving. Caller must hold
// rec.id's lock; splitCaseA releases it before returning.
func splitCaseA(rec *record) gid.Identifier {
	id := &rec.id
	k := id.Log2Credit()

	id.SetLog2Credit(k - 1)
	id.SetSplitFlag()

	gPrime := rec.id
	gPrime.SetLog2Credit(k - 1)
	gPrime.SetSplitFlag()
	gPrime = gPrime.StripLock()

	id.Unlock()
	return gPrime
}

// splitCaseB implements the exhaustion path: a synchronous replenish
// request to the address service, followed by a post-increment
// reconciliation that restores the record to a full credit share.
// Multiple goroutines that arrive here concurrently for the same record
// share exactly one incref call - see record.sharedReplenish - and only
// the goroutine that actually issued it performs the reconciliation.
// Every other goroutine waits for that shared outcome and then retries
// the split from scratch, which lands on Case A against the now
// replenished credit rather than claiming a second share of it. Without
// this, every racing goroutine would independently reconcile against
// the same single incref and the conservation law would not hold.
func splitCaseB(rec *record) *agas.Future[gid.Identifier] {
	fut, isIssuer := rec.sharedReplenish()
	if isIssuer {
		return fut
	}
	return agas.Go(func() (gid.Identifier, error) {
		if _, err := fut.Await(context.Background()); err != nil {
			return gid.Invalid, err
		}
		return SplitAsync(Handle{rec: rec}).Await(context.Background())
	})
}

// sharedReplenish returns the in-flight replenish future for rec,
// launching one if none is currently outstanding, along with whether
// the caller is the goroutine that launched it. The returned future
// covers the entire incref-then-reconcile sequence, not just the
// network call, so a follower that waits on it is guaranteed the
// issuer's reconciliation has already landed before it retries.
func (rec *record) sharedReplenish() (*agas.Future[gid.Identifier], bool) {
	rec.replenishMu.Lock()
	if rec.replenishFuture != nil {
		fut := rec.replenishFuture
		rec.replenishMu.Unlock()
		return fut, false
	}

	c0 := rec.env.Settings.InitialCredit
	snapshot := rec.id.StripLock()
	increfFut := rec.env.Client.Incref(snapshot, 2*(c0-1))

	fut := agas.Go(func() (gid.Identifier, error) {
		if _, err := increfFut.Await(context.Background()); err != nil {
			rec.logger().Error("handle: incref for split failed, split credit leaked",
				"id", snapshot.String(), "error", err)
			return gid.Invalid, err
		}
		return reconcileAfterReplenish(rec)
	})
	rec.replenishFuture = fut
	rec.replenishMu.Unlock()

	go func() {
		fut.Await(context.Background())
		rec.replenishMu.Lock()
		if rec.replenishFuture == fut {
			rec.replenishFuture = nil
		}
		rec.replenishMu.Unlock()
	}()

	return fut, true
}

// reconcileAfterReplenish performs the "post-increment reconciliation"
// step of the exhaustion case, under rec.id's lock. It runs at most once
// per replenish window - see sharedReplenish - so the record's credit is
// always found at the exhaustion level (log2_credit == 1) it was at when
// the incref was issued, and filling it to a full share never overdraws
// the ledger.
func reconcileAfterReplenish(rec *record) (gid.Identifier, error) {
	c0 := rec.env.Settings.InitialCredit
	log2C0 := rec.env.Settings.log2InitialCredit()

	id := &rec.id
	id.Lock()

	gid.FillCredit(id, c0)

	gPrime := rec.id
	gPrime.SetLog2Credit(log2C0)
	gPrime.SetSplitFlag()
	gPrime = gPrime.StripLock()

	id.Unlock()

	return gPrime, nil
}

// MoveGID implements the managed_move_credit variant: rather than
// halving, it transfers all remaining credit to the departing copy and
// leaves h's own identifier credit-less. The local handle becomes a
// no-op on drop (see deleter.go's HasCredits guard).
func MoveGID(h Handle) gid.Identifier {
	if h.rec == nil {
		return gid.Invalid
	}
	id := &h.rec.id
	id.Lock()
	defer id.Unlock()

	departing := id.StripLock()
	id.StripCredits()
	return departing
}
