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
package agas

import (
	"fmt"

	"github.com/launix-de/gidrc/gid"
)

// RefusingClient is a test double enforcing the property that the
// credit-split protocol never calls out to the address service while
// holding an identifier's embedded spinlock: doing so would let a
// remote round trip block every other goroutine racing to touch that
// same identifier. Every method checks id.IsLocked() first and panics
// if it is set, rather than silently proceeding like MockClient would.
//
// Next, if set, is delegated to after the lock check passes, so a test
// can compose RefusingClient with MockClient to get both the assertion
// and a working ledger.
type RefusingClient struct {
	Next Client
}

func (r *RefusingClient) checkUnlocked(id gid.Identifier, op string) {
	if id.IsLocked() {
		panic(fmt.Sprintf("agas: %s called on %s while its lock is held", op, id.String()))
	}
}

func (r *RefusingClient) Incref(id gid.Identifier, n int64) *Future[int64] {
	r.checkUnlocked(id, "incref")
	if r.Next != nil {
		return r.Next.Incref(id, n)
	}
	return Ready(n)
}

func (r *RefusingClient) Decref(id gid.Identifier, n int64) {
	r.checkUnlocked(id, "decref")
	if r.Next != nil {
		r.Next.Decref(id, n)
	}
}

func (r *RefusingClient) ResolveCached(id gid.Identifier) (Address, bool) {
	r.checkUnlocked(id, "resolve_cached")
	if r.Next != nil {
		return r.Next.ResolveCached(id)
	}
	return Address{}, false
}

func (r *RefusingClient) DestroyComponent(id gid.Identifier, addr Address) error {
	r.checkUnlocked(id, "destroy_component")
	if r.Next != nil {
		return r.Next.DestroyComponent(id, addr)
	}
	return nil
}

func (r *RefusingClient) Colocation(id gid.Identifier) (uint64, error) {
	r.checkUnlocked(id, "colocation")
	if r.Next != nil {
		return r.Next.Colocation(id)
	}
	return id.LocalityTag(), nil
}
