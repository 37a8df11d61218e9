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

import "github.com/launix-de/gidrc/gid"

// Address is the resolved local address of a component: which locality
// it lives on, what kind of component it is, and an opaque local handle
// (a memory address, a slot index, whatever the runtime uses to find
// the object once its identifier is known).
type Address struct {
	Locality      uint64
	ComponentType uint16
	LVA           uint64 // local virtual address, opaque to this package
}

// Client is the typed façade this core consumes from the address
// service: incref, decref, resolve_cached and destroy_component.
type Client interface {
	// Incref asynchronously increases id's global credit by n, returning
	// the address service's acknowledged total. Must not be called while
	// id's embedded lock is held.
	Incref(id gid.Identifier, n int64) *Future[int64]

	// Decref fire-and-forgets a decrease of id's global credit by n.
	// Errors are never returned to the caller; implementations log them.
	Decref(id gid.Identifier, n int64)

	// ResolveCached performs a non-blocking cache probe for id's address.
	// The second return value is false if id is not in cache - this does
	// not mean id is dead, only that this call must not assume locality.
	ResolveCached(id gid.Identifier) (Address, bool)

	// DestroyComponent synchronously destroys the component named by id
	// at addr. Called only when the caller has independently established
	// that id was never split and addr is known-local.
	DestroyComponent(id gid.Identifier, addr Address) error

	// Colocation reports the locality tag a (possibly remote) identifier
	// is colocated with. For an identifier already resolvable in the
	// local cache this never needs a round trip.
	Colocation(id gid.Identifier) (localityTag uint64, err error)
}
