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
package gid

import (
	"runtime"
	"sync/atomic"
)

// Lock, Unlock and TryLock implement a single-bit spinlock embedded in
// Msb, so *Identifier satisfies sync.Locker. This avoids any global
// table keyed by identifier - the only cost is one reserved bit, which
// identifiers already had plenty of room for.
//
// The lock must only ever be held for O(1) wall time: no call in this
// module blocks while holding it.

// Lock spins until it acquires id's embedded lock bit.
func (id *Identifier) Lock() {
	spins := 0
	for {
		old := atomic.LoadUint64(&id.Msb)
		if old&flagIsLocked == 0 {
			if atomic.CompareAndSwapUint64(&id.Msb, old, old|flagIsLocked) {
				return
			}
		}
		spins++
		if spins > 64 {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock attempts to acquire id's embedded lock bit without spinning,
// reporting whether it succeeded.
func (id *Identifier) TryLock() bool {
	old := atomic.LoadUint64(&id.Msb)
	if old&flagIsLocked != 0 {
		return false
	}
	return atomic.CompareAndSwapUint64(&id.Msb, old, old|flagIsLocked)
}

// Unlock releases id's embedded lock bit. Unlock on an unlocked
// identifier is a programmer error, same as sync.Mutex.
func (id *Identifier) Unlock() {
	for {
		old := atomic.LoadUint64(&id.Msb)
		if old&flagIsLocked == 0 {
			panic("gid: Unlock of unlocked identifier")
		}
		if atomic.CompareAndSwapUint64(&id.Msb, old, old&^flagIsLocked) {
			return
		}
	}
}

// IsLocked reports whether id's embedded lock bit is currently set. It
// exists to let a test double refuse address-service calls made while a
// lock is held; production code has no business polling this.
func (id *Identifier) IsLocked() bool {
	return atomic.LoadUint64(&id.Msb)&flagIsLocked != 0
}
