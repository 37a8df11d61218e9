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

import "math/bits"

// HasCredits reports whether id's credit field is meaningful.
func (id Identifier) HasCredits() bool {
	return id.Msb&flagHasCredit != 0
}

// WasSplit reports whether id, or some ancestor it was derived from, has
// ever been duplicated across localities. Once set this is never
// cleared by any operation in this package.
func (id Identifier) WasSplit() bool {
	return id.Msb&flagWasSplit != 0
}

// Log2Credit returns the base-2 logarithm of id's current credit share.
// The result is meaningless unless HasCredits(id) is true.
func (id Identifier) Log2Credit() uint8 {
	return uint8((id.Msb & log2CreditMask) >> log2CreditShift)
}

// Credit returns id's current credit share, 1<<Log2Credit(id). The
// result is meaningless unless HasCredits(id) is true.
func (id Identifier) Credit() int64 {
	return int64(1) << id.Log2Credit()
}

// SetLog2Credit sets id's log2-credit field to k, which must fit in
// log2CreditBits.
func (id *Identifier) SetLog2Credit(k uint8) {
	if k > MaxLog2Credit {
		panic("gid: log2 credit exceeds field width")
	}
	id.Msb = (id.Msb &^ log2CreditMask) | (uint64(k) << log2CreditShift)
	id.Msb |= flagHasCredit
}

// SetSplitFlag marks id (and, transitively, every copy made from it
// hereafter) as having been split at some point.
func (id *Identifier) SetSplitFlag() {
	id.Msb |= flagWasSplit
}

// StripCredits clears the has-credit flag and zeroes the log2-credit
// field, leaving id a valid but credit-less identifier. Used by the
// managed-move-credit variant: the local copy becomes a no-op on drop.
func (id *Identifier) StripCredits() {
	id.Msb &^= flagHasCredit
	id.Msb &^= log2CreditMask
}

// FillCredit sets id's credit to the largest power of two <= n and
// reports how much credit was added relative to id's previous credit.
// n must be >= 1.
func FillCredit(id *Identifier, n int64) int64 {
	if n < 1 {
		panic("gid: FillCredit requires n >= 1")
	}
	before := int64(0)
	if id.HasCredits() {
		before = id.Credit()
	}
	log2 := uint8(bits.Len64(uint64(n)) - 1)
	if log2 > MaxLog2Credit {
		log2 = MaxLog2Credit
	}
	id.SetLog2Credit(log2)
	return id.Credit() - before
}
