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

/*
Package gid implements the 128-bit raw identifier that backs every
distributed handle: two uint64 halves, a locality tag, a component-kind
tag, and a small set of internal flag bits (a spinlock, a has-credit
flag, a was-split flag, and a base-2 logarithm of the identifier's
current credit share).

Credit halves on every split, so it is stored as its own log2 rather
than as a raw count - a split is then a decrement instead of a
division. An identifier's msb packs, from the high bit down:

	bit 63       was_split
	bit 62       has_credit
	bit 61       is_locked
	bits 56-60   log2_credit (5 bits, 0..31)
	bits 40-55   component-kind tag (16 bits)
	bits 0-39    locality tag (40 bits)

The lsb carries the remaining 64 bits of object identity. Arithmetic
(Add/Sub) treats an Identifier as a 128-bit unsigned integer while
preserving the msb's internal flag window (bits 56-63) from the left
operand - this is what lets related identifiers be derived from a base
without disturbing its credit bookkeeping.

This package has no notion of cycles between identifiers, and none is
planned: a distributed reference count is fundamentally acyclic, and
breaking cycles is left to callers.
*/
package gid
