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
Package handle implements the distributed, credit-bearing reference to a
component: the Handle type, its local reference count, its unmanaged
and managed deleters, and the credit-split protocol that runs when a handle is
duplicated across the wire.

The model is acyclic by construction. Cycles between handles are the
caller's responsibility - this package does not collect them and never
will; callers needing cycle-safety should hold a weak reference (a bare
gid.Identifier looked up through an Environment) instead of a Handle.
*/
package handle
