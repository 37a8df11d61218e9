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
Package wire implements the two-phase serialization of handles onto a
parcel: a preprocessing pass that runs every handle's credit split (some
of which need a real address-service round trip) to completion before
anything touches the wire, and a save pass that turns each handle into
a fixed-size record once every split has resolved. Splitting up front
means the save pass itself never blocks and can run under whatever lock
protects the outgoing buffer.
*/
package wire
