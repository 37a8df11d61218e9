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
Package agas defines the typed façade this module consumes from the
address service: incref, decref, resolve_cached and destroy_component.
The address service itself - its wire protocol, its distribution across
localities, its durable storage - is an external collaborator; this
package only speaks the four calls the credit protocol needs, plus a
couple of small reference implementations used by tests and the demo
tools in cmd/.

Nothing here persists across a process restart, in keeping with the
core's "Persisted state: None" contract.
*/
package agas
