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

import "errors"

// ErrUnavailable is returned (or a Future is resolved with it) when the
// address service cannot be reached because the runtime has already
// begun shutting down. Callers on the managed-deleter path treat this
// as "free locally, log, move on" rather than retrying.
var ErrUnavailable = errors.New("agas: address service unavailable, runtime is shutting down")

// ErrInvalidStatus signals an operation attempted at the wrong lifecycle
// phase: checkpointing a managed handle (handle.ErrCheckpointing wraps
// it), or destroying a component whose thread manager already stopped
// outside the one recoverable shutdown race.
var ErrInvalidStatus = errors.New("agas: invalid status for this operation")

// ErrUnknownIdentifier names an identifier with no ledger entry or
// resolve-cache entry. MockClient does not return it: ResolveCached
// reports a miss with false, LedgerCredit reports 0, and
// DestroyComponent accepts any identifier.
var ErrUnknownIdentifier = errors.New("agas: unknown identifier")
