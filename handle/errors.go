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
	"errors"
	"fmt"

	"github.com/launix-de/gidrc/agas"
)

// ErrBadParameter is returned by Construct for a management value outside
// {Unmanaged, Managed, ManagedMoveCredit}. Identifier arithmetic reports
// conflicting flag bits with gid.ErrConflictingFlags instead.
var ErrBadParameter = errors.New("handle: bad parameter")

// ErrCheckpointing is returned by Archive.Preprocess (wire package) when
// a managed handle is fed into an archive marked as checkpointing;
// declared here because it is a property of what a managed handle
// permits, not of the archive's wire format. It wraps
// agas.ErrInvalidStatus, so errors.Is matches either sentinel.
var ErrCheckpointing = fmt.Errorf("handle: managed handles cannot be checkpointed: %w", agas.ErrInvalidStatus)
