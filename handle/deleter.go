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
	"log/slog"
	"runtime/debug"

	"github.com/launix-de/gidrc/agas"
)

// runDeleter dispatches rec's last-drop cleanup to the deleter matching
// its management type. A panic escaping either deleter is recovered and
// logged at error level rather than propagated - Drop must never throw,
// per the module's unhandled-exception-in-deleter error kind.
func runDeleter(rec *record) {
	logger := rec.logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handle: recovered panic in deleter",
				"id", rec.id.String(), "management", rec.mgmt.String(),
				"panic", r, "stack", string(debug.Stack()))
		}
	}()

	switch rec.mgmt {
	case Unmanaged:
		unmanagedDelete(rec)
	case Managed, ManagedMoveCredit:
		managedDelete(rec)
	}
}

func (rec *record) logger() *slog.Logger {
	if rec.env != nil && rec.env.Log != nil {
		return rec.env.Log
	}
	return slog.Default()
}

// unmanagedDelete frees the local record. An unmanaged handle never
// owned a share of the identifier's global refcount, so no network
// traffic happens here.
func unmanagedDelete(rec *record) {
	rec.logger().Debug("handle: dropped unmanaged handle", "id", rec.id.String())
}

// managedDelete implements the five-step decision tree for the managed
// and managed-move-credit deleters.
func managedDelete(rec *record) {
	logger := rec.logger()
	env := rec.env

	// Step 1: shutdown already in progress, address service unusable.
	if env == nil || env.ShuttingDown() {
		logger.Debug("handle: dropping managed handle during shutdown, freeing locally",
			"id", rec.id.String())
		return
	}

	// A handle that already lost its credit to a move (managed_move_credit
	// after serialization) is a no-op on drop; see split.go's MoveGID.
	if !rec.id.HasCredits() {
		return
	}

	split := rec.id.WasSplit()
	resolved, ok := env.Client.ResolveCached(rec.id)

	if split || !ok {
		credits := rec.id.Credit()
		if credits <= 0 {
			logger.Error("handle: managed handle with non-positive credit on drop",
				"id", rec.id.String())
			return
		}
		env.Client.Decref(rec.id, credits)
		return
	}

	// Local target, never split: destroy in-process.
	if err := env.Client.DestroyComponent(rec.id, resolved); err != nil {
		if errors.Is(err, agas.ErrInvalidStatus) && env.ShuttingDown() {
			logger.Debug("handle: destroy_component raced with shutdown, ignoring",
				"id", rec.id.String())
			return
		}
		logger.Error("handle: destroy_component failed",
			"id", rec.id.String(), "error", err)
	}
}
