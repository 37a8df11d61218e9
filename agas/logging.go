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

import (
	"context"
	"log/slog"

	"github.com/launix-de/gidrc/gid"
)

// LoggingClient wraps a Client and logs every call at debug level
// through log/slog, the way memcp's storage layer wraps its proxies with
// logging rather than sprinkling log calls through the protocol code
// itself. Errors are logged at warn level in addition to being returned.
type LoggingClient struct {
	Next Client
	Log  *slog.Logger
}

// NewLoggingClient wraps next. If logger is nil, slog.Default() is used.
func NewLoggingClient(next Client, logger *slog.Logger) *LoggingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingClient{Next: next, Log: logger}
}

func (l *LoggingClient) Incref(id gid.Identifier, n int64) *Future[int64] {
	l.Log.Debug("agas: incref", "id", id.String(), "n", n)
	f := l.Next.Incref(id, n)
	return Go(func() (int64, error) {
		total, err := f.Await(context.Background())
		if err != nil {
			l.Log.Warn("agas: incref failed", "id", id.String(), "n", n, "error", err)
		} else {
			l.Log.Debug("agas: incref acknowledged", "id", id.String(), "total", total)
		}
		return total, err
	})
}

func (l *LoggingClient) Decref(id gid.Identifier, n int64) {
	l.Log.Debug("agas: decref", "id", id.String(), "n", n)
	l.Next.Decref(id, n)
}

func (l *LoggingClient) ResolveCached(id gid.Identifier) (Address, bool) {
	addr, ok := l.Next.ResolveCached(id)
	l.Log.Debug("agas: resolve_cached", "id", id.String(), "hit", ok)
	return addr, ok
}

func (l *LoggingClient) DestroyComponent(id gid.Identifier, addr Address) error {
	l.Log.Debug("agas: destroy_component", "id", id.String(), "locality", addr.Locality)
	err := l.Next.DestroyComponent(id, addr)
	if err != nil {
		l.Log.Warn("agas: destroy_component failed", "id", id.String(), "error", err)
	}
	return err
}

func (l *LoggingClient) Colocation(id gid.Identifier) (uint64, error) {
	tag, err := l.Next.Colocation(id)
	l.Log.Debug("agas: colocation", "id", id.String(), "locality", tag, "error", err)
	return tag, err
}
