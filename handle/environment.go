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
	"log/slog"
	"math/bits"
	"sync/atomic"

	"github.com/dc0d/onexit"
	"github.com/launix-de/gidrc/agas"
)

// Settings configures the credit protocol the way storage.SettingsT
// configures memcp's storage engine: a plain struct whose defaults live
// in DefaultSettings, which NewEnvironment applies. No cmd/ main package
// reads Settings from a file; they all run with DefaultSettings.
type Settings struct {
	// InitialCredit is C0, the credit share a freshly constructed
	// managed handle starts with. Must be a power of two.
	InitialCredit int64
	// LogCreditFieldWidth mirrors gid.MaxLog2Credit. Nothing in the
	// split protocol reads it: Case B always refills the record to
	// InitialCredit and never hands overflow back with a decref.
	LogCreditFieldWidth uint8
}

// DefaultSettings gives every freshly constructed managed handle a
// generous starting share: C0 = 65536.
var DefaultSettings = Settings{
	InitialCredit:       1 << 16,
	LogCreditFieldWidth: 31,
}

// log2InitialCredit returns log2(s.InitialCredit), assuming it is a
// power of two. Nothing in this package checks that: for any other value
// the result is the log2 of the largest power of two below it.
func (s Settings) log2InitialCredit() uint8 {
	return uint8(bits.Len64(uint64(s.InitialCredit)) - 1)
}

// Environment is the injected capability construct/copy/drop/split
// consult instead of a package-level runtime singleton. Every test
// builds its own Environment; nothing here is global state.
type Environment struct {
	Client   agas.Client
	Settings Settings
	Log      *slog.Logger

	shuttingDown atomic.Bool
}

// NewEnvironment builds an Environment around client, applying
// DefaultSettings. Set the Settings field directly to override before
// constructing any handle.
func NewEnvironment(client agas.Client) *Environment {
	return &Environment{
		Client:   client,
		Settings: DefaultSettings,
		Log:      slog.Default(),
	}
}

// RegisterShutdownHook arms env so that ShuttingDown() reports true once
// the process begins exiting, using the same github.com/dc0d/onexit hook
// memcp's storage.InitSettings registers to flush its trace file on
// process exit.
func (env *Environment) RegisterShutdownHook() {
	onexit.Register(func() { env.shuttingDown.Store(true) })
}

// Shutdown marks env as shutting down. Exposed directly (in addition to
// RegisterShutdownHook) so tests can simulate a shutdown race without an
// actual process exit.
func (env *Environment) Shutdown() {
	env.shuttingDown.Store(true)
}

// ShuttingDown reports whether the runtime has begun shutting down -
// once true, the managed deleter degrades to a local free instead of
// contacting the address service.
func (env *Environment) ShuttingDown() bool {
	return env.shuttingDown.Load()
}
