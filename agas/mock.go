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
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/launix-de/gidrc/gid"
)

// ledgerEntry is one row of MockClient's outstanding-credit ledger,
// keyed by the target's canonical hex string (gid.Identifier.
// TargetIdentity, not the raw bits) so the whole ledger can be kept in
// an ordered github.com/google/btree.BTreeG the way memcp's
// storage/index.go keeps its delta index ordered for cheap ascend-from
// scans - here that means a live-credit dump comes out in a stable,
// debuggable order instead of Go map iteration order. Keying on the
// target identity rather than the raw identifier matters because a
// split changes log2_credit and was_split without changing which
// component is being tracked.
type ledgerEntry struct {
	key    string
	id     gid.Identifier
	credit int64
}

// MockClient is an in-memory, non-durable reference implementation of
// Client. It is meant for tests and for cmd/gidsh, never for production:
// the real address service is out of this core's scope, and this core
// never persists state across a restart.
type MockClient struct {
	mu     sync.Mutex
	ledger *btree.BTreeG[ledgerEntry]

	cacheMu sync.RWMutex
	cache   map[gid.Identifier]Address // keyed by TargetIdentity()

	destroyMu sync.Mutex
	destroyed []gid.Identifier
	onDestroy func(id gid.Identifier, addr Address) error

	decrefMu  sync.Mutex
	decrefLog []DecrefCall

	unavailable atomic.Bool // simulates a shut-down address service
	log         *slog.Logger
}

// NewMockClient builds an empty MockClient. logger may be nil, in which
// case slog.Default() is used.
func NewMockClient(logger *slog.Logger) *MockClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockClient{
		ledger: btree.NewG(32, func(a, b ledgerEntry) bool { return a.key < b.key }),
		cache:  make(map[gid.Identifier]Address),
		log:    logger,
	}
}

// SetUnavailable flips whether the mock simulates a shut-down address
// service: once true, Incref resolves its future with ErrUnavailable and
// Decref merely logs.
func (m *MockClient) SetUnavailable(v bool) {
	m.unavailable.Store(v)
}

// Register makes id resolvable to addr via ResolveCached, as if the
// address service had already told this locality where id lives.
func (m *MockClient) Register(id gid.Identifier, addr Address) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	m.cache[id.TargetIdentity()] = addr
}

// OnDestroy installs a callback invoked synchronously by
// DestroyComponent, e.g. to let a test observe target teardown.
func (m *MockClient) OnDestroy(fn func(id gid.Identifier, addr Address) error) {
	m.destroyMu.Lock()
	defer m.destroyMu.Unlock()
	m.onDestroy = fn
}

// Destroyed returns every identifier DestroyComponent has been called
// with, in call order.
func (m *MockClient) Destroyed() []gid.Identifier {
	m.destroyMu.Lock()
	defer m.destroyMu.Unlock()
	out := make([]gid.Identifier, len(m.destroyed))
	copy(out, m.destroyed)
	return out
}

// LedgerCredit returns the ledger's current view of id's outstanding
// global credit, or 0 if the ledger has no entry (indistinguishable, by
// design, from "never incremented" - the real address service carries
// the same ambiguity.
func (m *MockClient) LedgerCredit(id gid.Identifier) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := id.TargetIdentity().String()
	item, ok := m.ledger.Get(ledgerEntry{key: key})
	if !ok {
		return 0
	}
	return item.credit
}

func (m *MockClient) Incref(id gid.Identifier, n int64) *Future[int64] {
	if m.unavailable.Load() {
		return Failed[int64](ErrUnavailable)
	}
	return Go(func() (int64, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		key := id.TargetIdentity().String()
		entry, _ := m.ledger.Get(ledgerEntry{key: key})
		entry.key = key
		entry.id = id
		entry.credit += n
		m.ledger.ReplaceOrInsert(entry)
		return entry.credit, nil
	})
}

// DecrefCall records one call to Decref, kept so tests can assert on
// call count and amount without the ledger's post-hoc zero-deletion
// hiding what actually happened.
type DecrefCall struct {
	ID gid.Identifier
	N  int64
}

// DecrefCalls returns every Decref call this mock has observed, in call
// order.
func (m *MockClient) DecrefCalls() []DecrefCall {
	m.decrefMu.Lock()
	defer m.decrefMu.Unlock()
	out := make([]DecrefCall, len(m.decrefLog))
	copy(out, m.decrefLog)
	return out
}

func (m *MockClient) Decref(id gid.Identifier, n int64) {
	m.decrefMu.Lock()
	m.decrefLog = append(m.decrefLog, DecrefCall{ID: id, N: n})
	m.decrefMu.Unlock()

	if m.unavailable.Load() {
		m.log.Error("agas: decref dropped, address service unavailable", "id", id.String(), "n", n)
		return
	}
	m.mu.Lock()
	key := id.TargetIdentity().String()
	entry, ok := m.ledger.Get(ledgerEntry{key: key})
	if !ok {
		entry = ledgerEntry{key: key, id: id}
	}
	entry.credit -= n
	if entry.credit <= 0 {
		m.ledger.Delete(ledgerEntry{key: key})
	} else {
		m.ledger.ReplaceOrInsert(entry)
	}
	m.mu.Unlock()
}

func (m *MockClient) ResolveCached(id gid.Identifier) (Address, bool) {
	m.cacheMu.RLock()
	defer m.cacheMu.RUnlock()
	addr, ok := m.cache[id.TargetIdentity()]
	return addr, ok
}

func (m *MockClient) DestroyComponent(id gid.Identifier, addr Address) error {
	m.destroyMu.Lock()
	m.destroyed = append(m.destroyed, id)
	fn := m.onDestroy
	m.destroyMu.Unlock()

	m.cacheMu.Lock()
	delete(m.cache, id.TargetIdentity())
	m.cacheMu.Unlock()

	if fn != nil {
		return fn(id, addr)
	}
	return nil
}

func (m *MockClient) Colocation(id gid.Identifier) (uint64, error) {
	// A purely local operation once the locality tag is embedded in the
	// identifier itself, since a locally-created or already-resolved
	// identifier needs no round trip to name its own locality.
	return id.LocalityTag(), nil
}
