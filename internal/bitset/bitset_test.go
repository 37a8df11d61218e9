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
package bitset

import (
	"sync"
	"testing"
)

func TestEmptySetIsAllResolved(t *testing.T) {
	var s Set
	if !s.AllResolved() {
		t.Fatal("empty set must report all resolved")
	}
}

func TestReserveMarksPendingUntilResolved(t *testing.T) {
	var s Set
	i := s.Reserve()
	if s.AllResolved() {
		t.Fatal("set with an unresolved slot must not report all resolved")
	}
	if s.IsResolved(i) {
		t.Fatal("freshly reserved slot must start pending")
	}
	s.MarkResolved(i)
	if !s.IsResolved(i) {
		t.Fatal("slot must be resolved after MarkResolved")
	}
	if !s.AllResolved() {
		t.Fatal("set must report all resolved once its only slot resolves")
	}
}

func TestMarkResolvedIsIdempotent(t *testing.T) {
	var s Set
	i := s.Reserve()
	s.MarkResolved(i)
	s.MarkResolved(i)
	if !s.AllResolved() {
		t.Fatal("double MarkResolved must not corrupt the resolved count")
	}
}

func TestMarkPendingReopensAResolvedSlot(t *testing.T) {
	var s Set
	i := s.Reserve()
	s.MarkResolved(i)
	s.MarkPending(i)
	if s.AllResolved() {
		t.Fatal("MarkPending must clear the resolved bit and count")
	}
}

func TestGrowsAcrossWordBoundary(t *testing.T) {
	var s Set
	const n = 200 // spans more than 3 uint64 words
	idx := make([]uint32, n)
	for k := 0; k < n; k++ {
		idx[k] = s.Reserve()
	}
	for k := 0; k < n; k++ {
		s.MarkResolved(idx[k])
	}
	if !s.AllResolved() {
		t.Fatal("all reserved slots across multiple words must resolve")
	}
	if s.Len() != n {
		t.Fatalf("Len() = %d, want %d", s.Len(), n)
	}
}

func TestConcurrentReserveAndResolve(t *testing.T) {
	var s Set
	const n = 500
	idxCh := make(chan uint32, n)
	var wg sync.WaitGroup
	for k := 0; k < n; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idxCh <- s.Reserve()
		}()
	}
	wg.Wait()
	close(idxCh)

	var wg2 sync.WaitGroup
	for i := range idxCh {
		i := i
		wg2.Add(1)
		go func() {
			defer wg2.Done()
			s.MarkResolved(i)
		}()
	}
	wg2.Wait()

	if !s.AllResolved() {
		t.Fatal("concurrent reserve/resolve must converge to all resolved")
	}
	if s.Len() != n {
		t.Fatalf("Len() = %d, want %d", s.Len(), n)
	}
}
