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
gidsh is an interactive shell for minting, splitting and dropping
handles against an in-memory address service, so the credit protocol
can be poked at by hand instead of only through tests.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/launix-de/gidrc/agas"
	"github.com/launix-de/gidrc/gid"
	"github.com/launix-de/gidrc/handle"
)

const (
	newprompt  = "\033[32mgidsh>\033[0m "
	contprompt = "\033[32m...  \033[0m "
)

// shell holds every handle minted this session, addressable by a small
// integer slot so a terminal session doesn't have to type out 128-bit
// hex identifiers to refer back to something it just created.
type shell struct {
	env    *handle.Environment
	mock   *agas.MockClient
	slots  map[int]handle.Handle
	nextID int
}

func newShell() *shell {
	mock := agas.NewMockClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
	env := handle.NewEnvironment(mock)
	return &shell{env: env, mock: mock, slots: make(map[int]handle.Handle)}
}

func (s *shell) put(h handle.Handle) int {
	id := s.nextID
	s.nextID++
	s.slots[id] = h
	return id
}

func main() {
	fmt.Print(`gidsh - credit-based handle shell
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;

Type "help" for a list of commands, Ctrl-D or "quit" to leave.

`)

	l, err := readline.NewEx(&readline.Config{
		Prompt:            newprompt,
		HistoryFile:       ".gidsh-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	s := newShell()
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			panic(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Println("panic:", r, string(debug.Stack()))
				}
			}()
			s.dispatch(line)
		}()
	}
}

func (s *shell) dispatch(line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help":
		s.help()
	case "new":
		s.cmdNew(args)
	case "split":
		s.cmdSplit(args)
	case "move":
		s.cmdMove(args)
	case "copy":
		s.cmdCopy(args)
	case "drop":
		s.cmdDrop(args)
	case "list":
		s.cmdList()
	case "ledger":
		s.cmdLedger(args)
	default:
		fmt.Printf("unknown command %q, try \"help\"\n", cmd)
	}
}

func (s *shell) help() {
	fmt.Print(`commands:
  new <locality> <kind>   mint a managed handle at the given locality/kind
  split <slot>            run the credit-split protocol, print the departing gid
  move <slot>             move all credit out (managed_move_credit semantics)
  copy <slot>             local Copy(), no credit changes hands
  drop <slot>             Drop() the handle, running its deleter
  list                    list every live slot
  ledger <slot>           show the address service's outstanding credit for a slot
`)
}

func (s *shell) cmdNew(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: new <locality> <kind>")
		return
	}
	locality, err := strconv.ParseUint(args[0], 10, 40)
	if err != nil {
		fmt.Println("bad locality:", err)
		return
	}
	kind, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		fmt.Println("bad kind:", err)
		return
	}
	id := gid.New(locality, uint16(kind))
	gid.FillCredit(&id, s.env.Settings.InitialCredit)
	h, err := handle.Construct(s.env, id, handle.Managed)
	if err != nil {
		fmt.Println("construct:", err)
		return
	}
	slot := s.put(h)
	fmt.Printf("slot %d: %s\n", slot, h.String())
}

func (s *shell) resolve(args []string) (int, handle.Handle, bool) {
	if len(args) != 1 {
		fmt.Println("usage: <cmd> <slot>")
		return 0, handle.Handle{}, false
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("bad slot:", err)
		return 0, handle.Handle{}, false
	}
	h, ok := s.slots[slot]
	if !ok {
		fmt.Printf("no such slot %d\n", slot)
		return 0, handle.Handle{}, false
	}
	return slot, h, true
}

func (s *shell) cmdSplit(args []string) {
	_, h, ok := s.resolve(args)
	if !ok {
		return
	}
	gPrime, err := handle.SplitGID(context.Background(), h)
	if err != nil {
		fmt.Println("split:", err)
		return
	}
	fmt.Printf("departing gid: %s (credit %d)\n", gPrime.String(), gPrime.Credit())
	fmt.Printf("local gid now: %s (credit %d)\n", h.String(), h.Identifier().Credit())
}

func (s *shell) cmdMove(args []string) {
	_, h, ok := s.resolve(args)
	if !ok {
		return
	}
	departing := handle.MoveGID(h)
	fmt.Printf("departing gid: %s (credit %d)\n", departing.String(), departing.Credit())
	fmt.Printf("local gid now credit-less: %v\n", !h.Identifier().HasCredits())
}

func (s *shell) cmdCopy(args []string) {
	_, h, ok := s.resolve(args)
	if !ok {
		return
	}
	slot := s.put(h.Copy())
	fmt.Printf("slot %d: %s (refcount now %d)\n", slot, h.String(), h.RefCount())
}

func (s *shell) cmdDrop(args []string) {
	slot, h, ok := s.resolve(args)
	if !ok {
		return
	}
	h.Drop()
	delete(s.slots, slot)
	fmt.Printf("dropped slot %d\n", slot)
}

func (s *shell) cmdList() {
	if len(s.slots) == 0 {
		fmt.Println("(no live slots)")
		return
	}
	ids := make([]int, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		h := s.slots[id]
		fmt.Printf("%3d  %-8s refcount=%d  %s\n", id, h.ManagementType(), h.RefCount(), h.String())
	}
}

func (s *shell) cmdLedger(args []string) {
	_, h, ok := s.resolve(args)
	if !ok {
		return
	}
	fmt.Printf("outstanding credit at address service: %d\n", s.mock.LedgerCredit(h.Identifier()))
}
