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
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/launix-de/gidrc/agas"
	"github.com/launix-de/gidrc/gid"
	"github.com/launix-de/gidrc/handle"
)

func main() {
	fmt.Print(`gidrc Copyright (C) 2024-2026  gidrc contributors
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;

`)

	repl := flag.Bool("repl", false, "print how to start the interactive shell instead of running the demo scenario")
	verbose := flag.Bool("v", false, "log every address-service call at debug level")
	flag.Parse()

	if *repl {
		fmt.Println("gidrc: run \"go run ./cmd/gidsh\" for the interactive shell")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	runDemoScenario(log)
}

// runDemoScenario mints a managed handle, hands a copy off across a
// split, and drops both copies, printing each handle's credit and, at
// the end, how many decref calls reached the address service - a
// compact end-to-end trace through construct, split and delete without
// needing two real localities.
func runDemoScenario(log *slog.Logger) {
	mock := agas.NewMockClient(log)
	env := handle.NewEnvironment(agas.NewLoggingClient(mock, log))
	env.Log = log

	id := gid.New(1, 42)
	gid.FillCredit(&id, env.Settings.InitialCredit)

	h, err := handle.Construct(env, id, handle.Managed)
	if err != nil {
		log.Error("construct failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("minted handle %s with credit %d\n", h.String(), h.Identifier().Credit())

	gPrime, err := handle.SplitGID(context.Background(), h)
	if err != nil {
		log.Error("split failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("split off departing gid %s with credit %d\n", gPrime.String(), gPrime.Credit())
	fmt.Printf("local handle now reads %s with credit %d\n", h.String(), h.Identifier().Credit())

	remote, err := handle.Construct(env, gPrime, handle.Managed)
	if err != nil {
		log.Error("construct failed", "error", err)
		os.Exit(1)
	}

	fmt.Println("dropping both handles...")
	h.Drop()
	remote.Drop()

	fmt.Printf("decref calls issued: %d\n", len(mock.DecrefCalls()))
	fmt.Println("done")
}
