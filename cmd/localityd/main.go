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
localityd is a two-locality demo: one process listens for a parcel of
handles over a WebSocket connection and loads each record back into an
identifier, the other mints a batch of managed handles, serializes them
through a wire.Archive and sends the compressed parcel across. Both
roles watch a locality table file and reload it on change, the way a
real deployment would refresh which host serves which locality tag
without a restart.
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"

	"github.com/launix-de/gidrc/agas"
	"github.com/launix-de/gidrc/gid"
	"github.com/launix-de/gidrc/handle"
	"github.com/launix-de/gidrc/wire"
)

func main() {
	fmt.Print(`localityd - two-locality parcel exchange demo
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;

`)

	role := flag.String("role", "server", "server (receive a parcel) or client (send one)")
	addr := flag.String("addr", ":8901", "listen address, server role")
	peer := flag.String("peer", "ws://127.0.0.1:8901/parcel", "peer URL, client role")
	localities := flag.String("localities", "localities.json", "locality table file, watched for changes")
	count := flag.Int("count", 8, "handles to mint and send, client role")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	watchLocalityTable(log, *localities)

	switch *role {
	case "server":
		runServer(log, *addr)
	case "client":
		runClient(log, *peer, *count)
	default:
		fmt.Fprintf(os.Stderr, "unknown -role %q, want server or client\n", *role)
		os.Exit(2)
	}
}

// localityTable is the shape a deployment's locality->address map would
// take on disk; localityd only reloads and logs it, since resolving an
// actual remote address is the address service's job, out of this
// core's scope.
type localityTable map[string]string

// watchLocalityTable loads localities once, then rewatches the file
// with fsnotify and reloads it on every write: read once, subscribe for
// changes, reread on event. A missing file is not fatal - a demo run
// may have no table to reload at all.
func watchLocalityTable(log *slog.Logger, path string) {
	reread := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		var table localityTable
		if err := json.Unmarshal(data, &table); err != nil {
			log.Warn("localities: malformed table", "path", path, "error", err)
			return
		}
		log.Info("localities: table (re)loaded", "path", path, "entries", len(table))
	}
	reread()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("localities: could not start watcher", "error", err)
		return
	}
	if err := watcher.Add(path); err != nil {
		// nothing to watch yet; the demo still runs against an empty table
		watcher.Close()
		return
	}
	go func() {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				time.Sleep(10 * time.Millisecond) // let the writer finish
				reread()
				watcher.Add(path) // editors rename-on-save, rewatch the new inode
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("localities: watch error", "error", err)
			}
		}
	}()
}

func runServer(log *slog.Logger, addr string) {
	upgrader := websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }

	http.HandleFunc("/parcel", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		for {
			messageType, msg, err := conn.ReadMessage()
			if err != nil {
				if _, ok := err.(*websocket.CloseError); ok {
					log.Info("peer closed the connection")
					return
				}
				log.Error("read failed", "error", err)
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			records, err := wire.DecompressRecords(msg)
			if err != nil {
				log.Error("decompress failed", "error", err)
				continue
			}
			for _, rec := range records {
				id, mgmt, err := wire.Load(rec.Marshal())
				if err != nil {
					log.Error("load failed", "error", err)
					continue
				}
				log.Info("received handle", "id", id.String(), "management", mgmt.String(), "credit", id.Credit())
			}
		}
	})

	log.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func runClient(log *slog.Logger, peer string, count int) {
	conn, _, err := websocket.DefaultDialer.Dial(peer, nil)
	if err != nil {
		log.Error("dial failed", "peer", peer, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	mock := agas.NewMockClient(log)
	env := handle.NewEnvironment(mock)

	handles := make([]handle.Handle, 0, count)
	for i := 0; i < count; i++ {
		id := gid.New(1, uint16(i%4))
		gid.FillCredit(&id, env.Settings.InitialCredit)
		h, err := handle.Construct(env, id, handle.Managed)
		if err != nil {
			log.Error("construct failed", "error", err)
			os.Exit(1)
		}
		handles = append(handles, h)
	}

	arc := wire.NewArchive(false)
	for _, h := range handles {
		if err := arc.Preprocess(h); err != nil {
			log.Error("preprocess failed", "error", err)
			os.Exit(1)
		}
	}
	if err := arc.Await(context.Background()); err != nil {
		log.Error("await failed", "error", err)
		os.Exit(1)
	}

	records := make([]wire.Record, 0, len(handles))
	for _, h := range handles {
		rec, err := arc.Save(h)
		if err != nil {
			log.Error("save failed", "error", err)
			os.Exit(1)
		}
		records = append(records, rec)
	}

	frame, err := wire.CompressRecords(records)
	if err != nil {
		log.Error("compress failed", "error", err)
		os.Exit(1)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		log.Error("send failed", "error", err)
		os.Exit(1)
	}
	log.Info("sent parcel", "handles", len(handles), "bytes", len(frame))

	for _, h := range handles {
		h.Drop()
	}
}
