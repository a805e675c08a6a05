package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"task-tracker/pkg/eventlog"
)

// keepAlive is how often an idle stream sends a comment line.
var keepAlive = 15 * time.Second

const defaultEventLimit = 50

// handleEventList returns the newest events, or with ?after=<id> the events
// that followed it in order.
func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryInt(r, "limit", defaultEventLimit)
	if limit < 1 {
		limit = defaultEventLimit
	}

	var (
		events []eventlog.Event
		err    error
	)
	if after := r.URL.Query().Get("after"); after != "" {
		events, err = s.events.Since(ctx, after, limit)
	} else {
		events, err = s.events.Recent(ctx, limit)
	}
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	writeJSON(w, 200, events)
}

func (s *Server) handleEventVerify(w http.ResponseWriter, r *http.Request) {
	if err := s.events.VerifyChain(r.Context()); err != nil {
		writeError(w, 500, "chain verification failed: "+err.Error())
		return
	}
	writeJSON(w, 200, map[string]string{"status": "ok", "message": "hash chain verified"})
}

// handleEventStream pushes new events as server-sent events until the
// client goes away.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, 500, "streaming not supported")
		return
	}

	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(200)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e := <-ch:
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
			flusher.Flush()
		}
	}
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
