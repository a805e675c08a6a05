package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"task-tracker/pkg/task"
)

const maxBody = 1 << 20

// kindRoutes binds one entity kind's store methods to its URL prefix.
type kindRoutes struct {
	path   string
	kind   task.Kind
	list   func(context.Context) ([]task.Task, error)
	get    func(context.Context, int) (*task.Task, error)
	create func(context.Context, *task.Task) (*task.Task, error)
	update func(context.Context, *task.Task) (*task.Task, error)
	remove func(context.Context, int) (bool, error)
	clear  func(context.Context) error
}

func (s *Server) handleList(k kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := k.list(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, 200, ToJSONList(ts))
	}
}

func (s *Server) handleGet(k kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		t, err := k.get(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if t == nil {
			writeError(w, 404, fmt.Sprintf("%s %d not found", k.kind, id))
			return
		}
		writeJSON(w, 200, ToJSON(t))
	}
}

// handleSave creates when the body has no id and updates otherwise.
func (s *Server) handleSave(k kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeTask(w, r)
		if !ok {
			return
		}

		if in.ID == 0 {
			out, err := k.create(r.Context(), in)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if out == nil {
				writeError(w, 400, fmt.Sprintf("epic %d not found", in.EpicID))
				return
			}
			writeJSON(w, 201, ToJSON(out))
			return
		}

		out, err := k.update(r.Context(), in)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if out == nil {
			writeError(w, 404, fmt.Sprintf("%s %d not found", k.kind, in.ID))
			return
		}
		writeJSON(w, 200, ToJSON(out))
	}
}

func (s *Server) handleDelete(k kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		found, err := k.remove(r.Context(), id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if !found {
			writeError(w, 404, fmt.Sprintf("%s %d not found", k.kind, id))
			return
		}
		writeJSON(w, 200, map[string]int{"deleted": id})
	}
}

func (s *Server) handleClear(k kindRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := k.clear(r.Context()); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, 200, map[string]string{"deleted": "all"})
	}
}

func (s *Server) handleEpicSubtasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	epic, err := s.store.GetEpic(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if epic == nil {
		writeError(w, 404, fmt.Sprintf("%s %d not found", task.KindEpic, id))
		return
	}
	subs, err := s.store.SubtasksByEpic(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, ToJSONList(subs))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.History(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, ToJSONList(ts))
}

func (s *Server) handlePrioritized(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.Prioritized(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, ToJSONList(ts))
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, 400, fmt.Sprintf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}

func decodeTask(w http.ResponseWriter, r *http.Request) (*task.Task, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, 400, "read body: "+err.Error())
		return nil, false
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		writeError(w, 400, "request body is required")
		return nil, false
	}
	var d TaskJSON
	if err := json.Unmarshal(body, &d); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return nil, false
	}
	t, err := d.Task()
	if err != nil {
		writeError(w, 400, err.Error())
		return nil, false
	}
	return t, true
}

// writeStoreError maps store errors to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrTimeConflict):
		writeError(w, 406, err.Error())
	case errors.Is(err, task.ErrDuplicateID):
		writeError(w, 409, err.Error())
	case errors.Is(err, task.ErrInvalid):
		writeError(w, 400, err.Error())
	default:
		log.Printf("api: %v", err)
		writeError(w, 500, err.Error())
	}
}
