// Package api serves the task store and its change log over HTTP.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"task-tracker/pkg/eventlog"
	"task-tracker/pkg/task"
)

// Server is the HTTP API server.
type Server struct {
	store  task.Store
	events *eventlog.Bus
	mux    *http.ServeMux
}

// New creates a new Server. Mutations should go through a store that
// records into events (see eventlog.Recorder) for the change feed to fill.
func New(store task.Store, events *eventlog.Bus) *Server {
	s := &Server{
		store:  store,
		events: events,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	for _, k := range []kindRoutes{
		{
			path: "/tasks", kind: task.KindTask,
			list: s.store.ListTasks, get: s.store.GetTask,
			create: s.store.CreateTask, update: s.store.UpdateTask,
			remove: s.store.DeleteTask, clear: s.store.DeleteAllTasks,
		},
		{
			path: "/epics", kind: task.KindEpic,
			list: s.store.ListEpics, get: s.store.GetEpic,
			create: s.store.CreateEpic, update: s.store.UpdateEpic,
			remove: s.store.DeleteEpic, clear: s.store.DeleteAllEpics,
		},
		{
			path: "/subtasks", kind: task.KindSubtask,
			list: s.store.ListSubtasks, get: s.store.GetSubtask,
			create: s.store.CreateSubtask, update: s.store.UpdateSubtask,
			remove: s.store.DeleteSubtask, clear: s.store.DeleteAllSubtasks,
		},
	} {
		s.mux.HandleFunc("GET "+k.path, s.handleList(k))
		s.mux.HandleFunc("POST "+k.path, s.handleSave(k))
		s.mux.HandleFunc("DELETE "+k.path, s.handleClear(k))
		s.mux.HandleFunc("GET "+k.path+"/{id}", s.handleGet(k))
		s.mux.HandleFunc("DELETE "+k.path+"/{id}", s.handleDelete(k))
	}
	s.mux.HandleFunc("GET /epics/{id}/subtasks", s.handleEpicSubtasks)

	// Views
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /prioritized", s.handlePrioritized)

	// Change log
	s.mux.HandleFunc("GET /events", s.handleEventList)
	s.mux.HandleFunc("GET /events/stream", s.handleEventStream)
	s.mux.HandleFunc("GET /events/verify", s.handleEventVerify)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	epics, err := s.store.ListEpics(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	subtasks, err := s.store.ListSubtasks(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	prio, err := s.store.Prioritized(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	events, err := s.events.Count(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, 200, map[string]int{
		"tasks":       len(tasks),
		"epics":       len(epics),
		"subtasks":    len(subtasks),
		"scheduled":   len(prio),
		"events":      events,
		"subscribers": s.events.Subscribers(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
