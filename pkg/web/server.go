package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/modcycle/modcycle/pkg/graph"
	"github.com/modcycle/modcycle/pkg/logging"
	"github.com/modcycle/modcycle/pkg/module"
	"github.com/modcycle/modcycle/pkg/pubsub"
)

// GraphNode represents a module in the exported graph
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// GraphEdge represents a dependency in the exported graph
type GraphEdge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Specifier string `json:"specifier"`
	ViaBarrel bool   `json:"viaBarrel"`
}

// GraphData holds the module graph for visualization
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Server exposes analysis results over HTTP: JSON endpoints for the current
// result and graph, and SSE subscriptions for live updates in watch mode.
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu     sync.RWMutex
	result *module.Result
	graph  *GraphData
}

// NewServer creates a new web server
func NewServer() *Server {
	s := &Server{
		router:    mux.NewRouter(),
		publisher: pubsub.NewSSEPublisher(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")
	s.router.HandleFunc("/api/result", s.handleResult).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
}

// SetResult stores the latest analysis result and publishes it to subscribers
func (s *Server) SetResult(result *module.Result) {
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	if err := s.publisher.Publish(pubsub.TopicResult, "ready", result); err != nil {
		logging.Warn("failed to publish result", "error", err)
	}
}

// SetGraph stores the module graph in its exported form
func (s *Server) SetGraph(g *graph.ModuleGraph) {
	data := &GraphData{
		Nodes: make([]GraphNode, 0, g.Len()),
		Edges: make([]GraphEdge, 0),
	}

	for _, id := range g.Modules() {
		data.Nodes = append(data.Nodes, GraphNode{ID: id, Label: id})
	}
	for _, e := range g.Edges() {
		data.Edges = append(data.Edges, GraphEdge{
			Source:    e.From,
			Target:    e.To,
			Specifier: e.Specifier,
			ViaBarrel: e.ViaBarrel,
		})
	}

	s.mu.Lock()
	s.graph = data
	s.mu.Unlock()
}

// PublishStatus publishes an analysis progress event
func (s *Server) PublishStatus(state, message string, modules, cycles int) {
	status := pubsub.AnalysisStatus{
		State:   state,
		Message: message,
		Modules: modules,
		Cycles:  cycles,
	}
	if err := s.publisher.Publish(pubsub.TopicStatus, state, status); err != nil {
		logging.Warn("failed to publish status", "error", err)
	}
}

// Close shuts down the publisher, ending every subscriber stream
func (s *Server) Close() error {
	return s.publisher.Close()
}

// Start runs the HTTP server; it blocks until the listener fails
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	result := s.result
	s.mu.RUnlock()

	if result == nil {
		http.Error(w, "analysis has not completed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := s.graph
	s.mu.RUnlock()

	if data == nil {
		http.Error(w, "analysis has not completed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, data)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicStatus && topic != pubsub.TopicResult {
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	// Subscribe before any stream bytes go out, so a failure can still be a
	// clean error response
	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = sub.Close() }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Establish the stream before the first event arrives
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.ErrorContext(r.Context(), "error writing SSE event", "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}
