// Package web serves the HTTP and WebSocket front end: PDF uploads become
// queue jobs, job status streams to clients over a WebSocket, and finished
// outputs are downloadable individually or zipped. All processing happens in
// the queue's worker; handlers never block on document work.
package web

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"

	"github.com/wudi/pdfreduce/observability"
	"github.com/wudi/pdfreduce/queue"
)

//go:embed index.html
var indexHTML []byte

// Server is the web front end over a job queue.
type Server struct {
	queue     *queue.Queue
	log       observability.Logger
	uploadDir string
	outputDir string
	hub       *hub
	upgrader  websocket.Upgrader
}

// NewServer creates a server that stores uploads and outputs under workDir
// and broadcasts every queue update to connected WebSocket clients.
func NewServer(q *queue.Queue, log observability.Logger, workDir string) (*Server, error) {
	if log == nil {
		log = observability.NopLogger{}
	}
	uploadDir := filepath.Join(workDir, "uploads")
	outputDir := filepath.Join(workDir, "output")
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	s := &Server{
		queue:     q,
		log:       log,
		uploadDir: uploadDir,
		outputDir: outputDir,
		hub:       newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	q.OnUpdate(func(job queue.Job) {
		s.hub.broadcast(map[string]any{"type": "job_update", "job": job})
	})
	return s, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/jobs", s.handleJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleDeleteJob)
	mux.HandleFunc("POST /api/jobs/clear-completed", s.handleClearCompleted)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("GET /api/download/{id}", s.handleDownload)
	mux.HandleFunc("GET /api/download-csv/{id}", s.handleDownloadCSV)
	mux.HandleFunc("GET /api/download-all", s.handleDownloadAll)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

