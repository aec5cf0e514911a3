package web

import (
	"archive/zip"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/wudi/pdfreduce/observability"
	"github.com/wudi/pdfreduce/queue"
	"github.com/wudi/pdfreduce/reduce"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func formInt(r *http.Request, key string, def int) int {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func stemOf(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleUpload receives one PDF with its processing options and registers a
// pending job. Processing starts only when /api/process is called.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF files are allowed")
		return
	}

	opts := reduce.Options{
		Dpi:           formInt(r, "dpi", 150),
		Quality:       formInt(r, "quality", 80),
		Grayscale:     parseBool(r.FormValue("grayscale")),
		RemoveImages:  parseBool(r.FormValue("remove_images")),
		Aggressive:    parseBool(r.FormValue("aggressive")),
		StripMetadata: parseBool(r.FormValue("strip_metadata")),
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := queue.ModeReduce
	if r.FormValue("mode") == string(queue.ModeExtract) {
		mode = queue.ModeExtract
	}

	uid := uuid.NewString()
	inputPath := filepath.Join(s.uploadDir, uid+"_"+filename)
	dst, err := os.Create(inputPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(inputPath)
		writeError(w, http.StatusInternalServerError, "storing upload failed")
		return
	}
	dst.Close()

	spec := queue.Spec{
		Filename:   filename,
		InputPath:  inputPath,
		Mode:       mode,
		ExtractCSV: parseBool(r.FormValue("extract_csv")),
		Options:    opts,
	}
	if mode == queue.ModeExtract {
		spec.OutputPath = filepath.Join(s.outputDir, uid+"_"+stemOf(filename)+".txt")
		spec.CSVDir = filepath.Join(s.outputDir, uid+"_tables")
	} else {
		spec.OutputPath = filepath.Join(s.outputDir, uid+"_"+stemOf(filename)+"_reduced.pdf")
	}

	job := s.queue.Add(spec)
	s.log.Info("upload accepted",
		observability.String("job", job.ID),
		observability.String("filename", filename),
		observability.Int64("size", job.OriginalSize),
	)
	writeJSON(w, http.StatusOK, map[string]any{"job_id": job.ID, "job": job})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.queue.Jobs()})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.queue.Job(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	ok := s.queue.Remove(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]any{"success": ok})
}

func (s *Server) handleClearCompleted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cleared": s.queue.ClearCompleted()})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"queued": s.queue.StartProcessing()})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.queue.Job(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		writeError(w, http.StatusNotFound, "output file not found")
		return
	}

	var name, contentType string
	if job.Mode == queue.ModeExtract {
		name = stemOf(job.Filename) + ".txt"
		contentType = "text/plain; charset=utf-8"
	} else {
		name = stemOf(job.Filename) + "_reduced.pdf"
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, job.OutputPath)
}

// handleDownloadCSV zips the job's extracted table CSVs.
func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	job, ok := s.queue.Job(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	paths, _ := filepath.Glob(filepath.Join(job.CSVDir, "*.csv"))
	if job.CSVDir == "" || len(paths) == 0 {
		writeError(w, http.StatusNotFound, "no CSV files available")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+stemOf(job.Filename)+`_tables.zip"`)
	zw := zip.NewWriter(w)
	defer zw.Close()
	for _, path := range paths {
		addZipFile(zw, path, filepath.Base(path))
	}
}

// handleDownloadAll zips every completed job's output.
func (s *Server) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
	var completed []queue.Job
	for _, job := range s.queue.Jobs() {
		if job.Status != queue.StatusCompleted {
			continue
		}
		if _, err := os.Stat(job.OutputPath); err != nil {
			continue
		}
		completed = append(completed, job)
	}
	if len(completed) == 0 {
		writeError(w, http.StatusNotFound, "no completed files to download")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="processed_files.zip"`)
	zw := zip.NewWriter(w)
	defer zw.Close()
	for _, job := range completed {
		name := stemOf(job.Filename) + "_reduced.pdf"
		if job.Mode == queue.ModeExtract {
			name = stemOf(job.Filename) + ".txt"
		}
		addZipFile(zw, job.OutputPath, name)
	}
}

func addZipFile(zw *zip.Writer, path, name string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	entry, err := zw.Create(name)
	if err != nil {
		return
	}
	io.Copy(entry, f)
}

// handleWS upgrades the connection, sends the current job list, and keeps
// the client registered for broadcasts until it disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	if err := s.hub.send(conn, map[string]any{"type": "initial_jobs", "jobs": s.queue.Jobs()}); err != nil {
		return
	}
	for {
		// Client messages are not part of the protocol; the read loop only
		// detects disconnects.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
