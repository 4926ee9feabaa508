// Package devicetest provides an in-memory stand-in for the bridge's HTTP API.
package devicetest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/buckleypaul/dwpanel/internal/device"
)

// Server is a fake device. Fields may be changed between requests under Lock.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	Cfg         device.Configuration
	FileList    []string
	Snapshot    device.StatusSnapshot
	SD          device.SDStatus
	MonitorChan int

	// FailPaths maps a route path to an HTTP status to answer with instead.
	FailPaths map[string]int
	// Gate, when set, is received from before answering /api/status.
	Gate chan struct{}

	hits    map[string]int
	uploads []Upload
}

// Upload records one received upload.
type Upload struct {
	Name string
	Body []byte
}

// New starts a fake device with default configuration and no files.
func New() *Server {
	s := &Server{
		FailPaths:   map[string]int{},
		hits:        map[string]int{},
		MonitorChan: -1,
	}
	r := mux.NewRouter()
	r.Use(s.count)
	r.HandleFunc("/api/config", s.getConfig).Methods(http.MethodGet)
	r.HandleFunc("/api/config", s.postConfig).Methods(http.MethodPost)
	r.HandleFunc("/api/files", s.files).Methods(http.MethodGet)
	r.HandleFunc("/api/files/delete", s.deleteFile).Methods(http.MethodPost)
	r.HandleFunc("/api/files/upload", s.upload).Methods(http.MethodPost)
	r.HandleFunc("/api/serial/monitor", s.monitor).Methods(http.MethodPost)
	r.HandleFunc("/api/status", s.status).Methods(http.MethodGet)
	r.HandleFunc("/api/sd/status", s.sdStatus).Methods(http.MethodGet)
	s.Server = httptest.NewServer(r)
	return s
}

// Lock guards the exported fields.
func (s *Server) Lock()   { s.mu.Lock() }
func (s *Server) Unlock() { s.mu.Unlock() }

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Uploads returns the uploads received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		code := s.FailPaths[r.URL.Path]
		s.mu.Unlock()
		if code != 0 {
			w.WriteHeader(code)
			io.WriteString(w, "<html>boom</html>")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Cfg)
}

func (s *Server) postConfig(w http.ResponseWriter, r *http.Request) {
	var cfg device.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	s.mu.Lock()
	s.Cfg = cfg
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) files(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.FileList
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing file path"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.Cfg.Drives {
		if d == body.Path {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cannot delete: File is mounted in DRIVE " + strconv.Itoa(i)})
			return
		}
	}
	kept := s.FileList[:0]
	for _, f := range s.FileList {
		if f != body.Path {
			kept = append(kept, f)
		}
	}
	s.FileList = kept
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get(device.FilenameHeader)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing X-Filename header."})
		return
	}
	if !strings.HasSuffix(strings.ToLower(name), ".dsk") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only .dsk files are supported."})
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	path := "/sd/" + name
	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{Name: name, Body: data})
	s.FileList = append(s.FileList, path)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "path": path, "size": len(data)})
}

func (s *Server) monitor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Chan int `json:"chan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	s.mu.Lock()
	s.MonitorChan = body.Chan
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	gate := s.Gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.Snapshot)
}

func (s *Server) sdStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.SD)
}
