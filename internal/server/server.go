// Package server exposes page extraction, merging and the section
// workspace over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-toolkit/internal/ai"
	"github.com/thywilljoshua/pdf-toolkit/internal/config"
	"github.com/thywilljoshua/pdf-toolkit/internal/pdf"
	"github.com/thywilljoshua/pdf-toolkit/internal/store"
	"github.com/thywilljoshua/pdf-toolkit/internal/workspace"
)

const previewRunes = 160

type Options struct {
	MaxUploadBytes int64
	PDF            pdf.Options
	Namer          ai.Namer
	Logger         *logrus.Logger
}

type Server struct {
	ws        *workspace.Workspace
	blobs     store.BlobStore
	namer     ai.Namer
	pdfOpts   pdf.Options
	maxUpload int64
	log       *logrus.Logger
	mux       *http.ServeMux
}

func New(ws *workspace.Workspace, blobs store.BlobStore, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Namer == nil {
		opts.Namer = ai.Noop{}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if opts.PDF.Logger == nil {
		opts.PDF.Logger = opts.Logger
	}
	s := &Server{
		ws:        ws,
		blobs:     blobs,
		namer:     opts.Namer,
		pdfOpts:   opts.PDF,
		maxUpload: opts.MaxUploadBytes,
		log:       opts.Logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/pdf/extract", s.handleExtract)
	s.mux.HandleFunc("POST /api/pdf/merge", s.handleMerge)

	s.mux.HandleFunc("GET /api/workspace", s.handleSnapshot)
	s.mux.HandleFunc("DELETE /api/workspace", s.handleClear)
	s.mux.HandleFunc("POST /api/workspace/documents", s.handleUpload)
	s.mux.HandleFunc("POST /api/workspace/export", s.handleExport)

	s.mux.HandleFunc("POST /api/workspace/sections/move", s.handleMoveSection)
	s.mux.HandleFunc("GET /api/workspace/sections/{id}", s.handleSection)
	s.mux.HandleFunc("PATCH /api/workspace/sections/{id}", s.handleRename)
	s.mux.HandleFunc("DELETE /api/workspace/sections/{id}", s.handleDeleteSection)
	s.mux.HandleFunc("POST /api/workspace/sections/{id}/split", s.handleSplit)
	s.mux.HandleFunc("POST /api/workspace/sections/{id}/merge", s.handleMergeSections)
	s.mux.HandleFunc("POST /api/workspace/sections/{id}/suggest-name", s.handleSuggestName)
	s.mux.HandleFunc("POST /api/workspace/sections/{id}/up", s.handleMoveSectionUp)
	s.mux.HandleFunc("POST /api/workspace/sections/{id}/down", s.handleMoveSectionDown)

	s.mux.HandleFunc("POST /api/workspace/pages/move", s.handleMovePage)
	s.mux.HandleFunc("GET /api/workspace/pages/{id}/pdf", s.handlePagePDF)
}

// Handler returns the mux wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"bytes":    rec.bytes,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
