package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/oakmund/fleetboard/pkg/logger"
)

// StaticFileHandler serves the dashboard's static files, falling back
// to index.html for unknown paths so client-side routing works.
type StaticFileHandler struct {
	dir    string
	fs     http.Handler
	logger *logger.Logger
}

// NewStaticFileHandler creates a new static file handler
func NewStaticFileHandler(dir string, log *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		dir:    dir,
		fs:     http.FileServer(http.Dir(dir)),
		logger: log.Named("static"),
	}
}

func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, filepath.Clean(strings.TrimPrefix(r.URL.Path, "/")))

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		index := filepath.Join(h.dir, "index.html")
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
		return
	}

	h.fs.ServeHTTP(w, r)
}
