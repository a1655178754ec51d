// Package media serves static binary files from the public directory.
// These paths bypass generation entirely.
package media

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"genweb/internal/logs"
	"genweb/internal/metrics"
)

var mimeTypes = map[string]string{
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".bmp":   "image/bmp",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".ogg":   "audio/ogg",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".pdf":   "application/pdf",
}

// IsMedia reports whether p names a file served as-is.
func IsMedia(p string) bool {
	_, ok := mimeTypes[strings.ToLower(path.Ext(p))]
	return ok
}

// MIMEType returns the Content-Type for p.
func MIMEType(p string) string {
	ext := strings.ToLower(path.Ext(p))
	if t, ok := mimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Server streams media files rooted at a directory.
type Server struct {
	root    http.FileSystem
	logger  *logs.Logger
	metrics *metrics.Registry
}

func NewServer(dir string, logger *logs.Logger, metricsRegistry *metrics.Registry) *Server {
	return &Server{
		root:    http.Dir(dir),
		logger:  logger,
		metrics: metricsRegistry,
	}
}

// ServeFile writes the file at p, or 404 "File not found".
// http.Dir confines p to the root.
func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, p string) {
	f, err := s.root.Open(p)
	if err != nil {
		s.notFound(w, p)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.notFound(w, p)
		return
	}

	s.metrics.Inc(metrics.MediaServedTotal)
	w.Header().Set("Content-Type", MIMEType(p))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *Server) notFound(w http.ResponseWriter, p string) {
	s.metrics.Inc(metrics.MediaNotFoundTotal)
	s.logger.Debugf("media file not found: %s", p)
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("File not found"))
}
