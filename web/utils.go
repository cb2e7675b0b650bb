package web

import (
	"log"
	"net/http"
	"time"
)

// statusWriter remembers the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// recordStatus wraps w once. Handlers that never call WriteHeader
// answered 200.
func recordStatus(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

// NoContent answers 204 with an empty body.
func NoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Logger logs each request handled by handler when verbose is set.
func Logger(handler http.Handler, name string, verbose bool) http.Handler {
	if !verbose {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		sw := recordStatus(w)
		handler.ServeHTTP(sw, r)
		log.Printf("%s: %s %s -> %d, %d bytes, from %s (%s) in %s",
			name, r.Method, r.RequestURI, sw.status, sw.size,
			r.RemoteAddr, r.Header.Get("User-Agent"), time.Since(t0))
	})
}
