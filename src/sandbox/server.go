package sandbox

import (
	"context"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SandboxPolicy is the iframe sandbox attribute: scripts, modals, popups and
// forms are allowed; same-origin access and top navigation are not.
const SandboxPolicy = "allow-scripts allow-modals allow-popups allow-forms"

const maxBridgeBody = 64 << 10

var hostPage = template.Must(template.New("host").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>html,body{margin:0;height:100%;background:#0f172a}iframe{border:0;width:100%;height:100%;background:#fff}</style>
</head>
<body>
<iframe id="preview" title="preview" sandbox="{{.Sandbox}}" srcdoc="{{.Doc}}"></iframe>
<script>
(function () {
  var frame = document.getElementById('preview');
  var revision = {{.Revision}};
  window.addEventListener('message', function (event) {
    if (event.source !== frame.contentWindow) return;
    var data = event.data;
    if (!data || data.type !== 'CONSOLE_LOG') return;
    fetch('/bridge', { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: JSON.stringify(data) }).catch(function () {});
  });
  setInterval(function () {
    fetch('/version').then(function (r) { return r.text(); }).then(function (v) {
      v = parseInt(v, 10);
      if (v === revision) return;
      revision = v;
      return fetch('/doc').then(function (r) { return r.text(); }).then(function (doc) { frame.srcdoc = doc; });
    }).catch(function () {});
  }, 1000);
})();
</script>
</body>
</html>`))

// Server serves the current bundle inside a sandboxed iframe and relays the
// console bridge back into a LogBuffer.
type Server struct {
	logs  *LogBuffer
	log   *slog.Logger
	now   func() time.Time
	title string

	mu       sync.RWMutex
	doc      string
	revision uint64
	url      string

	router chi.Router
}

func NewServer(logs *LogBuffer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{logs: logs, log: log, now: time.Now, title: "Lattice Studio Preview"}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleHost)
	r.Get("/doc", s.handleDoc)
	r.Get("/version", s.handleVersion)
	r.Post("/bridge", s.handleBridge)
	return r
}

func (s *Server) Handler() http.Handler { return s.router }

// Publish swaps the served document. The revision only moves when the
// document actually changes.
func (s *Server) Publish(doc string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc != s.doc {
		s.doc = doc
		s.revision++
	}
	return s.revision
}

func (s *Server) Document() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.revision
}

// URL is the address the server listens on, empty until Start succeeds.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	url := "http://" + ln.Addr().String()
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("preview server stopped", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("preview server listening", "url", url)
	return url, nil
}

func (s *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	doc, rev := s.Document()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := hostPage.Execute(w, struct {
		Title    string
		Sandbox  string
		Doc      string
		Revision uint64
	}{s.title, SandboxPolicy, doc, rev})
	if err != nil {
		s.log.Warn("render host page", "err", err)
	}
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	doc, _ := s.Document()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, doc)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	_, rev := s.Document()
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = io.WriteString(w, strconv.FormatUint(rev, 10))
}

// handleBridge accepts one bridge message. It always answers 204 so the
// sandbox never waits on the host.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusNoContent)
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBridgeBody))
	if err != nil {
		return
	}
	entry, ok := Decode(raw, s.now())
	if !ok {
		s.log.Debug("ignored non-bridge message", "bytes", len(raw))
		return
	}
	if s.logs != nil {
		s.logs.Publish(entry)
	}
}
