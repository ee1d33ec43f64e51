// Package http serves the dashboard: period summary, expense and budget
// forms, and the two-step row deletion. Owner identity arrives from the
// auth layer in front of this service and is trusted as-is.
package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/services"
	"gastos/web"
)

type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.Ledger
	sessions  *sessionRegistry
	owner     ownerResolver
	log       *applog.Logger

	requestSeq   uint64
	shutdownOnce sync.Once
}

// ownerResolver extracts the acting owner from a request. The auth
// collaborator sets the header; local runs fall back to the default.
type ownerResolver struct {
	header       string
	defaultOwner string
}

func (o ownerResolver) resolve(r *http.Request) string {
	if v := r.Header.Get(o.header); v != "" {
		return v
	}
	return o.defaultOwner
}

// sessionRegistry keeps one deletion workflow per owner session. Only
// one record can be pending confirmation per session at a time.
type sessionRegistry struct {
	mu    sync.Mutex
	flows map[string]*services.DeleteFlow
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{flows: make(map[string]*services.DeleteFlow)}
}

func (s *sessionRegistry) flow(owner string) *services.DeleteFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[owner]
	if !ok {
		f = services.NewDeleteFlow()
		s.flows[owner] = f
	}
	return f
}

func NewServer(addr string, ledger *services.Ledger, defaultOwner string, logger *applog.Logger) *Server {
	funcs := template.FuncMap{
		"brl":       func(m core.Money) string { return m.BRL() },
		"monthName": monthName,
	}
	templates := template.Must(
		template.New("").Funcs(funcs).ParseFS(web.TemplatesFS, "templates/*.html"))

	s := &Server{
		templates: templates,
		ledger:    ledger,
		sessions:  newSessionRegistry(),
		owner:     ownerResolver{header: "X-Auth-User", defaultOwner: defaultOwner},
		log:       logger.WithComponent(applog.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/budget", s.handleSetBudget)
	mux.HandleFunc("/expenses", s.handleCreateExpense)
	mux.HandleFunc("/expenses/delete", s.handleRequestDelete)
	mux.HandleFunc("/expenses/delete/confirm", s.handleConfirmDelete)
	mux.HandleFunc("/expenses/delete/cancel", s.handleCancelDelete)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        s.withRequestLog(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// withRequestLog logs every request with its duration and status.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := atomic.AddUint64(&s.requestSeq, 1)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.InfoContext(r.Context(), "request",
			applog.FieldRequestID, id,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rec.status,
			applog.FieldDuration, time.Since(start).Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Shutdown stops the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

var monthNames = []string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

func monthName(month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("Mês %d", month)
	}
	return monthNames[month-1]
}
