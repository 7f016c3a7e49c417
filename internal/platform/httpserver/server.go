package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	accountadmin "dealerdesk/contexts/identity-access/account-admin-service"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "dealerdesk/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	accountAdmin accountadmin.Module
}

func New(
	accountAdminModule accountadmin.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		accountAdmin: accountAdminModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/admin/v1/users/{uid}/manager-role", s.handleSetManagerRole)
	s.mux.HandleFunc("POST /api/admin/v1/users/{uid}/account-status", s.handleSetAccountDisabled)
	s.mux.HandleFunc("GET /api/admin/v1/users/{uid}/audit", s.handleListAuditEntries)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
