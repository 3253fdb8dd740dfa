package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/assetvuln/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) *mux.Router {
	r := mux.NewRouter()

	// Manual trigger (rate limited)
	update := middleware.RateLimitMiddleware(s.updateLimiter)(http.HandlerFunc(s.CVEHandler.HandleUpdate))
	r.Handle("/cve/update", update).Methods(http.MethodGet)

	// Reporting API
	api := r.PathPrefix("/cve").Subrouter()
	api.HandleFunc("/vulnerabilities", s.VulnHandler.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/vulnerabilities/{id}", s.VulnHandler.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.VulnHandler.HandleNotifications).Methods(http.MethodGet)
	api.HandleFunc("/summary/{kind}", s.VulnHandler.HandleSummary).Methods(http.MethodGet)
	api.HandleFunc("/assets-with-status", s.VulnHandler.HandleAssetsWithStatus).Methods(http.MethodGet)
	api.HandleFunc("/report.pdf", s.ReportHandler.HandlePDF).Methods(http.MethodGet)

	// Notifications push channel
	r.HandleFunc("/ws", s.Hub.HandleWebSocket)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
