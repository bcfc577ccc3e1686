// Package dashboard serves the operator-facing web UI. Pages are rendered
// server side from html/template and hydrated with Chart.js; live counters
// arrive over a websocket fed by a poller against the API.
package dashboard

import (
	"context"
	"html/template"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/akashpd1729/mit-hackathon/internal/anomaly"
	"github.com/akashpd1729/mit-hackathon/internal/dashboard/api"
	"github.com/akashpd1729/mit-hackathon/internal/report"
)

const (
	fetchTimeout   = 10 * time.Second
	updateInterval = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server renders the dashboard pages and pushes live updates to connected
// browsers.
type Server struct {
	mux  *http.ServeMux
	tmpl *template.Template
	api  *api.Client

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan any
}

var numPrinter = message.NewPrinter(language.English)

func New(client *api.Client, templatesDir, staticDir string) (*Server, error) {
	funcs := template.FuncMap{
		"toJSON":     toJSON,
		"formatTime": formatTime,
		"comma":      func(n int) string { return numPrinter.Sprintf("%d", n) },
		"commaf":     func(f float64) string { return numPrinter.Sprintf("%.0f", f) },
	}
	tmpl, err := template.New("").Funcs(funcs).ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, err
	}
	tmpl, err = tmpl.ParseGlob(filepath.Join(templatesDir, "partials", "*.html"))
	if err != nil {
		return nil, err
	}

	s := &Server{
		mux:       http.NewServeMux(),
		tmpl:      tmpl,
		api:       client,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, 256),
	}

	s.mux.HandleFunc("/", s.handleDashboard)
	s.mux.HandleFunc("/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/zones", s.handleZones)
	s.mux.HandleFunc("/anomalies", s.handleAnomalies)
	s.mux.HandleFunc("/flow", s.handleFlow)
	s.mux.HandleFunc("/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("/reports", s.handleReports)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	go s.handleBroadcast()
	go s.periodicUpdate()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/dashboard" {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	overview, err := s.api.Overview(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	perf, err := s.api.Performance(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	health, err := s.api.ZoneHealth(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	distribution, err := s.api.Distribution(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	hourly, err := s.api.Hourly(ctx, "pressure", "")
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	summary, err := s.api.Summary(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}

	s.render(w, "dashboard.html", map[string]any{
		"Title":        "System Dashboard",
		"Active":       "dashboard",
		"Overview":     overview,
		"Performance":  perf,
		"ZoneHealth":   health,
		"Distribution": distribution,
		"Hourly":       hourly,
		"Summary":      summary,
	})
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	zones, err := s.api.Zones(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	if len(zones) == 0 {
		http.Error(w, "no zones configured", http.StatusServiceUnavailable)
		return
	}
	selected := r.URL.Query().Get("zone")
	if selected == "" {
		selected = zones[0].ID
	}

	sensors, err := s.api.Sensors(ctx, selected)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	hourly, err := s.api.Hourly(ctx, "pressure", selected)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	pressure, err := s.api.PressureReadings(ctx, selected, 48, 288)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	flow, err := s.api.FlowReadings(ctx, selected, 48, 288)
	if err != nil {
		s.upstreamError(w, err)
		return
	}

	s.render(w, "zones.html", map[string]any{
		"Title":    "Zone Explorer",
		"Active":   "zones",
		"Zones":    zones,
		"Selected": selected,
		"Sensors":  sensors,
		"Hourly":   hourly,
		"Pressure": pressure,
		"Flow":     flow,
	})
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	summary, err := s.api.Summary(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	pressure, err := s.api.PressureAnomalies(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	flow, err := s.api.FlowAnomalies(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	leaks, err := s.api.Leaks(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	bursts, err := s.api.Bursts(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}

	s.render(w, "anomalies.html", map[string]any{
		"Title":    "Anomaly Detection",
		"Active":   "anomalies",
		"Summary":  summary,
		"Pressure": pressure,
		"Flow":     flow,
		"Leaks":    leaks,
		"Bursts":   bursts,
	})
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	stats, err := s.api.FlowStats(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	hourly, err := s.api.Hourly(ctx, "flow", "")
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	peaks, err := s.api.Peaks(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	loss, err := s.api.WaterLoss(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}

	s.render(w, "flow.html", map[string]any{
		"Title":     "Flow & Water Loss",
		"Active":    "flow",
		"FlowStats": stats,
		"Hourly":    hourly,
		"Peaks":     peaks,
		"WaterLoss": loss,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	recs, err := s.api.Recommendations(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}
	low, err := s.api.LowPressure(ctx)
	if err != nil {
		s.upstreamError(w, err)
		return
	}

	s.render(w, "recommendations.html", map[string]any{
		"Title":           "Recommendations",
		"Active":          "recommendations",
		"Recommendations": recs,
		"LowPressure":     low,
	})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	if r.Method == http.MethodPost {
		if _, err := s.api.GenerateReport(ctx); err != nil {
			s.upstreamError(w, err)
			return
		}
		http.Redirect(w, r, "/reports", http.StatusSeeOther)
		return
	}

	trends, err := s.api.Trends(ctx, 7)
	if err != nil {
		s.upstreamError(w, err)
		return
	}

	data := map[string]any{
		"Title":  "System Reports",
		"Active": "reports",
		"Trends": trends,
	}
	// A missing report is a normal first-run state, not an error.
	if rpt, err := s.api.LatestReport(ctx); err == nil {
		data["Report"] = rpt
	}
	s.render(w, "reports.html", data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	count := len(s.clients)
	s.clientsMu.Unlock()
	log.Info().Int("clients", count).Msg("websocket client connected")

	// Seed the new client so the page paints before the next tick.
	if stats, err := s.getStats(r.Context()); err == nil {
		_ = conn.WriteJSON(map[string]any{"type": "update", "data": stats})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.clientsMu.Lock()
	delete(s.clients, conn)
	count = len(s.clients)
	s.clientsMu.Unlock()
	conn.Close()
	log.Info().Int("clients", count).Msg("websocket client disconnected")
}

func (s *Server) handleBroadcast() {
	for msg := range s.broadcast {
		s.clientsMu.Lock()
		for conn := range s.clients {
			if err := conn.WriteJSON(msg); err != nil {
				conn.Close()
				delete(s.clients, conn)
			}
		}
		s.clientsMu.Unlock()
	}
}

func (s *Server) periodicUpdate() {
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.clientsMu.Lock()
		idle := len(s.clients) == 0
		s.clientsMu.Unlock()
		if idle {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		stats, err := s.getStats(ctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("live stats fetch failed")
			continue
		}
		s.broadcast <- map[string]any{"type": "update", "data": stats}
	}
}

type liveStats struct {
	Summary     anomaly.Summary    `json:"summary"`
	Performance report.Performance `json:"performance"`
	GeneratedAt time.Time          `json:"generated_at"`
}

func (s *Server) getStats(ctx context.Context) (liveStats, error) {
	summary, err := s.api.Summary(ctx)
	if err != nil {
		return liveStats{}, err
	}
	perf, err := s.api.Performance(ctx)
	if err != nil {
		return liveStats{}, err
	}
	return liveStats{Summary: summary, Performance: perf, GeneratedAt: time.Now().UTC()}, nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"status": "online", "api": "online"}
	if _, err := s.api.Health(ctx); err != nil {
		status["api"] = "offline"
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	stats, err := s.getStats(ctx)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
	}
}

func (s *Server) upstreamError(w http.ResponseWriter, err error) {
	log.Warn().Err(err).Msg("api request failed")
	http.Error(w, "water pressure API unavailable", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	b, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	_, _ = w.Write(b)
}

func toJSON(v any) template.JS {
	b, err := sonic.Marshal(v)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(b)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}
