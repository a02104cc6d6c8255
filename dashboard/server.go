package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rustyeddy/stockdash/chart"
	"github.com/rustyeddy/stockdash/internal/logger"
	"github.com/rustyeddy/stockdash/market"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

const shutdownTimeout = 5 * time.Second

// Options tune the server. Zero values fall back to DefaultOptions.
type Options struct {
	Addr       string
	Theme      chart.Theme
	SessionTTL time.Duration
	PruneEvery time.Duration
}

var DefaultOptions = Options{
	Addr:       "127.0.0.1:8050",
	Theme:      chart.DefaultTheme,
	SessionTTL: 30 * time.Minute,
	PruneEvery: time.Minute,
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = DefaultOptions.Addr
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultOptions.SessionTTL
	}
	if o.PruneEvery <= 0 {
		o.PruneEvery = DefaultOptions.PruneEvery
	}
	return o
}

// UpdateRequest is a control change sent by the page, over HTTP or the
// WebSocket.
type UpdateRequest struct {
	Session string `json:"session"`
	Control string `json:"control"`
	Event   string `json:"event"`
	Value   string `json:"value"`
}

// UpdateResponse carries the refreshed figures, or an error message on the
// WebSocket.
type UpdateResponse struct {
	Updates []Update `json:"updates"`
	Error   string   `json:"error,omitempty"`
}

// Server serves one loaded table. The table is read only after New, so
// handlers share it without locking.
type Server struct {
	opts     Options
	table    *market.PriceTable
	layout   Layout
	registry *Registry
	sessions *Sessions
	log      *logger.Logger
	tmpl     *template.Template
	static   fs.FS
	upgrader websocket.Upgrader
}

// New builds a server for table with the default layout and bindings.
func New(table *market.PriceTable, opts Options, log *logger.Logger) (*Server, error) {
	opts = opts.withDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	tmpl, err := template.ParseFS(webFS, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		return nil, fmt.Errorf("static files: %w", err)
	}

	b := chart.NewBuilder(opts.Theme)
	layout := DefaultLayout(table.DisplayName(), b.Theme)
	return &Server{
		opts:     opts,
		table:    table,
		layout:   layout,
		registry: DefaultRegistry(b),
		sessions: NewSessions(layout.Defaults()),
		log:      log,
		tmpl:     tmpl,
		static:   static,
	}, nil
}

// Sessions exposes the session store.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// RegisterRoutes registers all dashboard routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	mux.HandleFunc("GET /_dash/layout", s.handleLayout)
	mux.HandleFunc("POST /_dash/update", s.handleUpdate)
	mux.HandleFunc("GET /_dash/ws", s.handleWebSocket)
	mux.HandleFunc("GET /chart/{file}", s.handleChartPNG)
}

// Handler returns the routes behind request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestLogger(s.log, mux)
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. Idle sessions are pruned while it runs.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("dashboard listening",
		logger.NewField("addr", ln.Addr().String()),
		logger.NewField("rows", s.table.Len()))

	ticker := time.NewTicker(s.opts.PruneEvery)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve: %w", err)
		case <-ticker.C:
			if n := s.sessions.Prune(s.opts.SessionTTL); n > 0 {
				s.log.Debug("pruned sessions", logger.NewField("count", n))
			}
		case <-ctx.Done():
			s.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		}
	}
}

type indexData struct {
	Layout  Layout
	Session string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.New()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", indexData{Layout: s.layout, Session: sess.ID}); err != nil {
		s.log.ErrorContext(r.Context(), fmt.Errorf("render index: %w", err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, s.layout)
}

// update dispatches req and records the selection on its session. Unknown
// sessions still get figures; only the selection is not kept.
func (s *Server) update(ctx context.Context, req UpdateRequest) ([]Update, error) {
	if req.Event == "" {
		req.Event = EventChange
	}
	updates, err := s.registry.Dispatch(s.table, req.Control, req.Event, req.Value)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Set(req.Session, req.Control, req.Value); err != nil {
		s.log.Debug("selection not recorded",
			logger.NewField("session", req.Session),
			logger.NewField("reason", err.Error()))
	}
	s.log.InfoContext(ctx, "update",
		logger.NewField("control", req.Control),
		logger.NewField("value", req.Value),
		logger.NewField("outputs", len(updates)))
	return updates, nil
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates, err := s.update(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, r, UpdateResponse{Updates: updates})
}

// handleWebSocket serves update requests for one page over a socket. The
// session ends when the socket closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("session")
	if _, ok := s.sessions.Get(sid); !ok {
		writeError(w, http.StatusBadRequest, ErrUnknownSession.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.log.Warn("websocket upgrade failed", logger.NewField("error", err.Error()))
		return
	}
	defer func() {
		conn.Close()
		s.sessions.Remove(sid)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read", logger.NewField("error", err.Error()))
			}
			return
		}

		var resp UpdateResponse
		var req UpdateRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			resp.Error = "invalid message"
		} else {
			req.Session = sid
			if resp.Updates, err = s.update(r.Context(), req); err != nil {
				resp.Error = err.Error()
			}
		}

		if err := conn.WriteJSON(resp); err != nil {
			s.log.Warn("websocket write", logger.NewField("error", err.Error()))
			return
		}
	}
}

// handleChartPNG renders one output as an image. The value comes from the
// query, then the session's selection, then the control default.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	output, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		writeError(w, http.StatusNotFound, "charts are served as .png")
		return
	}
	b, err := s.registry.Binding(output)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	q := r.URL.Query()
	value := q.Get("value")
	if value == "" {
		value = s.sessions.Value(q.Get("session"), b.Control)
	}

	opts := chart.DefaultRenderOptions
	if v, err := strconv.Atoi(q.Get("width")); err == nil && v > 0 {
		opts.Width = v
	}
	if v, err := strconv.Atoi(q.Get("height")); err == nil && v > 0 {
		opts.Height = v
	}
	if !opts.Fits() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("image size %dx%d exceeds %dx%d",
			opts.Width, opts.Height, chart.MaxRenderOptions.Width, chart.MaxRenderOptions.Height))
		return
	}

	var buf bytes.Buffer
	fig := b.Handler(s.table, value)
	if err := chart.RenderPNG(&buf, fig, opts); err != nil {
		if errors.Is(err, chart.ErrEmptyFigure) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.ErrorContext(r.Context(), fmt.Errorf("render %s: %w", output, err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// Health is the GET /health body.
type Health struct {
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, Health{Status: "ok", Rows: s.table.Len(), Sessions: s.sessions.Len()})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.ErrorContext(r.Context(), fmt.Errorf("encode response: %w", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
