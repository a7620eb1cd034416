package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"leadrouter/assignment"
	"leadrouter/caller"
	"leadrouter/clock"
	"leadrouter/config"
	"leadrouter/db"
	"leadrouter/lead"
	"leadrouter/logging"
	"leadrouter/operator"
	"leadrouter/realtime"
)

type ctxKey string

const (
	ctxKeyOperatorID ctxKey = "operator_id"
	ctxKeyRole       ctxKey = "operator_role"
	requestTimeout          = 10 * time.Second
)

// Server aggregates every service the HTTP layer dispatches to.
type Server struct {
	pool             *pgxpool.Pool
	log              *logging.Logger
	operatorService  *operator.Service
	callerService    *caller.Service
	leadService      *lead.Service
	leadRepo         *lead.Repository
	assignmentRepo   *assignment.Repository
	assignmentEngine *assignment.Engine
	hub              *realtime.Hub
	webhookSecret    string
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Entry().Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	wd, err := os.Getwd()
	if err != nil {
		log.Entry().Fatalf("determine working directory: %v", err)
	}
	if err := applyMigrations(ctx, pool, filepath.Join(wd, "migrations")); err != nil {
		log.Entry().Fatalf("apply migrations: %v", err)
	}

	tz, err := time.LoadLocation(cfg.BusinessTZ)
	if err != nil {
		log.Entry().Fatalf("invalid BUSINESS_TZ %q: %v", cfg.BusinessTZ, err)
	}

	operatorRepo := operator.NewRepository(pool)
	operatorService := operator.NewService(operatorRepo, cfg.JWTSecret)

	callerRepo := caller.NewRepository(pool)
	callerService := caller.NewService(callerRepo)

	leadRepo := lead.NewRepository(pool)
	leadService := lead.NewService(leadRepo)

	assignmentRepo := assignment.NewRepository()
	assignmentEngine := assignment.NewEngine(assignmentRepo, leadRepo, clock.Real(), tz)

	hub := realtime.NewHub()

	server := &Server{
		pool:             pool,
		log:              log,
		operatorService:  operatorService,
		callerService:    callerService,
		leadService:      leadService,
		leadRepo:         leadRepo,
		assignmentRepo:   assignmentRepo,
		assignmentEngine: assignmentEngine,
		hub:              hub,
		webhookSecret:    cfg.WebhookSecret,
	}

	router := mux.NewRouter()
	router.HandleFunc("/auth/register", server.handleRegister).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", server.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/api/me", server.authMiddleware(server.handleMe)).Methods(http.MethodGet)

	router.HandleFunc("/api/callers", server.authMiddleware(server.handleCreateCaller)).Methods(http.MethodPost)
	router.HandleFunc("/api/callers", server.authMiddleware(server.handleListCallers)).Methods(http.MethodGet)
	router.HandleFunc("/api/callers/{id}", server.authMiddleware(server.handleGetCaller)).Methods(http.MethodGet)
	router.HandleFunc("/api/callers/{id}", server.authMiddleware(server.handleUpdateCaller)).Methods(http.MethodPut)
	router.HandleFunc("/api/callers/{id}/status", server.authMiddleware(server.handleUpdateCallerStatus)).Methods(http.MethodPatch)
	router.HandleFunc("/api/callers/{id}", server.authMiddleware(server.handleDeleteCaller)).Methods(http.MethodDelete)

	router.HandleFunc("/api/leads", server.authMiddleware(server.handleListLeads)).Methods(http.MethodGet)
	router.HandleFunc("/api/leads/{id}", server.authMiddleware(server.handleGetLead)).Methods(http.MethodGet)
	router.HandleFunc("/api/leads/{id}/reassign", server.authMiddleware(server.handleReassignLead)).Methods(http.MethodPatch)
	router.HandleFunc("/api/leads/webhook", server.handleWebhook).Methods(http.MethodPost)

	router.HandleFunc("/ws/dashboard", server.handleWebSocket)

	handler := loggingMiddleware(log)(corsMiddleware(cfg.CORSOrigins)(router))

	log.Entry().Infof("leadrouter listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Entry().Fatalf("server failed: %v", err)
	}
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req operator.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	op, err := s.operatorService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, operator.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "email already exists")
			return
		}
		if errors.Is(err, operator.ErrWeakPassword) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	respondJSON(w, http.StatusCreated, newOperatorResponse(*op))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req operator.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.operatorService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, operator.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token":    result.Token,
		"operator": newOperatorResponse(result.Operator),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	operatorID, ok := r.Context().Value(ctxKeyOperatorID).(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "invalid authentication context")
		return
	}
	op, err := s.operatorService.GetByID(r.Context(), operatorID)
	if err != nil {
		respondError(w, http.StatusNotFound, "operator not found")
		return
	}
	respondJSON(w, http.StatusOK, newOperatorResponse(*op))
}

func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		operatorID, role, err := s.operatorService.VerifyToken(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyOperatorID, operatorID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next(w, r.WithContext(ctx))
	}
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Webhook-Secret")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func loggingMiddleware(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(lrw, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   lrw.statusCode,
				"duration": time.Since(start).String(),
			}).Entry().Info("handled request")
		})
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// --- schema bootstrap ---

func applyMigrations(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// --- DTOs ---

type operatorResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newOperatorResponse(op operator.Operator) operatorResponse {
	return operatorResponse{ID: op.ID, Email: op.Email, FullName: op.FullName, Role: string(op.Role), CreatedAt: op.CreatedAt}
}

type callerResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Languages  []string  `json:"languages"`
	States     []string  `json:"states"`
	DailyLimit int       `json:"daily_limit"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newCallerResponse(c caller.Caller) callerResponse {
	return callerResponse{
		ID: c.ID, Name: c.Name, Role: c.Role, Languages: c.Languages, States: c.States,
		DailyLimit: c.DailyLimit, Status: string(c.Status), CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

type assignmentResponse struct {
	ID       string `json:"id,omitempty"`
	CallerID string `json:"caller_id,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
}

type leadResponse struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Phone            string              `json:"phone"`
	SourceTimestamp  time.Time           `json:"source_timestamp"`
	Source           string              `json:"source,omitempty"`
	City             string              `json:"city,omitempty"`
	State            string              `json:"state,omitempty"`
	Metadata         map[string]any      `json:"metadata,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	Unassigned       bool                `json:"unassigned"`
	LatestAssignment *assignmentResponse `json:"latest_assignment,omitempty"`
}

func newLeadResponse(l lead.Lead) leadResponse {
	return leadResponse{
		ID: l.ID, Name: l.Name, Phone: l.Phone, SourceTimestamp: l.SourceTimestamp, Source: l.Source,
		City: l.City, State: l.State, Metadata: l.Metadata, CreatedAt: l.CreatedAt, Unassigned: l.Unassigned,
	}
}

func newLeadWithAssignmentResponse(item lead.WithAssignment) leadResponse {
	resp := newLeadResponse(item.Lead)
	if item.LatestAssignment != nil {
		resp.LatestAssignment = &assignmentResponse{
			ID:       item.LatestAssignment.ID,
			CallerID: item.LatestAssignment.CallerID,
			Status:   item.LatestAssignment.Status,
			Reason:   item.LatestAssignment.AssignmentReason,
		}
	}
	return resp
}

// --- caller handlers ---

type createCallerRequest struct {
	Name       string   `json:"name"`
	Role       string   `json:"role"`
	Languages  []string `json:"languages"`
	States     []string `json:"states"`
	DailyLimit int      `json:"daily_limit"`
}

func (s *Server) handleCreateCaller(w http.ResponseWriter, r *http.Request) {
	var req createCallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.callerService.Create(r.Context(), caller.CreateParams{
		Name: req.Name, Role: req.Role, Languages: req.Languages, States: req.States, DailyLimit: req.DailyLimit,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, newCallerResponse(c))
}

func (s *Server) handleListCallers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := caller.ListFilters{
		Status: caller.Status(q.Get("status")),
		State:  q.Get("state"),
		Limit:  atoiDefault(q.Get("limit"), 50),
		Offset: atoiDefault(q.Get("offset"), 0),
	}
	callers, err := s.callerService.List(r.Context(), filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list callers")
		return
	}
	resp := make([]callerResponse, len(callers))
	for i, c := range callers {
		resp[i] = newCallerResponse(c)
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": resp})
}

func (s *Server) handleGetCaller(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := s.callerService.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "caller not found")
		return
	}
	respondJSON(w, http.StatusOK, newCallerResponse(c))
}

type updateCallerRequest struct {
	Name       *string  `json:"name"`
	Role       *string  `json:"role"`
	Languages  []string `json:"languages"`
	States     []string `json:"states"`
	DailyLimit *int     `json:"daily_limit"`
}

func (s *Server) handleUpdateCaller(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req updateCallerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.callerService.Update(r.Context(), id, caller.UpdateParams{
		Name: req.Name, Role: req.Role, Languages: req.Languages, States: req.States, DailyLimit: req.DailyLimit,
	})
	if err != nil {
		if errors.Is(err, caller.ErrNotFound) {
			respondError(w, http.StatusNotFound, "caller not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newCallerResponse(c))
}

type updateCallerStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateCallerStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req updateCallerStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		c   caller.Caller
		err error
	)
	switch caller.Status(req.Status) {
	case caller.StatusActive:
		c, err = s.callerService.Activate(r.Context(), id)
	case caller.StatusPaused:
		c, err = s.callerService.Pause(r.Context(), id)
	default:
		respondError(w, http.StatusBadRequest, "status must be 'active' or 'paused'")
		return
	}
	if err != nil {
		if errors.Is(err, caller.ErrNotFound) {
			respondError(w, http.StatusNotFound, "caller not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	respondJSON(w, http.StatusOK, newCallerResponse(c))
}

// handleDeleteCaller pauses the caller rather than removing its row:
// its assignment history and daily counters must survive.
func (s *Server) handleDeleteCaller(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := s.callerService.Pause(r.Context(), id)
	if err != nil {
		if errors.Is(err, caller.ErrNotFound) {
			respondError(w, http.StatusNotFound, "caller not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete caller")
		return
	}
	respondJSON(w, http.StatusOK, newCallerResponse(c))
}

// --- lead handlers ---

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := lead.Filters{
		State:    q.Get("state"),
		CallerID: q.Get("caller_id"),
		Search:   q.Get("search"),
		Limit:    atoiDefault(q.Get("limit"), 50),
		Offset:   atoiDefault(q.Get("offset"), 0),
	}
	leads, err := s.leadService.List(r.Context(), filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	resp := make([]leadResponse, len(leads))
	for i, l := range leads {
		resp[i] = newLeadWithAssignmentResponse(l)
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": resp})
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	l, err := s.leadService.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "lead not found")
		return
	}
	respondJSON(w, http.StatusOK, newLeadResponse(l))
}

type webhookRequest struct {
	Name      string         `json:"name"`
	Phone     string         `json:"phone"`
	Timestamp string         `json:"timestamp"`
	Source    string         `json:"lead_source"`
	City      string         `json:"city"`
	State     string         `json:"state"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookSecret != "" {
		provided := r.Header.Get("X-Webhook-Secret")
		if !constantTimeEqual(provided, s.webhookSecret) {
			respondError(w, http.StatusUnauthorized, "invalid webhook secret")
			return
		}
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.Phone == "" || req.Timestamp == "" {
		respondError(w, http.StatusUnprocessableEntity, "phone and timestamp are required")
		return
	}
	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "timestamp must be ISO-8601")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to begin transaction")
		return
	}
	defer tx.Rollback(ctx)

	createdLead, existed, err := s.leadRepo.FindOrCreate(ctx, tx, lead.IngestParams{
		Name: req.Name, Phone: req.Phone, SourceTimestamp: ts, Source: req.Source,
		City: req.City, State: req.State, Metadata: req.Metadata,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to ingest lead")
		return
	}

	var outcome assignment.Outcome
	if !existed {
		outcome, err = s.assignmentEngine.Assign(ctx, tx, createdLead.ID, createdLead.State, nil, nil)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "assignment failed")
			return
		}
	} else {
		outcome, err = s.assignmentRepo.LatestAssignmentForLead(ctx, tx, createdLead.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to load prior assignment")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	resp := newLeadResponse(createdLead)
	if outcome.AssignmentID != "" {
		resp.LatestAssignment = &assignmentResponse{
			ID: outcome.AssignmentID, Status: string(outcome.Status), Reason: string(outcome.Reason),
		}
		if outcome.CallerID != nil {
			resp.LatestAssignment.CallerID = *outcome.CallerID
		}
	}
	if !existed {
		s.broadcastOutcome(createdLead.ID, outcome)
	}
	body := struct {
		leadResponse
		AssignedCallerID string `json:"assigned_caller_id,omitempty"`
		AssignmentStatus string `json:"assignment_status,omitempty"`
		AssignmentReason string `json:"assignment_reason,omitempty"`
	}{leadResponse: resp}
	if resp.LatestAssignment != nil {
		body.AssignedCallerID = resp.LatestAssignment.CallerID
		body.AssignmentStatus = resp.LatestAssignment.Status
		body.AssignmentReason = resp.LatestAssignment.Reason
	}
	respondJSON(w, http.StatusOK, body)
}

type reassignRequest struct {
	CallerID *string `json:"caller_id"`
}

func (s *Server) handleReassignLead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	existing, err := s.leadService.Get(ctx, id)
	if err != nil {
		respondError(w, http.StatusNotFound, "lead not found")
		return
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to begin transaction")
		return
	}
	defer tx.Rollback(ctx)

	outcome, err := s.assignmentEngine.Assign(ctx, tx, existing.ID, existing.State, req.CallerID, nil)
	if err != nil {
		if errors.Is(err, assignment.ErrInvalidForcedCaller) {
			respondError(w, http.StatusUnprocessableEntity, "caller does not exist or is not active")
			return
		}
		respondError(w, http.StatusInternalServerError, "reassign failed")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	s.broadcastOutcome(existing.ID, outcome)

	resp := assignmentResponse{ID: outcome.AssignmentID, Status: string(outcome.Status), Reason: string(outcome.Reason)}
	if outcome.CallerID != nil {
		resp.CallerID = *outcome.CallerID
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) broadcastOutcome(leadID string, outcome assignment.Outcome) {
	payload := realtime.Payload{
		LeadID:           leadID,
		AssignmentStatus: string(outcome.Status),
		AssignmentReason: string(outcome.Reason),
		Timestamp:        outcome.AssignedAt.Format(time.RFC3339),
	}
	if outcome.CallerID != nil {
		payload.CallerID = *outcome.CallerID
	}
	s.hub.Broadcast(payload)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.hub.ServeWS(w, r); err != nil {
		s.log.WithError(err).Entry().Warn("websocket connection closed")
	}
}

func atoiDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
