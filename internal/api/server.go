// Package api exposes the engine's control surface: a gorilla/mux HTTP
// server for strategy management and a websocket feed pushing tick
// snapshots.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/engine"
	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/position"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// Controller is the slice of the engine the control surface drives.
type Controller interface {
	AddStrategy(params types.StrategyParams) error
	UpdateStrategy(name string, patch json.RawMessage, newName optional.Option[string]) error
	RemoveStrategy(name string) error
	ListStrategies() []engine.StrategySummary
	StrategyParams(name string) (types.StrategyParams, error)
	StrategyHistory(name string) ([]types.TradeRecord, error)
	StrategyInTrade(name string) (bool, error)
	ExitStrategy(name string) error
	StrategyRoi(name string) (position.RoiReport, error)
	LatestBars(n int) []types.Bar
}

// Server is the HTTP control surface.
type Server struct {
	controller Controller
	log        *logger.Logger
	hub        *Hub
	srv        *http.Server
}

// NewServer builds the control surface around a controller.
func NewServer(addr string, controller Controller, log *logger.Logger) *Server {
	s := &Server{
		controller: controller,
		log:        log,
		hub:        NewHub(log),
	}

	router := mux.NewRouter()
	router.HandleFunc("/strategies", s.handleListStrategies).Methods(http.MethodGet)
	router.HandleFunc("/strategies", s.handleAddStrategy).Methods(http.MethodPost)
	router.HandleFunc("/strategies/{name}", s.handleUpdateStrategy).Methods(http.MethodPut)
	router.HandleFunc("/strategies/{name}", s.handleRemoveStrategy).Methods(http.MethodDelete)
	router.HandleFunc("/strategies/{name}/params", s.handleParams).Methods(http.MethodGet)
	router.HandleFunc("/strategies/{name}/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/strategies/{name}/in_trade", s.handleInTrade).Methods(http.MethodGet)
	router.HandleFunc("/strategies/{name}/exit", s.handleExit).Methods(http.MethodPost)
	router.HandleFunc("/strategies/{name}/roi", s.handleRoi).Methods(http.MethodGet)
	router.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.hub.HandleWS)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.srv.Handler }

// Broadcast pushes a tick snapshot to all websocket subscribers.
func (s *Server) Broadcast(snapshot engine.TickSnapshot) {
	s.hub.Broadcast(snapshot)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("control surface listening", zap.String("addr", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests and closes the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeOK(w http.ResponseWriter, message string, data any) {
	s.writeJSON(w, http.StatusOK, response{Success: true, Message: message, Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), response{Success: false, Message: err.Error()})
}

// statusFor maps typed error codes onto HTTP statuses: validation errors
// become 400s, lookups 404s, conflicts 409s, everything else a 500.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidParameter, errors.ErrCodeInvalidConfiguration,
		errors.ErrCodeMissingParameter, errors.ErrCodeUnknownStrategyType:
		return http.StatusBadRequest
	case errors.ErrCodeStrategyNotFound:
		return http.StatusNotFound
	case errors.ErrCodeStrategyExists, errors.ErrCodeNameConflict,
		errors.ErrCodeStrategyInTrade, errors.ErrCodeStrategyNotInTrade:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListStrategies(w http.ResponseWriter, _ *http.Request) {
	s.writeOK(w, "", s.controller.ListStrategies())
}

type addStrategyRequest struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

func (s *Server) handleAddStrategy(w http.ResponseWriter, r *http.Request) {
	var req addStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))
		return
	}

	params, err := decodeParams(req.Type, req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.controller.AddStrategy(params); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "strategy added", nil)
}

func decodeParams(strategyType string, raw json.RawMessage) (types.StrategyParams, error) {
	parsed, err := types.ParseStrategyType(strategyType)
	if err != nil {
		return nil, err
	}

	var params types.StrategyParams
	switch parsed {
	case types.StrategyTypeWaveModel:
		var p types.WaveModelParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid params", err)
		}
		params = p
	case types.StrategyTypeTrendFollower:
		var p types.TrendFollowerParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid params", err)
		}
		params = p
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

type updateStrategyRequest struct {
	Params  json.RawMessage `json:"params"`
	NewName string          `json:"new_name"`
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req updateStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))
		return
	}

	newName := optional.None[string]()
	if req.NewName != "" {
		newName = optional.Some(req.NewName)
	}

	if err := s.controller.UpdateStrategy(name, req.Params, newName); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "strategy updated", nil)
}

func (s *Server) handleRemoveStrategy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.controller.RemoveStrategy(name); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "strategy removed", nil)
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	params, err := s.controller.StrategyParams(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "", params)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	history, err := s.controller.StrategyHistory(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "", history)
}

func (s *Server) handleInTrade(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	inTrade, err := s.controller.StrategyInTrade(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "", map[string]bool{"in_trade": inTrade})
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.controller.ExitStrategy(name); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "trade exited", nil)
}

func (s *Server) handleRoi(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	roi, err := s.controller.StrategyRoi(name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeOK(w, "", roi)
}

const defaultDataBars = 100

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	n := defaultDataBars
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, errors.Newf(errors.ErrCodeInvalidParameter, "invalid bar count %q", raw))
			return
		}
		n = parsed
	}

	s.writeOK(w, "", s.controller.LatestBars(n))
}
