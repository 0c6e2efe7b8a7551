// Package handler содержит HTTP-обработчики API дашбордов пожертвований.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/impact-dashboard/internal/leaderboard"
	"github.com/mmeshcher/impact-dashboard/internal/middleware"
	"github.com/mmeshcher/impact-dashboard/internal/model"
	"github.com/mmeshcher/impact-dashboard/internal/refresh"
	"github.com/mmeshcher/impact-dashboard/internal/repository"
	"github.com/mmeshcher/impact-dashboard/internal/service"
	"github.com/mmeshcher/impact-dashboard/internal/store"
	"github.com/mmeshcher/impact-dashboard/internal/validation"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	maxPayloadSize          = 1 << 20
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Leaderboard(ctx context.Context, role model.Role, limit int) ([]leaderboard.RankedEntry, error)
	Create(ctx context.Context, collection model.Collection, payload json.RawMessage) (model.Record, error)
	Delete(ctx context.Context, collection model.Collection, id string) error
}

// Dashboards выдаёт контроллер обновления сессии просмотра.
type Dashboards interface {
	Controller(sessionID string) *refresh.Controller[service.Dashboard]
}

// Handler реализует HTTP-обработчики API дашбордов.
type Handler struct {
	service           Service
	dashboards        Dashboards
	logger            *zap.Logger
	sessionMiddleware *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, d Dashboards, logger *zap.Logger, session *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:           s,
		dashboards:        d,
		logger:            logger,
		sessionMiddleware: session,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type dashboardResponse struct {
	service.Dashboard
	Banner string `json:"banner,omitempty"`
}

type mutationResponse struct {
	Record    model.Record       `json:"record,omitempty"`
	Refreshed bool               `json:"refreshed"`
	Dashboard *service.Dashboard `json:"dashboard,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) controller(r *http.Request) (*refresh.Controller[service.Dashboard], bool) {
	sessionID, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return h.dashboards.Controller(sessionID), true
}

// GetDashboard возвращает дашборд роли для указанного участника.
// Каждый запрос считается открытием дашборда и заново выполняет загрузку и расчёт.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	role, ok := model.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	key := chi.URLParam(r, "id")
	if !validation.IsValidScopeKey(key) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctrl, ok := h.controller(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	scope := model.Scope{Role: role, Key: key}
	if !ctrl.NeedsRefresh(scope) {
		h.logger.Debug("re-mounting dashboard", zap.String("scope", scope.String()))
	}

	view, err := ctrl.Refresh(r.Context(), scope)
	h.writeDashboard(w, view, err)
}

// Refresh повторно выполняет загрузку и расчёт для текущей области сессии.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	view, err := ctrl.Reload(r.Context())
	if errors.Is(err, refresh.ErrUnknownScope) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no dashboard opened in this session"})
		return
	}
	h.writeDashboard(w, view, err)
}

func (h *Handler) writeDashboard(w http.ResponseWriter, view service.Dashboard, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: view})
	case errors.Is(err, refresh.ErrNoData):
		writeJSON(w, http.StatusServiceUnavailable, dashboardResponse{
			Dashboard: view,
			Banner:    "No data could be loaded for this dashboard. Please try again later.",
		})
	case errors.Is(err, refresh.ErrStale):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "dashboard was superseded by a newer request"})
	case errors.Is(err, refresh.ErrUnknownScope):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug("dashboard request cancelled", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		h.logger.Error("build dashboard error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// GetLeaderboard возвращает рейтинг доноров или НКО.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	role, ok := model.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		limit = n
	}
	limit = validation.ClampLimit(limit, defaultLeaderboardLimit, maxLeaderboardLimit)

	entries, err := h.service.Leaderboard(r.Context(), role, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownRole):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, refresh.ErrNoData):
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "leaderboard data is unavailable"})
		default:
			h.logger.Error("get leaderboard error", zap.Error(err), zap.String("role", string(role)))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// CreateRecord возвращает обработчик, сохраняющий запись в указанную коллекцию
// и пересчитывающий дашборд сессии, если коллекция входит в его план.
func (h *Handler) CreateRecord(collection model.Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
		if err != nil || !json.Valid(body) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		record, err := h.service.Create(r.Context(), collection, json.RawMessage(body))
		if err != nil {
			h.writeMutationError(w, err, collection)
			return
		}

		resp := mutationResponse{Record: record}
		h.notify(r, collection, &resp)
		writeJSON(w, http.StatusCreated, resp)
	}
}

// DeleteRecord удаляет проект школы или НКО.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	collection, ok := model.ParseCollection(chi.URLParam(r, "collection"))
	if !ok || (collection != model.CollectionSchoolProjects && collection != model.CollectionNgoProjects) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	id := chi.URLParam(r, "id")
	if !validation.IsValidScopeKey(id) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), collection, id); err != nil {
		h.writeMutationError(w, err, collection)
		return
	}

	var resp mutationResponse
	h.notify(r, collection, &resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) notify(r *http.Request, collection model.Collection, resp *mutationResponse) {
	ctrl, ok := h.controller(r)
	if !ok {
		return
	}

	view, refreshed, err := ctrl.Notify(r.Context(), refresh.Mutation{Collection: collection})
	resp.Refreshed = refreshed
	if !refreshed {
		return
	}
	if err != nil && !errors.Is(err, refresh.ErrNoData) {
		h.logger.Warn("refresh after mutation failed",
			zap.String("collection", string(collection)),
			zap.Error(err),
		)
		return
	}
	resp.Dashboard = &view
}

func (h *Handler) writeMutationError(w http.ResponseWriter, err error, collection model.Collection) {
	switch {
	case errors.Is(err, repository.ErrRecordExists):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	case errors.Is(err, repository.ErrRecordNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, store.ErrUnexpectedStatus), errors.Is(err, store.ErrNotConfigured):
		h.logger.Warn("record store rejected mutation", zap.Error(err), zap.String("collection", string(collection)))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	default:
		h.logger.Error("mutation error", zap.Error(err), zap.String("collection", string(collection)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Health сообщает, что сервис запущен.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
