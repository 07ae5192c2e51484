package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-promo/internal/common"
)

// Handler exposes promotion catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Routes mounts the public read endpoints under /promotions.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/promotions", h.List)
	r.Get("/promotions/active", h.Active)
	r.Get("/promotions/{id}", h.Get)
}

// AdminRoutes mounts the write endpoints; callers wrap them with auth and idempotency.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Post("/promotions", h.Create)
	r.Put("/promotions/{id}", h.Update)
	r.Delete("/promotions/{id}", h.Delete)
}

// Active handles GET /api/v1/promotions/active.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	items, err := h.service.ActivePromotions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Get handles GET /api/v1/promotions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// List handles GET /api/v1/promotions with filters, sorting, and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	page := common.NewPagination(result.Page, result.Size, result.Total)
	page.Sort, page.Direction = result.Sort, result.Direction
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": page,
	})
}

// Create handles POST /api/v1/admin/promotions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	actor, _ := common.UserID(r.Context())
	p, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/promotions/"+p.ID.String())
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// Update handles PUT /api/v1/admin/promotions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	actor, _ := common.UserID(r.Context())
	p, err := h.service.Update(r.Context(), actor, id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Delete handles DELETE /api/v1/admin/promotions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	actor, _ := common.UserID(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseFilter(r *http.Request) (ListFilter, error) {
	page, size, err := common.ParsePagination(r, h.service.DefaultPageSize(), h.service.MaxPageSize())
	if err != nil {
		return ListFilter{}, err
	}
	q := r.URL.Query()
	f := ListFilter{
		Page:      page,
		Size:      size,
		Name:      strings.TrimSpace(q.Get("name")),
		Search:    strings.TrimSpace(q.Get("search")),
		Sort:      strings.TrimSpace(q.Get("sort")),
		Direction: strings.TrimSpace(q.Get("direction")),
	}
	if f.Sort != "" {
		if _, ok := sortColumns[strings.ToLower(f.Sort)]; !ok {
			return ListFilter{}, common.BadRequest("sort", "sort must be one of id, name, created_at, discount_amount, starts_at", nil)
		}
	}
	if f.Direction != "" && !strings.EqualFold(f.Direction, "asc") && !strings.EqualFold(f.Direction, "desc") {
		return ListFilter{}, common.BadRequest("direction", "direction must be asc or desc", nil)
	}
	if raw := strings.TrimSpace(q.Get("id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ListFilter{}, common.BadRequest("id", "id must be a UUID", err)
		}
		f.ID = &id
	}
	active, err := common.ParseOptionalBool(q.Get("isActive"))
	if err != nil {
		return ListFilter{}, common.BadRequest("isActive", "isActive must be true or false", err)
	}
	f.IsActive = active
	return f, nil
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promotion not found", nil)
	case errors.Is(err, ErrSlugTaken):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "slug already in use", map[string]any{"field": "slug"})
	default:
		common.WriteError(w, err)
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, common.BadRequest("id", "id must be a UUID", err)
	}
	return id, nil
}

func decodeInput(r *http.Request) (PromotionInput, error) {
	var in PromotionInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&in); err != nil {
		return PromotionInput{}, common.BadRequest("body", "invalid JSON payload", err)
	}
	return in, nil
}
