// Package quote exposes the pricing HTTP API.
package quote

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/coursio/backend-pricing/internal/common"
	"github.com/coursio/backend-pricing/internal/obs"
	"github.com/coursio/backend-pricing/internal/pricing"
	"github.com/coursio/backend-pricing/internal/tariff"
)

// Handler exposes quote and tariff administration endpoints.
type Handler struct {
	Svc        *pricing.Service
	Store      *tariff.Store
	Loader     *tariff.Loader
	Validate   *validator.Validate
	Logger     zerolog.Logger
	AdminToken string
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Svc        *pricing.Service
	Store      *tariff.Store
	Loader     *tariff.Loader
	Logger     zerolog.Logger
	AdminToken string
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		Svc:        cfg.Svc,
		Store:      cfg.Store,
		Loader:     cfg.Loader,
		Validate:   validator.New(),
		Logger:     cfg.Logger,
		AdminToken: cfg.AdminToken,
	}
}

// CreateQuote handles POST /api/v1/quotes.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "pricing service not configured", nil)
		return
	}
	var req pricing.Request
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "malformed JSON body", map[string]any{"error": err.Error()})
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid quote request", validationDetails(err))
		return
	}

	start := time.Now()
	res, err := h.Svc.Price(r.Context(), req)
	if err != nil {
		h.countQuote("error")
		h.writeError(w, err)
		return
	}
	h.countQuote("ok")
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	if obs.DistanceResolveTotal != nil {
		obs.DistanceResolveTotal.WithLabelValues(res.DistanceSource).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// Cities handles GET /api/v1/cities for autocompletion.
func (h *Handler) Cities(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "tariff store not configured", nil)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "query parameter q is required", nil)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	rows, err := h.Store.SearchCities(r.Context(), q, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Formulas handles GET /api/v1/formulas.
func (h *Handler) Formulas(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		Formula   tariff.Formula `json:"formula"`
		Label     string         `json:"label"`
		Immediate bool           `json:"immediate"`
	}
	out := make([]entry, 0, len(tariff.Formulas()))
	for _, f := range tariff.Formulas() {
		out = append(out, entry{Formula: f, Label: f.Label(), Immediate: f.AvailableForImmediate()})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

type metadataUpdate struct {
	Values map[string]string `json:"values" validate:"required,min=1"`
}

// UpdateMetadata handles PUT /api/v1/admin/tariffs/metadata. Every value is
// validated as a complete snapshot before anything is written, the keys are
// committed in one transaction, and the loader cache is invalidated so the
// next quote sees the new parameters.
func (h *Handler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataUpdate
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "malformed JSON body", map[string]any{"error": err.Error()})
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "invalid metadata update", validationDetails(err))
		return
	}
	if _, err := tariff.ConfigFromMetadata(req.Values); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "tariff parameters rejected", map[string]any{"error": err.Error()})
		return
	}
	if err := h.Store.UpsertMetadataAll(r.Context(), req.Values); err != nil {
		// A commit can fail after the server applied it, so drop the cached
		// snapshot on this path too.
		h.Loader.Invalidate()
		h.writeError(w, err)
		return
	}
	h.Loader.Invalidate()
	h.Logger.Info().Int("keys", len(req.Values)).Msg("tariff metadata updated")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"updated": len(req.Values)}})
}

// UpsertCity handles POST /api/v1/admin/tariffs/cities.
func (h *Handler) UpsertCity(w http.ResponseWriter, r *http.Request) {
	var row tariff.CityRate
	if err := common.DecodeJSON(r, &row); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "malformed JSON body", map[string]any{"error": err.Error()})
		return
	}
	if strings.TrimSpace(row.City) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "city is required", nil)
		return
	}
	if err := h.Store.UpsertCityRate(r.Context(), row); err != nil {
		h.writeError(w, err)
		return
	}
	h.Logger.Info().Str("city", tariff.NormalizeCity(row.City)).Msg("city pricing updated")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"city": tariff.NormalizeCity(row.City)}})
}

// RequireAdmin guards administration endpoints with a static bearer token.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if h.AdminToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(h.AdminToken)) != 1 {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "admin token required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) countQuote(result string) {
	if obs.QuotesTotal != nil {
		obs.QuotesTotal.WithLabelValues(result).Inc()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = common.CodeInternal
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, pricing.ErrInvalidRoute):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidRoute, "route does not identify two priceable endpoints", map[string]any{"error": err.Error()})
	case errors.Is(err, tariff.ErrCityNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeUnknownCity, "city is not in the pricing grid", map[string]any{"error": err.Error()})
	case errors.Is(err, tariff.ErrInvalidConfig), errors.Is(err, tariff.ErrConfigUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, common.CodePricingConfig, "tariff configuration unavailable", map[string]any{"error": err.Error()})
	default:
		h.Logger.Error().Err(err).Msg("quote handler failure")
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "internal error", nil)
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]any{"error": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}
