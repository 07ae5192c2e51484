package checkout

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

// MaxPreviewItems caps the number of lines a preview request may carry.
const MaxPreviewItems = 200

// PreviewItem is one cart line of a preview request.
type PreviewItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=10000"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// PreviewRequest is the body of POST /api/v1/cart/promotion-preview.
type PreviewRequest struct {
	Items []PreviewItem `json:"items" validate:"required,min=1,max=200,dive"`
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

// Handler exposes the promotion preview endpoint.
type Handler struct {
	Svc *Service
	// Limit wraps the preview route, typically with the rate limiter.
	Limit func(http.Handler) http.Handler
}

// Routes mounts POST /cart/promotion-preview.
func (h *Handler) Routes(r chi.Router) {
	if h.Limit != nil {
		r.With(h.Limit).Post("/cart/promotion-preview", h.Preview)
		return
	}
	r.Post("/cart/promotion-preview", h.Preview)
}

// Preview handles POST /api/v1/cart/promotion-preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.WriteError(w, common.BadRequest("body", "invalid JSON payload", err))
		return
	}
	lines, err := payload.lines()
	if err != nil {
		common.WriteError(w, err)
		return
	}
	quote, err := h.Svc.Preview(r.Context(), lines)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

func (p PreviewRequest) lines() ([]promotion.CartLine, error) {
	details := map[string]string{}
	if err := validate.Struct(p); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				_, field, _ := strings.Cut(fe.Namespace(), ".")
				details[field] = fe.Tag()
			}
		} else {
			return nil, common.BadRequest("items", "invalid items", err)
		}
	}
	lines := make([]promotion.CartLine, 0, len(p.Items))
	for i, item := range p.Items {
		if item.ProductID == uuid.Nil {
			details[fmt.Sprintf("items[%d].productId", i)] = "required"
		}
		if item.UnitPrice.IsNegative() {
			details[fmt.Sprintf("items[%d].unitPrice", i)] = "gte=0"
		}
		lines = append(lines, promotion.CartLine{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	if len(details) > 0 {
		return nil, common.ValidationFailed("preview request is invalid", details, nil)
	}
	return lines, nil
}
