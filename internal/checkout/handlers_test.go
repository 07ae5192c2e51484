package checkout_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/checkout"
	"github.com/noah-isme/toko-promo/internal/promotion"
)

func newPreviewRouter(src checkout.ActiveSource, limit func(http.Handler) http.Handler) http.Handler {
	h := &checkout.Handler{Svc: &checkout.Service{Catalog: src}, Limit: limit}
	r := chi.NewRouter()
	r.Route("/api/v1", h.Routes)
	return r
}

func postPreview(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/promotion-preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPreviewEndpoint(t *testing.T) {
	src := &stubSource{promos: []promotion.Promotion{discount(uuid.New(), "Shirt deal", "15", shirt, 1)}}
	h := newPreviewRouter(src, nil)

	rr := postPreview(h, `{"items":[{"productId":"`+shirt.String()+`","quantity":3,"unitPrice":"10.50"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Data struct {
			Subtotal          string `json:"subtotal"`
			DiscountAmount    string `json:"discountAmount"`
			FinalAmount       string `json:"finalAmount"`
			AppliedPromotions []struct {
				Name  string `json:"name"`
				Kind  string `json:"kind"`
				Value string `json:"value"`
			} `json:"appliedPromotions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "31.5", body.Data.Subtotal)
	require.Equal(t, "15", body.Data.DiscountAmount)
	require.Equal(t, "16.5", body.Data.FinalAmount)
	require.Len(t, body.Data.AppliedPromotions, 1)
	require.Equal(t, "discount_amount", body.Data.AppliedPromotions[0].Kind)
	require.Equal(t, "15", body.Data.AppliedPromotions[0].Value)
}

func TestPreviewEndpointValidation(t *testing.T) {
	h := newPreviewRouter(&stubSource{}, nil)
	cases := map[string]string{
		"not json":       `{`,
		"no items":       `{"items":[]}`,
		"zero quantity":  `{"items":[{"productId":"` + shirt.String() + `","quantity":0,"unitPrice":"1"}]}`,
		"negative price": `{"items":[{"productId":"` + shirt.String() + `","quantity":1,"unitPrice":"-1"}]}`,
		"missing id":     `{"items":[{"quantity":1,"unitPrice":"1"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := postPreview(h, body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestPreviewEndpointReportsDetailFields(t *testing.T) {
	h := newPreviewRouter(&stubSource{}, nil)
	rr := postPreview(h, `{"items":[{"productId":"`+shirt.String()+`","quantity":0,"unitPrice":"1"}]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"items[0].quantity":"gt"`)
}

func TestPreviewEndpointInvalidPromotion(t *testing.T) {
	broken := discount(uuid.New(), "Broken", "10", shirt, 1)
	broken.DiscountAmount = nil
	h := newPreviewRouter(&stubSource{promos: []promotion.Promotion{broken}}, nil)

	rr := postPreview(h, `{"items":[{"productId":"`+shirt.String()+`","quantity":1,"unitPrice":"5"}]}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), `"INVALID_PROMOTION"`)
}

func TestPreviewRouteUsesLimiter(t *testing.T) {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	h := newPreviewRouter(&stubSource{}, blocked)
	rr := postPreview(h, `{"items":[]}`)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
}
