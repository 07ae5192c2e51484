package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/common"
)

func newRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := catalog.NewHandler(catalog.HandlerConfig{Service: f.svc})
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		h.Routes(r)
		r.Route("/admin", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					ctx := common.WithActor(req.Context(), common.Actor{ID: "admin-1", Roles: []string{"admin"}})
					next.ServeHTTP(w, req.WithContext(ctx))
				})
			})
			h.AdminRoutes(r)
		})
	})
	return r, f
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const createBody = `{
  "name": "Two shirts, save 20",
  "discountKind": "discount_amount",
  "discountAmount": "20.00",
  "conditionGroups": [{"details": [{"productId": "7b0c0c1e-5d8e-4b8e-9c1a-000000000001", "requiredQuantity": 2}]}]
}`

func TestCreateAndGetPromotion(t *testing.T) {
	h, f := newRouter(t)

	rr := do(h, http.MethodPost, "/api/v1/admin/promotions", createBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Data struct {
			ID             uuid.UUID `json:"id"`
			Slug           string    `json:"slug"`
			DiscountAmount string    `json:"discountAmount"`
			CreatedBy      string    `json:"createdBy"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "two-shirts-save-20", created.Data.Slug)
	require.Equal(t, "20", created.Data.DiscountAmount)
	require.Equal(t, "admin-1", created.Data.CreatedBy)
	require.Equal(t, "/api/v1/promotions/"+created.Data.ID.String(), rr.Header().Get("Location"))

	rr = do(h, http.MethodGet, "/api/v1/promotions/"+created.Data.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"name":"Two shirts, save 20"`)
	require.Len(t, f.events.topics(), 1)
}

func TestCreateValidationError(t *testing.T) {
	h, _ := newRouter(t)
	rr := do(h, http.MethodPost, "/api/v1/admin/promotions", `{"name":"x","discountKind":"gift","conditionGroups":[]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	details := body.Error.Details.(map[string]any)
	require.Contains(t, details, "conditionGroups")
	require.Contains(t, details, "giftItems")
}

func TestCreateRejectsUnknownFields(t *testing.T) {
	h, _ := newRouter(t)
	rr := do(h, http.MethodPost, "/api/v1/admin/promotions", `{"name":"x","percent":10}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"BAD_REQUEST"`)
}

func TestCreateDuplicateSlugConflict(t *testing.T) {
	h, _ := newRouter(t)
	require.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/api/v1/admin/promotions", createBody).Code)
	rr := do(h, http.MethodPost, "/api/v1/admin/promotions", createBody)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestGetUnknownAndMalformedID(t *testing.T) {
	h, _ := newRouter(t)
	require.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/promotions/"+uuid.NewString(), "").Code)
	require.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/promotions/not-a-uuid", "").Code)
}

func TestUpdateAndDeleteEndpoints(t *testing.T) {
	h, f := newRouter(t)
	p, err := f.svc.Create(context.Background(), "seed", discountInput("Original", "5"))
	require.NoError(t, err)
	path := "/api/v1/admin/promotions/" + p.ID.String()

	rr := do(h, http.MethodPut, path, strings.Replace(createBody, "20.00", "30", 1))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"discountAmount":"30"`)
	require.Contains(t, rr.Body.String(), `"updatedBy":"admin-1"`)

	require.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, path, "").Code)
	require.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, path, "").Code)
}

func TestListEndpoint(t *testing.T) {
	h, f := newRouter(t)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		_, err := f.svc.Create(context.Background(), "seed", discountInput(name, "1"))
		require.NoError(t, err)
	}

	rr := do(h, http.MethodGet, "/api/v1/promotions?page=1&size=2&sort=name&direction=desc&isActive=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "3", rr.Header().Get("X-Total-Count"))

	var body struct {
		Data       []json.RawMessage `json:"data"`
		Pagination common.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, common.Pagination{Page: 1, PerPage: 2, TotalItems: 3, TotalPages: 2, Sort: "name", Direction: "desc"}, body.Pagination)
	require.NotNil(t, f.store.lastFilter.IsActive)
}

func TestListRejectsBadParameters(t *testing.T) {
	h, _ := newRouter(t)
	for _, q := range []string{"page=0", "size=abc", "sort=price", "direction=up", "isActive=maybe", "id=zzz"} {
		rr := do(h, http.MethodGet, "/api/v1/promotions?"+q, "")
		require.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestActiveEndpoint(t *testing.T) {
	h, f := newRouter(t)
	_, err := f.svc.Create(context.Background(), "seed", giftInput("Socks"))
	require.NoError(t, err)
	expired := discountInput("Expired", "4")
	ended := f.now.Add(-time.Hour)
	expired.EndsAt = &ended
	_, err = f.svc.Create(context.Background(), "seed", expired)
	require.NoError(t, err)

	rr := do(h, http.MethodGet, "/api/v1/promotions/active", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "Socks", body.Data[0].Name)
}
