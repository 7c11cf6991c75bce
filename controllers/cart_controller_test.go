package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-service/middleware"
	"storefront-service/repository"
	"storefront-service/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cartRepo := repository.NewCartRepository(client, time.Hour)
	cartSvc := services.NewCartService(cartRepo, 4, zap.NewNop())

	r := gin.New()
	cartCtrl := NewCartController(cartSvc, zap.NewNop())

	session := r.Group("/", middleware.RequireSession())
	cartGroup := session.Group("/cart")
	cartGroup.GET("", cartCtrl.GetCart)
	cartGroup.POST("/items", cartCtrl.AddItem)
	cartGroup.POST("/items/:id/increment", cartCtrl.Increment)
	return r
}

func doRequest(r *gin.Engine, method, path, body, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if sessionID != "" {
		req.Header.Set(middleware.SessionHeader, sessionID)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMissingSessionHeaderRejected(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/cart", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddItemAndGetCart(t *testing.T) {
	r := newTestRouter(t)

	body := `{"id":"p1","name":"Kit","unit_price":29.90,"quantity":2}`
	w := doRequest(r, http.MethodPost, "/cart/items", body, "s1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_quantity":2`)
	assert.Contains(t, w.Body.String(), `R$ 59,80`)

	w = doRequest(r, http.MethodGet, "/cart", "", "s1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"p1"`)
}

func TestQuantityCapReturns422(t *testing.T) {
	r := newTestRouter(t)

	body := `{"id":"p1","name":"Kit","unit_price":29.90,"quantity":4}`
	w := doRequest(r, http.MethodPost, "/cart/items", body, "s1")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/cart/items/p1/increment", "", "s1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
