package web_test

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doceeser/orderboard/internal/auth"
	"github.com/doceeser/orderboard/internal/board"
	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/shellcache"
	"github.com/doceeser/orderboard/internal/storage/memory"
	"github.com/doceeser/orderboard/internal/web"
)

const password = "071224"

type failingStore struct {
	domain.OrderStore
}

func (failingStore) UpdateStatus(context.Context, string, domain.OrderStatus) error {
	return errors.New("permission denied")
}

type fixture struct {
	store    domain.OrderStore
	gate     *auth.Gate
	registry *board.Registry
	cache    *shellcache.Cache
	handler  http.Handler
}

func newFixture(t *testing.T, writer domain.StatusWriter) *fixture {
	t.Helper()
	store := memory.NewOrderStore()
	if writer == nil {
		writer = store
	}
	gate := auth.NewGate(password, "test-secret", time.Hour)
	registry := board.NewRegistry(store, board.SessionConfig{BannerDuration: time.Minute, AnnounceInitial: true})
	t.Cleanup(registry.CloseAll)
	cache := shellcache.New("doceeser-cache-test", shellcache.DefaultAssets, nil)

	h, err := web.NewHandler(web.Deps{
		Gate:      gate,
		Registry:  registry,
		Mutator:   board.NewStatusMutator(writer, nil, nil, time.Second),
		Cache:     cache,
		Heartbeat: time.Second,
	})
	require.NoError(t, err)

	return &fixture{store: store, gate: gate, registry: registry, cache: cache, handler: h.Routes()}
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	_, token, err := f.gate.Login(password)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestStorefront_ShellIsCached(t *testing.T) {
	f := newFixture(t, nil)

	first := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	second := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "Doce É Ser")
	assert.Equal(t, "miss", first.Header().Get(shellcache.HeaderCache))
	assert.Equal(t, "hit", second.Header().Get(shellcache.HeaderCache))
}

func TestStorefront_ServiceWorkerCarriesVersion(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/sw.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doceeser-cache-test")
}

func TestAdminScript_DoesNotReconnect(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/admin/assets/admin.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "addEventListener('closed'")
	assert.Equal(t, 2, strings.Count(body, "source.close()"))
}

func TestRouting_AdminPrefix(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/admin-panel/old", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/produtos/brigadeiro", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Doce É Ser")
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)

	form := url.Values{"password": {"000000"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Senha incorreta.")

	form = url.Values{"password": {password}}
	req = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = f.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Painel de Pedidos")
}

func statusRequest(token, orderID, status string) *http.Request {
	form := url.Values{"status": {status}}
	req := httptest.NewRequest(http.MethodPost, "/admin/orders/"+orderID+"/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.store.Create(ctx, domain.Order{ID: "A", Total: decimal.NewFromInt(10)})
	require.NoError(t, err)

	rec := f.do(statusRequest(f.token(t), "A", "preparing"))
	require.Equal(t, http.StatusNoContent, rec.Code)

	orders, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, orders[0].Status)

	rec = f.do(statusRequest(f.token(t), "A", "cancelled"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetStatus_NormalizesInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.store.Create(ctx, domain.Order{ID: "A", Total: decimal.NewFromInt(10)})
	require.NoError(t, err)

	rec := f.do(statusRequest(f.token(t), "A", "  Ready "))
	require.Equal(t, http.StatusNoContent, rec.Code)

	orders, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReady, orders[0].Status)

	rec = f.do(statusRequest(f.token(t), "A", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetStatus_Unauthenticated(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(statusRequest("", "A", "ready"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetStatus_StoreFailureShowsAlert(t *testing.T) {
	f := newFixture(t, failingStore{})

	rec := f.do(statusRequest(f.token(t), "A", "ready"))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Erro ao atualizar status.")
}

func TestEvents_StreamsBoardAndAlerts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.store.Create(ctx, domain.Order{
		ID:       "pedido-1",
		Total:    decimal.RequireFromString("19.9"),
		Customer: domain.Customer{Name: "Joana"},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/admin/events?notifications=granted", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token(t))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	seen := map[string]bool{}
	var boardWithOrder bool
	scanner := bufio.NewScanner(resp.Body)
	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
			seen[event] = true
		case event == "board" && strings.Contains(line, "pedido-1"):
			boardWithOrder = true
		case event == "notification" && strings.HasPrefix(line, "data: "):
			assert.Contains(t, line, "Pedido #pedido-1 - R$ 19.90")
		}
		if boardWithOrder && seen["notification"] && seen["sound"] {
			break
		}
	}

	assert.True(t, seen["session"])
	assert.True(t, boardWithOrder)
	assert.True(t, seen["notification"])
	assert.True(t, seen["sound"])
}
