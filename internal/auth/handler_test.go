package auth_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vetstock-erp/vetstock/internal/auth"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

type stubAccounts struct {
	account *auth.Account
}

func (s *stubAccounts) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	if s.account == nil || !strings.EqualFold(s.account.Email, email) {
		return auth.Account{}, shared.ErrNotFound
	}
	return *s.account, nil
}

func newRouter(handler *auth.Handler, service *auth.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		handler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(service))
			handler.MountProtectedRoutes(r)
		})
	})
	return r
}

func newTestService(t *testing.T, accounts *stubAccounts) *auth.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return auth.NewService(accounts, client, "testsecret", time.Hour)
}

func testAccount(t *testing.T, password string) *auth.Account {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.Account{
		ID:           7,
		Email:        "staff@vetstock.local",
		FirstName:    "Dewi",
		Role:         "staff",
		PasswordHash: string(hashed),
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	service := newTestService(t, &stubAccounts{account: testAccount(t, "correcthorse")})
	handler := auth.NewHandler(slog.Default(), service, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"staff@vetstock.local","password":"correcthorse"}`))
	res := httptest.NewRecorder()

	router := newRouter(handler, service)
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"role":"staff"`)

	var tokenCookie *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == auth.CookieName {
			tokenCookie = c
		}
	}
	require.NotNil(t, tokenCookie)
	require.NotEmpty(t, tokenCookie.Value)
	require.True(t, tokenCookie.HttpOnly)

	actor, err := service.Resolve(context.Background(), tokenCookie.Value)
	require.NoError(t, err)
	require.Equal(t, int64(7), actor.UserID)
	require.Equal(t, "staff", actor.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	service := newTestService(t, &stubAccounts{account: testAccount(t, "correcthorse")})
	handler := auth.NewHandler(slog.Default(), service, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"staff@vetstock.local","password":"wrongpassword"}`))
	res := httptest.NewRecorder()

	router := newRouter(handler, service)
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	service := newTestService(t, &stubAccounts{})
	handler := auth.NewHandler(slog.Default(), service, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"nobody@vetstock.local","password":"irrelevant1"}`))
	res := httptest.NewRecorder()

	router := newRouter(handler, service)
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginDisabledAccount(t *testing.T) {
	acc := testAccount(t, "correcthorse")
	acc.Active = false
	service := newTestService(t, &stubAccounts{account: acc})
	handler := auth.NewHandler(slog.Default(), service, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"staff@vetstock.local","password":"correcthorse"}`))
	res := httptest.NewRecorder()

	router := newRouter(handler, service)
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	service := newTestService(t, &stubAccounts{account: testAccount(t, "correcthorse")})
	handler := auth.NewHandler(slog.Default(), service, false)
	router := newRouter(handler, service)

	loginReq := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"staff@vetstock.local","password":"correcthorse"}`))
	loginRes := httptest.NewRecorder()
	router.ServeHTTP(loginRes, loginReq)
	require.Equal(t, http.StatusOK, loginRes.Code)

	var token string
	for _, c := range loginRes.Result().Cookies() {
		if c.Name == auth.CookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	logoutReq := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logoutReq.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	logoutRes := httptest.NewRecorder()
	router.ServeHTTP(logoutRes, logoutReq)
	require.Equal(t, http.StatusOK, logoutRes.Code)

	_, err := service.Resolve(context.Background(), token)
	require.Error(t, err)
}

func TestMeRequiresAuth(t *testing.T) {
	service := newTestService(t, &stubAccounts{})
	handler := auth.NewHandler(slog.Default(), service, false)
	router := newRouter(handler, service)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestBearerHeaderAccepted(t *testing.T) {
	service := newTestService(t, &stubAccounts{account: testAccount(t, "correcthorse")})
	handler := auth.NewHandler(slog.Default(), service, false)
	router := newRouter(handler, service)

	loginReq := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"staff@vetstock.local","password":"correcthorse"}`))
	loginRes := httptest.NewRecorder()
	router.ServeHTTP(loginRes, loginReq)

	var token string
	for _, c := range loginRes.Result().Cookies() {
		if c.Name == auth.CookieName {
			token = c.Value
		}
	}

	meReq := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+token)
	meRes := httptest.NewRecorder()
	router.ServeHTTP(meRes, meReq)

	require.Equal(t, http.StatusOK, meRes.Code)
	require.Contains(t, meRes.Body.String(), `"email":"staff@vetstock.local"`)
}
