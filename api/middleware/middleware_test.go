package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var jwtCfg = config.JWTConfig{Secret: "test-secret", Audience: "authenticated"}

func captureIdentity(dst *pkgAuth.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*dst = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestIdentityIssuesDeviceCookieForNewClients(t *testing.T) {
	var got pkgAuth.Identity
	h := Identity(jwtCfg, logger.Nop())(captureIdentity(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DeviceCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, got.DeviceID)
	assert.False(t, got.IsAuthenticated())
}

func TestIdentityPrefersHeaderAndResolvesBearer(t *testing.T) {
	token, err := pkgAuth.MintAccessToken(jwtCfg, time.Now(), "user-42", "a@example.com", time.Hour)
	require.NoError(t, err)

	var got pkgAuth.Identity
	h := Identity(jwtCfg, logger.Nop())(captureIdentity(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DeviceIDHeader, "device-1")
	req.AddCookie(&http.Cookie{Name: DeviceCookie, Value: "device-cookie"})
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, pkgAuth.Authenticated("user-42", "device-1"), got)
}

func TestIdentityRejectsBadBearer(t *testing.T) {
	h := Identity(jwtCfg, logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	for _, header := range []string{"Bearer", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestCleanDeviceID(t *testing.T) {
	assert.Equal(t, "abc", cleanDeviceID("  abc "))
	assert.Empty(t, cleanDeviceID("a:b"))
	assert.Empty(t, cleanDeviceID("a b"))
	assert.Empty(t, cleanDeviceID(strings.Repeat("x", maxDeviceIDLength+1)))
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), pkgAuth.Anonymous("d"))))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), pkgAuth.Authenticated("u", "d"))))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeLimiter struct {
	counts map[string]int64
	err    error
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func TestIdentityRateLimit(t *testing.T) {
	limiter := &fakeLimiter{counts: map[string]int64{}}
	h := IdentityRateLimit(NewRateLimitPolicy("Chat", time.Minute, 1), limiter, logger.Nop())(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	call := func(identity pkgAuth.Identity) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), identity)))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(pkgAuth.Anonymous("d1")))
	assert.Equal(t, http.StatusTooManyRequests, call(pkgAuth.Anonymous("d1")))
	assert.Equal(t, http.StatusOK, call(pkgAuth.Anonymous("d2")))
	assert.Contains(t, limiter.counts, "chat:"+pkgAuth.Anonymous("d1").Key())

	limiter.err = errors.New("redis down")
	assert.Equal(t, http.StatusOK, call(pkgAuth.Anonymous("d1")), "limiter outage fails open")
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestRequestIDEchoesSaneInboundIDs(t *testing.T) {
	var seen string
	h := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		seen = w.Header().Get(requestIDHeader)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc-123", seen)

	req.Header.Set(requestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", seen)
	assert.Len(t, seen, 36)
}

func TestRecovererRendersInternalError(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
}

func TestRecovererRepanicsAbortHandler(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
