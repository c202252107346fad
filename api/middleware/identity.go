package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	DeviceIDHeader = "X-Device-Id"
	DeviceCookie   = "sf_device"

	deviceCookieMaxAge = 365 * 24 * time.Hour
	maxDeviceIDLength  = 128
)

// Identity resolves who the request acts for. A bearer token is optional but
// must be valid when present. The device id is always resolved, and a fresh
// one is issued as a cookie when the client has none.
func Identity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var userID string
			if token, present := bearerToken(r); present {
				if token == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				claims, err := pkgAuth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				userID = claims.UserID()
			}

			deviceID := deviceIDFromRequest(r)
			if deviceID == "" {
				deviceID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    deviceID,
					Path:     "/",
					MaxAge:   int(deviceCookieMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   r.TLS != nil,
				})
			}

			identity := pkgAuth.Anonymous(deviceID)
			if userID != "" {
				identity = pkgAuth.Authenticated(userID, deviceID)
			}
			ctx = WithIdentity(ctx, identity)

			if logg != nil {
				ctx = logg.WithDeviceID(ctx, identity.DeviceID)
				if identity.IsAuthenticated() {
					ctx = logg.WithUserID(ctx, identity.UserID)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests the Identity middleware left anonymous.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).IsAuthenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token, true
}

func deviceIDFromRequest(r *http.Request) string {
	if v := cleanDeviceID(r.Header.Get(DeviceIDHeader)); v != "" {
		return v
	}
	if c, err := r.Cookie(DeviceCookie); err == nil {
		return cleanDeviceID(c.Value)
	}
	return ""
}

func cleanDeviceID(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) > maxDeviceIDLength || strings.ContainsAny(v, ": \t") {
		return ""
	}
	return v
}
