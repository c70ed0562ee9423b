package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/xplr/session-gateway/internal/api/metrics"
)

// DeviceIDKey is the echo context key holding the device ID.
const DeviceIDKey = "device_id"

// DeviceOptions configures the device cookie.
type DeviceOptions struct {
	Secret     []byte
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Device identifies the calling browser by a signed cookie and injects the
// device ID into the context. A missing or invalid cookie gets a fresh
// identity. The cookie scopes stored flags; it proves nothing about the user.
func Device(opts DeviceOptions) echo.MiddlewareFunc {
	if opts.CookieName == "" {
		opts.CookieName = "xplr_device"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cookie, err := c.Cookie(opts.CookieName); err == nil {
				if id, err := ParseDeviceToken(opts.Secret, cookie.Value); err == nil {
					c.Set(DeviceIDKey, id)
					return next(c)
				}
			}

			id := uuid.NewString()
			signed, err := IssueDeviceToken(opts.Secret, id, time.Now())
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "device identity unavailable").SetInternal(err)
			}
			c.SetCookie(&http.Cookie{
				Name:     opts.CookieName,
				Value:    signed,
				Path:     "/",
				MaxAge:   int(opts.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			metrics.DevicesIssuedTotal.Inc()

			c.Set(DeviceIDKey, id)
			return next(c)
		}
	}
}

// IssueDeviceToken signs a device ID as an HS256 JWT subject.
func IssueDeviceToken(secret []byte, deviceID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  deviceID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseDeviceToken verifies the signature and returns the device ID.
func ParseDeviceToken(secret []byte, raw string) (string, error) {
	claims := jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
