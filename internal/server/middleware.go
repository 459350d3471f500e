package server

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/guardpost/fieldsync/internal/errs"
)

const claimsKey = "claims"

// requireAuth validates the bearer token and stores the claims on the
// request context. Missing or invalid tokens yield 401.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := ExtractToken(c.Request().Header.Get("Authorization"))
		if err != nil {
			return fail(c, errs.Unauthorized("authentication required"))
		}

		claims, err := s.jwt.ValidateToken(token)
		if err != nil {
			return fail(c, err)
		}
		if claims.Refresh {
			return fail(c, errs.Unauthorized("refresh token cannot access resources"))
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// currentUserID returns the authenticated user's ID.
func currentUserID(c echo.Context) uint {
	claims, ok := c.Get(claimsKey).(*Claims)
	if !ok {
		return 0
	}
	return claims.UserID
}

// rateLimit throttles requests per client IP with a token bucket.
func (s *Server) rateLimit() echo.MiddlewareFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)
			limiters[ip] = limiter
		}
		return limiter
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiterFor(c.RealIP()).Allow() {
				return c.JSON(http.StatusTooManyRequests, statusMessage{
					Status:  http.StatusText(http.StatusTooManyRequests),
					Message: "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
