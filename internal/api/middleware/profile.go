package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greenleaf/storefront/internal/core/service"
)

const (
	// ProfileCookie carries the browser profile id.
	ProfileCookie = "sf_profile"
	// ProfileHeader overrides the cookie for non-browser clients.
	ProfileHeader = "X-Profile-ID"

	profileCookieMaxAge = 365 * 24 * time.Hour
)

// Profile resolves the browser profile of the request and injects it into
// context under "profile". A request without a valid profile id gets a new
// one, returned both as a cookie and in the X-Profile-ID response header.
func Profile(profiles *service.Profiles, secureCookie bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, fresh := profileID(c.Request())
			if fresh {
				c.SetCookie(&http.Cookie{
					Name:     ProfileCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(profileCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Response().Header().Set(ProfileHeader, id)

			p, err := profiles.Open(c.Request().Context(), id)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "profile storage unavailable")
			}

			c.Set("profile", p)
			return next(c)
		}
	}
}

// profileID returns the id carried by the request, or a new one with fresh
// set. Ids that are not UUIDs are replaced.
func profileID(r *http.Request) (id string, fresh bool) {
	if h := r.Header.Get(ProfileHeader); h != "" {
		if u, err := uuid.Parse(h); err == nil {
			return u.String(), false
		}
	}
	if ck, err := r.Cookie(ProfileCookie); err == nil {
		if u, err := uuid.Parse(ck.Value); err == nil {
			return u.String(), false
		}
	}
	return uuid.NewString(), true
}
