package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
	"github.com/greenleaf/storefront/internal/core/service"
)

// ProfileLookup reports whether a profile is currently loaded.
type ProfileLookup interface {
	Loaded(id string) bool
}

// AdminHandler lets administrators inspect the durable snapshot of any
// browser profile. It reads storage directly and never opens the profile.
type AdminHandler struct {
	storage  ports.Storage
	profiles ProfileLookup
}

func NewAdminHandler(storage ports.Storage, profiles ProfileLookup) *AdminHandler {
	return &AdminHandler{storage: storage, profiles: profiles}
}

// Profile returns the stored token presence, user and cart of a profile.
// The token itself is never returned.
//
// @Summary      Inspect a profile snapshot
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  profileSnapshotResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/profiles/{id} [get]
func (h *AdminHandler) Profile(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrProfileNotFound
	}

	ctx := c.Request().Context()
	prefix := service.ProfileKeyPrefix(id)

	_, hasToken, err := h.storage.Get(ctx, prefix+ports.KeyToken)
	if err != nil {
		return err
	}
	rawUser, hasUser, err := h.storage.Get(ctx, prefix+ports.KeyUser)
	if err != nil {
		return err
	}
	rawCart, hasCart, err := h.storage.Get(ctx, prefix+ports.KeyCart)
	if err != nil {
		return err
	}
	if !hasToken && !hasUser && !hasCart {
		return domain.ErrProfileNotFound
	}

	resp := profileSnapshotResponse{
		ID:            id,
		TokenPresent:  hasToken,
		ProfileLoaded: h.profiles.Loaded(id),
	}
	if hasUser {
		if err := json.Unmarshal([]byte(rawUser), &resp.User); err != nil || resp.User == nil {
			resp.User, resp.UserCorrupt = nil, true
		}
	}
	if hasCart {
		if err := json.Unmarshal([]byte(rawCart), &resp.Cart); err != nil || resp.Cart == nil {
			resp.Cart, resp.CartCorrupt = nil, true
		}
	}
	return c.JSON(http.StatusOK, resp)
}
