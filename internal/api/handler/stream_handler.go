package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/service"
)

// StreamServer upgrades a request to a change stream for one profile and
// blocks until the connection closes.
type StreamServer func(w http.ResponseWriter, r *http.Request, p *service.Profile) error

// StreamHandler serves the live cart and session stream.
type StreamHandler struct {
	serve StreamServer
	log   zerolog.Logger
}

func NewStreamHandler(serve StreamServer, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{serve: serve, log: log}
}

// Stream upgrades to a WebSocket that first receives the current session and
// cart, then every later change of either.
//
// @Summary      Live cart and session changes
// @Tags         stream
// @Success      101
// @Router       /v1/stream [get]
func (h *StreamHandler) Stream(c echo.Context) error {
	p, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := h.serve(c.Response(), c.Request(), p); err != nil {
		h.log.Warn().Err(err).Str("profile_id", p.ID).Msg("change stream ended with error")
	}
	return nil
}
