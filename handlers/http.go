// Package handlers contains the http status surface of a discovery node.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"

	"github.com/ezloteam/cote/helpers"
	"github.com/ezloteam/cote/interfaces"
	"github.com/ezloteam/cote/service"
	"github.com/ezloteam/cote/telemetry"
)

// HTTPServer serves the peer table, the local identity and the advertisement of one node.
type HTTPServer struct {
	discoverer interfaces.Discoverer
	logger     log.Logger
}

// NewHTTPServer creates a new HTTPServer.
func NewHTTPServer(discoverer interfaces.Discoverer, logger log.Logger) *HTTPServer {
	return &HTTPServer{
		discoverer: helpers.NilPanic(discoverer, "handlers.http.go: discoverer is required"),
		logger:     log.WithPrefix(helpers.NilPanic(logger, "handlers.http.go: logger is required"), "component", "HTTPServer"),
	}
}

// RegisterHandlers mounts the status routes and /metrics on e.
func RegisterHandlers(e *echo.Echo, h *HTTPServer) {
	e.Use(telemetry.Instrument())
	e.GET("/v1/nodes", h.GetNodes)
	e.GET("/v1/self", h.GetSelf)
	e.PUT("/v1/advertisement", h.PutAdvertisement)
	e.GET("/metrics", echo.WrapHandler(telemetry.MetricsHandler()))
}

// GetNodes (GET /v1/nodes) returns the peer table sorted by id. 404 when no peer is known.
func (h *HTTPServer) GetNodes(ectx echo.Context) error {
	nodes := h.discoverer.Nodes()
	if len(nodes) == 0 {
		return service.NewEntityNotFoundError("no peers discovered yet", nil)
	}
	return ectx.JSON(http.StatusOK, toNodesResponse(nodes))
}

// GetSelf (GET /v1/self) returns the local identity and the hello the next announcement carries.
func (h *HTTPServer) GetSelf(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, toSelfResponse(h.discoverer.Identity(), h.discoverer.Me()))
}

// PutAdvertisement (PUT /v1/advertisement) replaces the advertisement with the JSON request body.
func (h *HTTPServer) PutAdvertisement(ectx echo.Context) error {
	body, err := io.ReadAll(ectx.Request().Body)
	if err != nil {
		return service.NewBadParameterError("cannot read request body", err)
	}
	if !json.Valid(body) {
		return service.NewBadParameterError("advertisement must be a JSON document", nil)
	}
	if err := h.discoverer.Advertise(json.RawMessage(body)); err != nil {
		return fmt.Errorf("putAdvertisement failed to advertise, err: %w", err)
	}
	return ectx.NoContent(http.StatusNoContent)
}
