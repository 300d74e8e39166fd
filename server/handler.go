// Package server exposes the lookup pipeline over HTTP.
package server

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/plantnet"
	"github.com/florawise/plantdetails/resolver"
)

// Identifier resolves a photo to candidate species.
type Identifier interface {
	Identify(ctx context.Context, image io.Reader, filename, organ string) ([]plantnet.Match, error)
}

// Handler holds the lookup backends behind the HTTP endpoints. All blocking
// lookups run on the shared pool so request handlers never outnumber the
// workers the site can tolerate.
type Handler struct {
	pool       *resolver.Pool
	combined   resolver.Backend
	site       resolver.Backend
	generative resolver.Fallback
	identifier Identifier
}

// NewHandler wires the endpoints to their backends.
func NewHandler(pool *resolver.Pool, combined, site resolver.Backend, generative resolver.Fallback, identifier Identifier) *Handler {
	return &Handler{
		pool:       pool,
		combined:   combined,
		site:       site,
		generative: generative,
		identifier: identifier,
	}
}

type detailsRequest struct {
	Plant string `json:"plant" binding:"required"`
}

// PlantDetails answers a lookup using the full chain: the reference site
// first, the generative provider on any failure.
func (h *Handler) PlantDetails(c *gin.Context) {
	h.lookup(c, h.combined.Resolve)
}

// PlantDetailsSite answers a lookup from the reference site only.
func (h *Handler) PlantDetailsSite(c *gin.Context) {
	h.lookup(c, h.site.Resolve)
}

// PlantDetailsGenerative answers a lookup from the generative provider only.
func (h *Handler) PlantDetailsGenerative(c *gin.Context) {
	h.lookup(c, h.generative.Generate)
}

func (h *Handler) lookup(c *gin.Context, fn resolver.LookupFunc) {
	var req detailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderFault(c, faults.Validation("request must include a plant name"))
		return
	}

	outcome := <-h.pool.Submit(c.Request.Context(), req.Plant, fn)
	if outcome.Err != nil {
		renderFault(c, outcome.Err)
		return
	}
	c.JSON(http.StatusOK, outcome.Details)
}

// IdentifyPlant resolves an uploaded photo to candidate species.
func (h *Handler) IdentifyPlant(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		renderFault(c, faults.Validation("request must include an image file"))
		return
	}
	file, err := header.Open()
	if err != nil {
		renderFault(c, faults.Validation("uploaded image could not be read"))
		return
	}
	defer file.Close()

	// Upstream never sees the caller's filename.
	filename := uuid.NewString() + filepath.Ext(header.Filename)
	matches, err := h.identifier.Identify(c.Request.Context(), file, filename, c.PostForm("organ"))
	if err != nil {
		renderFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "plantdetails"})
}

// renderFault writes the classified failure as the response body. The fault's
// status and code are the outward contract; wrapped causes stay in Details.
func renderFault(c *gin.Context, err error) {
	f := faults.From(err)
	body := gin.H{
		"error_code": f.Code,
		"message":    f.Message,
	}
	if len(f.Details) > 0 {
		body["details"] = f.Details
	}
	c.AbortWithStatusJSON(f.Status, body)
}
