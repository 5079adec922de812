package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmpark/foyer/internal/face"
)

// FaceHandler handles visitor registration and verification endpoints.
// The wire format matches the Unity capture client: frames arrive as
// base64-encoded raw RGB buffers plus their dimensions.
type FaceHandler struct {
	service *face.Service
}

// NewFaceHandler creates a new face handler.
func NewFaceHandler(service *face.Service) *FaceHandler {
	return &FaceHandler{service: service}
}

// RegisterRequest is the enrollment payload.
type RegisterRequest struct {
	Image  string `json:"image" binding:"required"`
	Width  int    `json:"width" binding:"required"`
	Height int    `json:"height" binding:"required"`
	UUID   string `json:"uuid"`
}

// Register handles POST /register.
func (h *FaceHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "failed",
			"error":  "Invalid request: " + err.Error(),
		})
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "failed",
			"error":  "Invalid image encoding: " + err.Error(),
		})
		return
	}

	result, err := h.service.Register(c.Request.Context(), raw, req.Width, req.Height, req.UUID)
	if err != nil {
		if errors.Is(err, face.ErrNoFace) {
			// A faceless frame is a normal outcome for the client, not a fault.
			c.JSON(http.StatusOK, gin.H{
				"status": "failed",
				"error":  "No face",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"visitor_id": result.VisitorID,
	})
}

// VerifyRequest is the verification payload.
type VerifyRequest struct {
	Image  string `json:"image" binding:"required"`
	Width  int    `json:"width" binding:"required"`
	Height int    `json:"height" binding:"required"`
}

// Verify handles POST /verify.
func (h *FaceHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"is_registered": false,
			"error":         "Invalid request: " + err.Error(),
		})
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"is_registered": false,
			"error":         "Invalid image encoding: " + err.Error(),
		})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), raw, req.Width, req.Height)
	if err != nil {
		if errors.Is(err, face.ErrNoFace) {
			c.JSON(http.StatusOK, gin.H{
				"is_registered": false,
				"error":         "No face",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"is_registered": false,
			"error":         err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"visitor_id":    result.VisitorID,
		"is_registered": result.Registered,
		"similarity":    result.Similarity,
	})
}

// Status handles GET /status: visitor count, threshold, and the active
// image-processing configuration. Read-only.
func (h *FaceHandler) Status(c *gin.Context) {
	opts := h.service.ImageOptions()
	body := gin.H{
		"visitors":  h.service.VisitorCount(),
		"threshold": h.service.Threshold(),
		"config": gin.H{
			"target_size":   opts.TargetSize,
			"flip_vertical": opts.FlipVertical,
			"crop_center":   opts.CropCenter,
			"gamma":         opts.Gamma,
			"contrast":      opts.Contrast,
			"brightness":    opts.Brightness,
		},
	}
	if registers, verifies, ok := h.service.AuditCounts(c.Request.Context()); ok {
		body["events"] = gin.H{
			"registers": registers,
			"verifies":  verifies,
		}
	}
	c.JSON(http.StatusOK, body)
}
