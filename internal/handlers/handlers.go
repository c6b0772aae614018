package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/biryani-api/internal/classifier"
	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/preprocess"
	"github.com/Brownie44l1/biryani-api/internal/tensor"
)

// multipartSlack covers boundaries and part headers around the image itself.
const multipartSlack = 64 << 10

type Options struct {
	// Transcode re-encodes uploads as 224x224 JPEG before classification.
	Transcode      bool
	MaxUploadBytes int64
}

type Handler struct {
	models     *model.Loading
	classifier *classifier.Classifier
	opts       Options
}

func NewHandler(models *model.Loading, c *classifier.Classifier, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		models:     models,
		classifier: c,
		opts:       opts,
	}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)
	r.POST("/predict/image", h.PredictFromImage)
}

func (h *Handler) Health(c *gin.Context) {
	state := h.models.State()
	status, code := "healthy", http.StatusOK
	if state != model.StateReady {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "model": state})
}

// Predict scores a raw, already normalized [1,224,224,3] tensor.
func (h *Handler) Predict(c *gin.Context) {
	handle, err := h.models.Handle()
	if err != nil {
		h.fail(c, err)
		return
	}

	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	shape := handle.Metadata.InputShape
	if expected := tensor.Volume(shape); len(req.Image) != expected {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Expected %d values, got %d", expected, len(req.Image)),
		})
		return
	}

	input := &tensor.Tensor{Shape: shape, Data: req.Image}
	pred, err := h.classifier.ClassifyTensor(c.Request.Context(), input, handle)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pred.Response())
}

func (h *Handler) PredictFromImage(c *gin.Context) {
	handle, err := h.models.Handle()
	if err != nil {
		h.fail(c, err)
		return
	}

	limit := h.opts.MaxUploadBytes + multipartSlack
	if c.Request.ContentLength > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No image file provided. Use 'image' as the form field name",
		})
		return
	}
	if header.Size > h.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image is too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	log.Debug().
		Str("request_id", c.GetString(requestIDKey)).
		Str("file", header.Filename).
		Int64("size", header.Size).
		Msg("received image")

	if h.opts.Transcode {
		data, err = preprocess.Transcode(data, preprocess.ImageSize)
		if err != nil {
			h.fail(c, err)
			return
		}
	}

	pred, err := h.classifier.ClassifyBytes(c.Request.Context(), data, handle)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pred.Response())
}

func (h *Handler) fail(c *gin.Context, err error) {
	code, msg := http.StatusInternalServerError, "Failed to process the image"
	switch {
	case errors.Is(err, model.ErrModelNotReady):
		code, msg = http.StatusServiceUnavailable, "Model is not loaded yet"
	case errors.Is(err, model.ErrLoad):
		code, msg = http.StatusServiceUnavailable, "Failed to load the model"
	case errors.Is(err, model.ErrBusy):
		code, msg = http.StatusTooManyRequests, "A classification is already in progress"
	case errors.Is(err, model.ErrDecode):
		code, msg = http.StatusBadRequest, "Invalid image format. Supported: JPEG"
		if h.opts.Transcode {
			msg = "Invalid image format. Supported: JPEG, PNG, GIF, WebP, BMP"
		}
	}

	log.Error().
		Err(err).
		Str("request_id", c.GetString(requestIDKey)).
		Int("status", code).
		Msg("prediction failed")
	c.JSON(code, gin.H{"error": msg})
}
