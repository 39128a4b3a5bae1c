package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dhruvilrpatil/urlshortner/internal/core"
	"github.com/dhruvilrpatil/urlshortner/internal/http/middleware"
)

type Handlers struct {
	svc     *core.Service
	baseURL string
	log     zerolog.Logger
}

func NewHandlers(svc *core.Service, baseURL string, log zerolog.Logger) *Handlers {
	return &Handlers{svc: svc, baseURL: baseURL, log: log}
}

// ---- endpoints ----

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Shorten(c *gin.Context) {
	var in core.ShortenRequest
	// An empty body is an empty request; validation reports the missing URL.
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		jsonError(c, http.StatusBadRequest, "invalid json body")
		return
	}
	res, err := h.svc.Shorten(c.Request.Context(), in, middleware.ClientIP(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	rec := res.Link
	if !res.Created {
		c.JSON(http.StatusOK, gin.H{
			"code":         rec.Code,
			"original_url": rec.OriginalURL,
			"short_url":    h.shortURL(c, rec.Code),
			"message":      "This URL was already shortened.",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":         rec.Code,
		"original_url": rec.OriginalURL,
		"short_url":    h.shortURL(c, rec.Code),
		"expires_at":   formatTime(rec.ExpiresAt),
	})
}

func (h *Handlers) Redirect(c *gin.Context) {
	code := c.Param("code")
	rec, err := h.svc.Resolve(c.Request.Context(), code)
	if err != nil {
		if core.IsNotFound(err) {
			notFoundPage(c, code)
			return
		}
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, rec.OriginalURL)
}

func (h *Handlers) Stats(c *gin.Context) {
	rec, err := h.svc.Stats(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":         rec.Code,
		"original_url": rec.OriginalURL,
		"short_url":    h.shortURL(c, rec.Code),
		"created_at":   formatTime(rec.CreatedAt),
		"expires_at":   formatTime(rec.ExpiresAt),
		"click_count":  rec.ClickCount,
	})
}

// ---- helpers ----

// fail maps service errors onto the JSON error contract.
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case core.IsValidation(err):
		jsonError(c, http.StatusBadRequest, err.Error())
	case core.IsNotFound(err):
		jsonError(c, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrCodeTaken):
		jsonError(c, http.StatusConflict, "This short code is already taken. Please choose another one.")
	case errors.Is(err, core.ErrAllocationFailed):
		jsonError(c, http.StatusConflict, "Unable to generate a unique short code.")
	case errors.Is(err, core.ErrSpamDetected):
		jsonError(c, http.StatusTooManyRequests, "Too many repeated submissions. Try again later.")
	case errors.Is(err, core.ErrRateLimited):
		jsonError(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("request failed")
		jsonError(c, http.StatusInternalServerError, "internal error")
	}
}

// shortURL joins the configured base, or the request's own host, with code.
func (h *Handlers) shortURL(c *gin.Context, code string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/" + code
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func jsonError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
