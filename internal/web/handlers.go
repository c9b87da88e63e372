package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/auth"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/gallery"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/project"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/session"
)

type handler struct {
	svc       Services
	logger    *zap.Logger
	templates *template.Template
}

type selectRequest struct {
	Index *int `json:"index" binding:"required"`
}

type wheelRequest struct {
	DeltaY *float64 `json:"deltaY" binding:"required"`
}

// index starts a fresh page: one project load, earliest year selected.
// Every page load gets its own session so tabs do not share a selection.
func (h *handler) index(c *gin.Context) {
	id := auth.NewSessionID()

	token, expiresAt, err := h.svc.Auth.IssueToken(id)
	if err != nil {
		h.logger.Error("❌ Error issuing session token", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	s := h.svc.Sessions.Create(c.Request.Context(), id, h.buildController)

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, maxAge, "/", "", h.svc.SecureCookies, true)

	c.HTML(http.StatusOK, "index.html", indexView{
		Page:         newPageView(s.View.Snapshot()),
		SessionToken: token,
	})
}

// buildController loads the projects and renders the first year. A failed
// load is only logged; the page stays empty.
func (h *handler) buildController(ctx context.Context, view *gallery.View) *gallery.Controller {
	projects, err := h.svc.Projects.Load(ctx)
	if err != nil {
		h.logger.Error("❌ Error loading projects", zap.Error(err))
		projects = nil
	}
	return gallery.New(projects, view, h.svc.GalleryOptions...)
}

func (h *handler) selectYear(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.Controller.Click(*req.Index); err != nil {
		if errors.Is(err, gallery.ErrIndexOutOfRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	frags, err := h.renderFragments(s.View.Snapshot())
	if err != nil {
		h.logger.Error("❌ Error rendering fragments", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, frags)
}

func (h *handler) wheel(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	var req wheelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.Controller.Wheel(*req.DeltaY)
	c.Status(http.StatusAccepted)
}

// events streams a "view" event with the page fragments after every
// transition of the visitor's gallery.
func (h *handler) events(c *gin.Context) {
	s, ok := h.currentSession(c)
	if !ok {
		return
	}

	updates, cancel := s.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	send := func(snap gallery.Snapshot) bool {
		frags, err := h.renderFragments(snap)
		if err != nil {
			h.logger.Error("❌ Error rendering fragments", zap.Error(err))
			return false
		}
		c.SSEvent("view", frags)
		c.Writer.Flush()
		return true
	}

	if !send(s.View.Snapshot()) {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-updates:
			if !open || !send(snap) {
				return
			}
		}
	}
}

func (h *handler) projects(c *gin.Context) {
	ps, err := h.svc.Projects.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("❌ Error loading projects", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "projects unavailable"})
		return
	}
	if ps == nil {
		ps = []project.Project{}
	}
	c.JSON(http.StatusOK, project.Document{Projects: ps})
}

func (h *handler) years(c *gin.Context) {
	ps, err := h.svc.Projects.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("❌ Error loading projects", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "projects unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": project.Years(ps)})
}

// sessionToken finds the page's token: the header set by the page script,
// the query of the event stream, then the cookie of the last page load.
func sessionToken(c *gin.Context) string {
	if token := c.GetHeader(sessionHeader); token != "" {
		return token
	}
	if token := c.Query(sessionQuery); token != "" {
		return token
	}
	token, _ := c.Cookie(sessionCookie)
	return token
}

func (h *handler) sessionID(c *gin.Context) (string, bool) {
	token := sessionToken(c)
	if token == "" {
		return "", false
	}
	id, err := h.svc.Auth.ValidateToken(token)
	if err != nil {
		h.logger.Debug("🍪 Discarding session token", zap.Error(err))
		return "", false
	}
	return id, true
}

func (h *handler) currentSession(c *gin.Context) (*session.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no gallery session"})
		return nil, false
	}
	s, err := h.svc.Sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}
