package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	domainSub "github.com/turtacn/af3-portal/internal/domain/submission"
	"github.com/turtacn/af3-portal/internal/interfaces/http/middleware"
	"github.com/turtacn/af3-portal/pkg/errors"
)

//go:embed web/index.html
var webFS embed.FS

const (
	// ThemeCookie persists the dark-mode toggle.
	ThemeCookie = "theme"

	ThemeLight = "light"
	ThemeDark  = "dark"

	pageTemplate = "index.html"
	themeMaxAge  = 365 * 24 * 60 * 60
)

// PageTemplate parses the single-page UI.
func PageTemplate() *template.Template {
	return template.Must(template.New(pageTemplate).ParseFS(webFS, "web/"+pageTemplate))
}

// PageHandler serves the Submit / History page and the caller's identity.
type PageHandler struct {
	title string
}

func NewPageHandler(title string) *PageHandler {
	if title == "" {
		title = "AlphaFold 3 Submission"
	}
	return &PageHandler{title: title}
}

func (h *PageHandler) RegisterRoutes(r gin.IRouter, api gin.IRouter) {
	r.GET("/", h.Index)
	api.GET("/whoami", h.WhoAmI)
	api.PUT("/preferences/theme", h.SetTheme)
}

// Index renders the page.  The body class comes from the theme cookie so the
// page does not flash when dark mode is on.
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplate, gin.H{
		"Title": h.title,
		"User":  middleware.GetUser(c),
		"Theme": themeFromCookie(c),
		"Kinds": domainSub.Kinds,
	})
}

type whoAmIResponse struct {
	User string `json:"user"`
}

func (h *PageHandler) WhoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, whoAmIResponse{User: middleware.GetUser(c)})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// SetTheme stores the theme choice in a cookie.
func (h *PageHandler) SetTheme(c *gin.Context) {
	var req themeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Theme != ThemeLight && req.Theme != ThemeDark {
		writeAppError(c, errors.New(errors.ErrCodeValidation, "theme must be light or dark"))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ThemeCookie, req.Theme, themeMaxAge, "/", "", false, false)
	c.JSON(http.StatusOK, req)
}

func themeFromCookie(c *gin.Context) string {
	if v, err := c.Cookie(ThemeCookie); err == nil && v == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}
