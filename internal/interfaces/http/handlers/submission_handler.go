package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	appSub "github.com/turtacn/af3-portal/internal/application/submission"
	domainSub "github.com/turtacn/af3-portal/internal/domain/submission"
)

// SubmissionHandler serves the Submit tab's form actions.
type SubmissionHandler struct {
	svc appSub.Service
}

func NewSubmissionHandler(svc appSub.Service) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

func (h *SubmissionHandler) RegisterRoutes(api gin.IRouter) {
	api.GET("/entities/new", h.NewEntity)
	api.POST("/submissions/preview", h.Preview)
	api.POST("/submissions/export", h.Export)
}

// NewEntity returns a blank entity card.
func (h *SubmissionHandler) NewEntity(c *gin.Context) {
	c.JSON(http.StatusOK, appSub.NewCard())
}

// Preview validates and renders the form.
func (h *SubmissionHandler) Preview(c *gin.Context) {
	var form appSub.Form
	if !bindJSON(c, &form) {
		return
	}
	preview, err := h.svc.Preview(c.Request.Context(), form)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

type exportRequest struct {
	JobName  string              `json:"jobName"`
	Document *domainSub.Document `json:"document"`
}

// Export returns the generated document as a download.
func (h *SubmissionHandler) Export(c *gin.Context) {
	var req exportRequest
	if !bindJSON(c, &req) {
		return
	}
	exp, err := h.svc.Export(req.JobName, req.Document)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.FileName}))
	c.Data(http.StatusOK, "application/json", exp.Body)
}
