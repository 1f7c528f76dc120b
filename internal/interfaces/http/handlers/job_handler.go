package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	appJob "github.com/turtacn/af3-portal/internal/application/job"
	domainJob "github.com/turtacn/af3-portal/internal/domain/job"
	domainSub "github.com/turtacn/af3-portal/internal/domain/submission"
	"github.com/turtacn/af3-portal/internal/interfaces/http/middleware"
)

// JobHandler submits jobs and serves the History tab.
type JobHandler struct {
	svc appJob.Service
}

func NewJobHandler(svc appJob.Service) *JobHandler {
	return &JobHandler{svc: svc}
}

// RegisterRoutes mounts the job routes.  submitChain runs before Submit only.
func (h *JobHandler) RegisterRoutes(api gin.IRouter, submitChain ...gin.HandlerFunc) {
	api.POST("/jobs", append(submitChain, h.Submit)...)
	api.GET("/jobs", h.List)
	api.GET("/jobs/:name/:timestamp/archive", h.Archive)
}

type submitRequest struct {
	JobName  string              `json:"jobName"`
	Email    string              `json:"email"`
	Document *domainSub.Document `json:"document"`
}

// Submit runs a generated document on the cluster.
func (h *JobHandler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	receipt, err := h.svc.Submit(c.Request.Context(), &domainJob.Request{
		JobName:   req.JobName,
		Email:     req.Email,
		User:      middleware.GetUser(c),
		Document:  req.Document,
		RequestID: middleware.GetRequestID(c),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, receipt)
}

// HistoryItem is one History row with its download link.
type HistoryItem struct {
	domainJob.Entry
	DownloadURL string `json:"downloadUrl"`
}

type historyResponse struct {
	Entries []HistoryItem `json:"entries"`
}

// List returns completed jobs.
func (h *JobHandler) List(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{Entry: e, DownloadURL: archiveURL(e)})
	}
	c.JSON(http.StatusOK, historyResponse{Entries: items})
}

func archiveURL(e domainJob.Entry) string {
	return "/api/v1/jobs/" + url.PathEscape(e.Name) + "/" + url.PathEscape(e.Stamp) + "/archive"
}

// Archive streams the local result zip or redirects to the object store.
func (h *JobHandler) Archive(c *gin.Context) {
	archive, err := h.svc.OpenArchive(c.Request.Context(), c.Param("name"), c.Param("timestamp"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	if archive.Path != "" {
		c.FileAttachment(archive.Path, archive.FileName)
		return
	}
	c.Redirect(http.StatusFound, archive.URL)
}
