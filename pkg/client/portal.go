package client

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/turtacn/af3-portal/pkg/errors"
)

// EntityForm is one entity card.  Every field is the raw text the web form
// would send; Copies is a decimal string.
type EntityForm struct {
	CardID          string `json:"cardId,omitempty"`
	Type            string `json:"type"`
	Copies          string `json:"copies"`
	Sequence        string `json:"sequence,omitempty"`
	SMILES          string `json:"smiles,omitempty"`
	CCDCodes        string `json:"ccdCodes,omitempty"`
	IonName         string `json:"ionName,omitempty"`
	BondedAtomPairs string `json:"bondedAtomPairs,omitempty"`
}

// Form is the Submit tab.
type Form struct {
	JobName  string       `json:"jobName"`
	Email    string       `json:"email,omitempty"`
	Entities []EntityForm `json:"entities"`
}

// Card is a blank entity card plus the selectable entity types.
type Card struct {
	EntityForm
	Kinds []string `json:"kinds"`
}

// Preview is a rendered alphafold3 input document.  Document is kept raw so
// it can be passed back to Export or Submit unchanged.
type Preview struct {
	Document json.RawMessage `json:"document"`
	JSON     string          `json:"json"`
}

// SubmitRequest submits a previously rendered document.
type SubmitRequest struct {
	JobName  string          `json:"jobName"`
	Email    string          `json:"email"`
	Document json.RawMessage `json:"document"`
}

// Receipt is returned for an accepted job.
type Receipt struct {
	SchedulerJobID string    `json:"schedulerJobId"`
	JobName        string    `json:"jobName"`
	Timestamp      string    `json:"timestamp"`
	SubmittedAt    time.Time `json:"submittedAt"`
	Dir            string    `json:"dir"`
	Message        string    `json:"message"`
}

// HistoryItem is one completed job.
type HistoryItem struct {
	Name        string    `json:"name"`
	Timestamp   string    `json:"timestamp"`
	SubmittedAt time.Time `json:"submittedAt"`
	Display     string    `json:"display"`
	DownloadURL string    `json:"downloadUrl"`
}

// NewCard asks the portal for a blank entity card.
func (c *Client) NewCard(ctx context.Context) (*Card, error) {
	var card Card
	if err := c.do(ctx, http.MethodGet, "/api/v1/entities/new", nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Preview validates and renders form.  Incomplete forms fail with an
// *APIError whose IsValidation is true.
func (c *Client) Preview(ctx context.Context, form Form) (*Preview, error) {
	var p Preview
	if err := c.do(ctx, http.MethodPost, "/api/v1/submissions/preview", form, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Export returns the download name and body of a rendered document.
func (c *Client) Export(ctx context.Context, jobName string, document json.RawMessage) (string, []byte, error) {
	body := map[string]interface{}{"jobName": jobName, "document": document}
	resp, err := c.send(ctx, http.MethodPost, "/api/v1/submissions/export", body)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read export")
	}
	return attachmentName(resp, "af3_input.json"), data, nil
}

// Submit hands a rendered document to the cluster scheduler.  It is never
// retried.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	var r Receipt
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs", req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// History lists completed jobs.
func (c *Client) History(ctx context.Context) ([]HistoryItem, error) {
	var resp struct {
		Entries []HistoryItem `json:"entries"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// DownloadArchive copies the result zip of one job to w and returns its file
// name.  Redirects to the object store are followed.
func (c *Client) DownloadArchive(ctx context.Context, name, timestamp string, w io.Writer) (string, error) {
	path := "/api/v1/jobs/" + url.PathEscape(name) + "/" + url.PathEscape(timestamp) + "/archive"
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to download archive")
	}
	return attachmentName(resp, name+"_"+timestamp+".zip"), nil
}

func attachmentName(resp *http.Response, fallback string) string {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] == "" {
		return fallback
	}
	return params["filename"]
}
