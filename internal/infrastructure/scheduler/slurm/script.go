// Package slurm renders batch scripts and hands them to the cluster scheduler.
package slurm

import (
	"os"
	"strings"

	"github.com/turtacn/af3-portal/pkg/errors"
)

// Template placeholders substituted by ScriptRenderer.
const (
	PlaceholderJobName   = "{{JOBNAME}}"
	PlaceholderEmail     = "{{EMAIL}}"
	PlaceholderWorkDir   = "{{WORKDIR}}"
	PlaceholderTimestamp = "{{TIMESTAMP}}"
)

// ScriptParams are the values substituted into the template.
type ScriptParams struct {
	JobName   string
	Email     string
	WorkDir   string
	Timestamp string
}

// ScriptRenderer fills in a batch script template.
type ScriptRenderer struct {
	template string
}

// NewScriptRenderer wraps an in-memory template.
func NewScriptRenderer(template string) *ScriptRenderer {
	return &ScriptRenderer{template: template}
}

// LoadScriptRenderer reads the template at path on every call, so edits take
// effect on the next submission.  A missing template is reported as JOB_007.
func LoadScriptRenderer(path string) (*ScriptRenderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTemplateUnavailable, "scheduler template unavailable").
			WithDetail("path=" + path)
	}
	return NewScriptRenderer(string(data)), nil
}

// Render substitutes every placeholder occurrence.  Unknown {{...}} markers
// are left as they are.
func (r *ScriptRenderer) Render(p ScriptParams) string {
	return strings.NewReplacer(
		PlaceholderJobName, p.JobName,
		PlaceholderEmail, p.Email,
		PlaceholderWorkDir, p.WorkDir,
		PlaceholderTimestamp, p.Timestamp,
	).Replace(r.template)
}
