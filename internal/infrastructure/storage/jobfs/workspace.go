// Package jobfs manages job directories under the configured base directory.
package jobfs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/turtacn/af3-portal/internal/domain/job"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// StdoutFile and StderrFile hold scheduler output under logs/.
	StdoutFile = "sbatch.out"
	StderrFile = "sbatch.err"
)

// Workspace is the job base directory.
type Workspace struct {
	base   string
	logger logging.Logger
}

// NewWorkspace returns a workspace rooted at base.  The directory is created
// lazily by CreateJobDir.
func NewWorkspace(base string, log logging.Logger) *Workspace {
	return &Workspace{base: base, logger: log}
}

// Base returns the workspace root.
func (w *Workspace) Base() string { return w.base }

// JobDir returns the path of a job directory.
func (w *Workspace) JobDir(dirName string) string {
	return filepath.Join(w.base, dirName)
}

// CreateJobDir creates <base>/<dirName>/ and its logs/ subdirectory.  An
// existing directory is an error so two jobs never share one.
func (w *Workspace) CreateJobDir(dirName string) (string, error) {
	if err := os.MkdirAll(w.base, dirPerm); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeWorkspaceFailed, "failed to create jobs directory").WithDetail("path=" + w.base)
	}
	dir := w.JobDir(dirName)
	if err := os.Mkdir(dir, dirPerm); err != nil {
		if os.IsExist(err) {
			return "", errors.Wrap(err, errors.ErrCodeJobLocked, "job directory already exists").WithDetail("dir=" + dirName)
		}
		return "", errors.Wrap(err, errors.ErrCodeWorkspaceFailed, "failed to create job directory").WithDetail("dir=" + dirName)
	}
	if err := os.Mkdir(filepath.Join(dir, job.LogsDirName), dirPerm); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeWorkspaceFailed, "failed to create logs directory").WithDetail("dir=" + dirName)
	}
	return dir, nil
}

// WriteFile writes data to a file inside a job directory.
func (w *Workspace) WriteFile(dirName, rel string, data []byte) (string, error) {
	path := filepath.Join(w.JobDir(dirName), rel)
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeWorkspaceFailed, "failed to write job file").WithDetail("file=" + rel)
	}
	return path, nil
}

// WriteInput writes input.json.
func (w *Workspace) WriteInput(dirName string, data []byte) (string, error) {
	return w.WriteFile(dirName, job.InputFileName, data)
}

// WriteLogs writes scheduler stdout and stderr captures.
func (w *Workspace) WriteLogs(dirName, stdout, stderr string) error {
	if _, err := w.WriteFile(dirName, filepath.Join(job.LogsDirName, StdoutFile), []byte(stdout)); err != nil {
		return err
	}
	_, err := w.WriteFile(dirName, filepath.Join(job.LogsDirName, StderrFile), []byte(stderr))
	return err
}

// ArchivePath is where the result archive of a job is expected.
func (w *Workspace) ArchivePath(dirName string) string {
	return filepath.Join(w.JobDir(dirName), job.ArchiveName(dirName))
}

// List returns completed jobs: directories named <jobName>_<timestamp> that
// contain their result archive.  Entries are in directory-name order.  A
// missing base directory yields an empty list.
func (w *Workspace) List() ([]job.Entry, error) {
	dirents, err := os.ReadDir(w.base)
	if err != nil {
		if os.IsNotExist(err) {
			return []job.Entry{}, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeWorkspaceFailed, "failed to read jobs directory").WithDetail("path=" + w.base)
	}
	sort.Slice(dirents, func(i, j int) bool { return dirents[i].Name() < dirents[j].Name() })

	entries := make([]job.Entry, 0, len(dirents))
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		name, stamp, at, err := job.ParseDirName(d.Name())
		if err != nil {
			w.logger.Debug("skipping job directory", logging.String("dir", d.Name()), logging.Err(err))
			continue
		}
		archive := w.ArchivePath(d.Name())
		if fi, err := os.Stat(archive); err != nil || fi.IsDir() {
			continue
		}
		entries = append(entries, job.NewEntry(name, stamp, at, archive))
	}
	return entries, nil
}
