// Package job submits prediction jobs to the cluster scheduler and lists
// completed jobs for the History tab.
package job

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	appSub "github.com/turtacn/af3-portal/internal/application/submission"
	domainJob "github.com/turtacn/af3-portal/internal/domain/job"
	"github.com/turtacn/af3-portal/internal/infrastructure/database/redis"
	"github.com/turtacn/af3-portal/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/af3-portal/internal/infrastructure/scheduler/slurm"
	"github.com/turtacn/af3-portal/internal/infrastructure/storage/jobfs"
	"github.com/turtacn/af3-portal/internal/infrastructure/storage/minio"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// Submission outcomes recorded in jobs_submitted_total.
const (
	StatusSubmitted = "submitted"
	StatusRejected  = "rejected"
	StatusLocked    = "locked"
	StatusFailed    = "failed"
)

type Service interface {
	// Submit writes the job directory, hands submit.sh to the scheduler and
	// returns the receipt shown to the user.
	Submit(ctx context.Context, req *domainJob.Request) (*domainJob.Receipt, error)
	// History lists completed jobs.
	History(ctx context.Context) ([]domainJob.Entry, error)
	// OpenArchive locates the result archive of one job.
	OpenArchive(ctx context.Context, name, timestamp string) (*Archive, error)
}

// Archive is a downloadable result: a local file or a presigned URL.
type Archive struct {
	FileName string
	Path     string
	URL      string
}

// Workspace is the job directory store.
type Workspace interface {
	CreateJobDir(dirName string) (string, error)
	WriteInput(dirName string, data []byte) (string, error)
	WriteFile(dirName, rel string, data []byte) (string, error)
	WriteLogs(dirName, stdout, stderr string) error
	List() ([]domainJob.Entry, error)
}

var _ Workspace = (*jobfs.Workspace)(nil)

// Deps are the collaborators of the job service.  Locker, Mirror, Events and
// Metrics may be nil.
type Deps struct {
	Workspace    Workspace
	Runner       slurm.CommandRunner
	TemplatePath string
	Locker       redis.JobLocker
	Mirror       minio.ArchiveMirror
	Events       kafka.JobEvents
	Metrics      *prometheus.AppMetrics
	Logger       logging.Logger
}

type serviceImpl struct {
	ws           Workspace
	runner       slurm.CommandRunner
	templatePath string
	locker       redis.JobLocker
	mirror       minio.ArchiveMirror
	events       kafka.JobEvents
	metrics      *prometheus.AppMetrics
	logger       logging.Logger
	now          func() time.Time
}

func NewService(d Deps) Service {
	s := &serviceImpl{
		ws:           d.Workspace,
		runner:       d.Runner,
		templatePath: d.TemplatePath,
		locker:       d.Locker,
		mirror:       d.Mirror,
		events:       d.Events,
		metrics:      d.Metrics,
		logger:       d.Logger,
		now:          time.Now,
	}
	if s.locker == nil {
		s.locker = redis.NewMemoryJobLocker()
	}
	if s.mirror == nil {
		s.mirror = minio.NewNoopMirror()
	}
	if s.events == nil {
		s.events = kafka.NewNoopJobEventPublisher()
	}
	if s.metrics == nil {
		s.metrics = prometheus.NewNoopAppMetrics()
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	return s
}

func (s *serviceImpl) Submit(ctx context.Context, req *domainJob.Request) (*domainJob.Receipt, error) {
	if err := checkRequest(req); err != nil {
		prometheus.RecordJobSubmission(s.metrics, StatusRejected)
		return nil, err
	}
	jobName := strings.TrimSpace(req.JobName)
	email := strings.TrimSpace(req.Email)
	log := s.logger.With(logging.String("job", jobName), logging.String("user", req.User))
	if req.RequestID != "" {
		ctx = kafka.WithTraceID(ctx, req.RequestID)
		log = log.With(logging.String("request_id", req.RequestID))
	}

	release, err := s.locker.TryLock(ctx, jobName)
	switch {
	case errors.IsCode(err, errors.ErrCodeJobLocked):
		prometheus.RecordJobSubmission(s.metrics, StatusLocked)
		return nil, err
	case err != nil:
		// The job directory is created exclusively, so a lost lock backend
		// degrades to per-second collisions failing with JOB_008.
		log.Warn("job lock unavailable, continuing without it", logging.Err(err))
	default:
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				log.Warn("failed to release job lock", logging.Err(rerr))
			}
		}()
	}

	now := s.now()
	stamp := now.Format(domainJob.TimestampLayout)
	dirName := domainJob.DirName(jobName, now)
	ev := domainJob.Event{
		JobName:     jobName,
		Timestamp:   stamp,
		SubmittedAt: now,
		User:        req.User,
		Email:       email,
		Dir:         dirName,
		Entities:    len(req.Document.Sequences),
	}

	dir, input, err := s.prepare(dirName, req)
	if err != nil {
		s.fail(ctx, log, ev, err)
		return nil, err
	}

	renderer, err := slurm.LoadScriptRenderer(s.templatePath)
	if err != nil {
		s.fail(ctx, log, ev, err)
		return nil, err
	}
	workDir, _ := filepath.Abs(dir)
	script := renderer.Render(slurm.ScriptParams{
		JobName:   jobName,
		Email:     email,
		WorkDir:   workDir,
		Timestamp: stamp,
	})
	if _, err := s.ws.WriteFile(dirName, domainJob.ScriptFileName, []byte(script)); err != nil {
		s.fail(ctx, log, ev, err)
		return nil, err
	}

	timer := prometheus.NewTimer(s.metrics.SchedulerDuration.WithLabelValues())
	res, runErr := s.runner.Submit(ctx, dir, domainJob.ScriptFileName)
	elapsed := timer.ObserveDuration()
	if res != nil {
		if err := s.ws.WriteLogs(dirName, res.Stdout, res.Stderr); err != nil {
			log.Warn("failed to write scheduler logs", logging.Err(err))
		}
	}
	if runErr != nil {
		err := errors.Wrap(runErr, errors.ErrCodeSchedulerFailed, "Submission failed: "+schedulerText(res, runErr))
		s.fail(ctx, log, ev, err)
		return nil, err
	}

	ev.Type = domainJob.EventSubmitted
	ev.SchedulerJobID = domainJob.SchedulerJobID(res.Stdout)
	s.afterSubmit(ctx, log.With(logging.Duration("scheduler_elapsed", elapsed)), ev, input)

	return &domainJob.Receipt{
		SchedulerJobID: ev.SchedulerJobID,
		JobName:        jobName,
		Timestamp:      stamp,
		SubmittedAt:    now,
		Dir:            dir,
		Message:        domainJob.SubmittedMessage(ev.SchedulerJobID, stamp, email),
	}, nil
}

func checkRequest(req *domainJob.Request) error {
	if req == nil || strings.TrimSpace(req.JobName) == "" {
		return errors.New(errors.ErrCodeJobNameRequired, errors.DefaultMessageForCode(errors.ErrCodeJobNameRequired))
	}
	if strings.TrimSpace(req.Email) == "" {
		return errors.New(errors.ErrCodeEmailRequired, errors.DefaultMessageForCode(errors.ErrCodeEmailRequired))
	}
	if req.Document == nil {
		return errors.New(errors.ErrCodeDocumentRequired, errors.DefaultMessageForCode(errors.ErrCodeDocumentRequired))
	}
	if name := strings.TrimSpace(req.JobName); !validJobName(name) {
		return errors.New(errors.ErrCodeValidation, "Error: Job name may only contain letters, digits, '.', '_' and '-'.").
			WithDetail("job=" + req.JobName)
	}
	if !validEmail(strings.TrimSpace(req.Email)) {
		return errors.New(errors.ErrCodeValidation, "Error: Email address contains invalid characters.").
			WithDetail("email=" + req.Email)
	}
	return nil
}

// jobNamePattern bounds what reaches the directory name and submit.sh.
var jobNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func validJobName(name string) bool {
	return safeName(name) && appSub.PlainText(name) == name && jobNamePattern.MatchString(name)
}

// validEmail rejects anything that could end a shell word or a script line
// once substituted into the scheduler template.
func validEmail(email string) bool {
	if appSub.PlainText(email) != email {
		return false
	}
	for _, r := range email {
		if unicode.IsControl(r) || unicode.IsSpace(r) || strings.ContainsRune("\"'`$\\;|&<>(){}*?!#", r) {
			return false
		}
	}
	return true
}

// safeName reports whether name can be used as a single path element.
func safeName(name string) bool {
	return name != "." && name != ".." && !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

func (s *serviceImpl) prepare(dirName string, req *domainJob.Request) (dir string, input []byte, err error) {
	if dir, err = s.ws.CreateJobDir(dirName); err != nil {
		return "", nil, err
	}
	if input, err = req.Document.MarshalIndent(); err != nil {
		return "", nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document")
	}
	if _, err = s.ws.WriteInput(dirName, input); err != nil {
		return "", nil, err
	}
	return dir, input, nil
}

// schedulerText is the scheduler's own explanation of a failure: stderr,
// else stdout, else the process error.
func schedulerText(res *slurm.Result, err error) string {
	if res != nil {
		if t := strings.TrimSpace(res.Stderr); t != "" {
			return t
		}
		if t := strings.TrimSpace(res.Stdout); t != "" {
			return t
		}
	}
	if ae, ok := err.(*errors.AppError); ok && ae.Cause != nil {
		return ae.Cause.Error()
	}
	return err.Error()
}

func (s *serviceImpl) fail(ctx context.Context, log logging.Logger, ev domainJob.Event, err error) {
	status := StatusFailed
	if errors.IsCode(err, errors.ErrCodeJobLocked) {
		status = StatusLocked
	}
	prometheus.RecordJobSubmission(s.metrics, status)
	if errors.IsClientError(errors.GetCode(err)) {
		log.Warn("job submission failed", logging.String("dir", ev.Dir), logging.Err(err))
	} else {
		log.Error("job submission failed", logging.String("dir", ev.Dir), logging.Err(err))
	}

	ev.Type = domainJob.EventFailed
	ev.Error = errors.MessageOf(err)
	if perr := s.events.PublishJobEvent(ctx, ev); perr != nil {
		log.Warn("failed to publish job event", logging.Err(perr))
	}
}

func (s *serviceImpl) afterSubmit(ctx context.Context, log logging.Logger, ev domainJob.Event, input []byte) {
	prometheus.RecordJobSubmission(s.metrics, StatusSubmitted)
	log.Info("job submitted",
		logging.String("dir", ev.Dir),
		logging.String("scheduler_id", ev.SchedulerJobID),
		logging.Int("entities", ev.Entities))

	if err := s.mirror.PutInput(ctx, ev.Dir, input); err != nil {
		log.Warn("failed to mirror job input", logging.Err(err))
	}
	if err := s.events.PublishJobEvent(ctx, ev); err != nil {
		log.Warn("failed to publish job event", logging.Err(err))
	}
}

func (s *serviceImpl) History(ctx context.Context) ([]domainJob.Entry, error) {
	entries, err := s.ws.List()
	if err != nil {
		s.logger.Error("failed to list jobs", logging.Err(err))
		return nil, err
	}
	s.metrics.HistoryEntries.WithLabelValues().Set(float64(len(entries)))
	return entries, nil
}

func (s *serviceImpl) OpenArchive(ctx context.Context, name, timestamp string) (*Archive, error) {
	notFound := errors.New(errors.ErrCodeArchiveNotFound, errors.DefaultMessageForCode(errors.ErrCodeArchiveNotFound)).
		WithDetail("job=" + name + "_" + timestamp)

	entries, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Name == name && e.Stamp == timestamp {
			prometheus.RecordArchiveDownload(s.metrics, "local")
			return &Archive{FileName: filepath.Base(e.Archive), Path: e.Archive}, nil
		}
	}

	if !safeName(name) {
		return nil, notFound
	}
	if _, err := time.Parse(domainJob.TimestampLayout, timestamp); err != nil {
		return nil, notFound
	}
	dirName := name + "_" + timestamp
	url, err := s.mirror.ArchiveURL(ctx, dirName)
	if err != nil {
		if !errors.IsNotFound(err) {
			s.logger.Warn("archive lookup in object store failed", logging.String("dir", dirName), logging.Err(err))
		}
		return nil, notFound
	}
	prometheus.RecordArchiveDownload(s.metrics, "minio")
	return &Archive{FileName: domainJob.ArchiveName(dirName), URL: url}, nil
}
