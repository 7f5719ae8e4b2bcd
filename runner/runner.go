// Package runner hands a descriptor to the external end-to-end runner: it
// renders the runner's config file, launches the process, and records the run
// and its artifacts.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hairizuan-noorazman/e2erun/descriptor"
	"github.com/hairizuan-noorazman/e2erun/hub"
	"github.com/hairizuan-noorazman/e2erun/logger"
	"github.com/hairizuan-noorazman/e2erun/storage"
	"github.com/hairizuan-noorazman/e2erun/testrun"
)

// ErrEndpointUnavailable is returned when the remote endpoint fails its
// readiness probe. The run is recorded as failed.
var ErrEndpointUnavailable = errors.New("remote endpoint unavailable")

// LogFileName is the artifact name of the captured runner output.
const LogFileName = "output.log"

// Prober reports whether a remote automation server is ready.
type Prober interface {
	Status(ctx context.Context, endpoint string) (*hub.Status, error)
}

// Config holds runner process settings.
type Config struct {
	// Binary is the external runner executable, e.g. "protractor".
	Binary string

	// Args are passed before the rendered config file path.
	Args []string

	// WorkDir is the process working directory. Empty means the directory
	// of the descriptor file.
	WorkDir string

	// Env entries ("KEY=value") are appended to the inherited environment.
	Env []string
}

// Runner launches the external runner for a descriptor.
type Runner struct {
	cfg       Config
	executor  Executor
	runs      testrun.Store
	artifacts testrun.ArtifactStore
	blobs     storage.BlobStorage
	prober    Prober
	output    io.Writer
	logger    logger.Logger
}

// Option configures optional Runner collaborators.
type Option func(*Runner)

// WithArtifacts stores the rendered config and the runner output in blobs and
// records them in artifacts.
func WithArtifacts(artifacts testrun.ArtifactStore, blobs storage.BlobStorage) Option {
	return func(r *Runner) {
		r.artifacts = artifacts
		r.blobs = blobs
	}
}

// WithProber probes the remote endpoint before launching the runner.
func WithProber(p Prober) Option {
	return func(r *Runner) {
		r.prober = p
	}
}

// WithOutput mirrors the runner's output to w. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.output = w
	}
}

// New creates a Runner.
func New(cfg Config, executor Executor, runs testrun.Store, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		executor: executor,
		runs:     runs,
		output:   os.Stdout,
		logger:   log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes d, loaded from source, and returns the recorded run. An empty
// spec list is recorded as skipped without launching the process. A runner
// that exits non-zero yields a failed run and a nil error.
func (r *Runner) Run(ctx context.Context, source string, d *descriptor.Descriptor) (*testrun.TestRun, error) {
	log := r.logger.WithFields(map[string]interface{}{
		"descriptor_path": source,
		"framework":       d.FrameworkName(),
	})

	for _, warning := range d.Warnings() {
		log.Warn(ctx, warning, nil)
	}

	specs := d.SpecPaths()
	tr := &testrun.TestRun{
		DescriptorPath: source,
		Framework:      d.FrameworkName(),
		RemoteEndpoint: d.RemoteEndpoint(),
		SpecCount:      len(specs),
	}
	if err := r.runs.Create(ctx, tr); err != nil {
		return nil, fmt.Errorf("failed to record test run: %w", err)
	}
	log = log.WithField("test_run_id", tr.ID.String())

	if len(specs) == 0 {
		if err := r.runs.Skip(ctx, tr.ID, "no spec paths configured"); err != nil {
			return nil, fmt.Errorf("failed to skip test run: %w", err)
		}
		return r.runs.GetByID(ctx, tr.ID)
	}

	baseDir := ""
	if source != "" {
		if abs, err := filepath.Abs(filepath.Dir(source)); err == nil {
			baseDir = abs
		}
	}
	if unmatched := r.checkSpecPatterns(ctx, log, baseDir, specs); len(unmatched) > 0 {
		notes := "spec patterns match no files: " + strings.Join(unmatched, ", ")
		if err := r.runs.Update(ctx, tr.ID, testrun.SetNotes(notes)); err != nil {
			return r.abort(ctx, log, tr, fmt.Errorf("failed to record notes: %w", err))
		}
	}

	if r.prober != nil && d.RemoteEndpoint() != "" {
		if _, err := r.prober.Status(ctx, d.RemoteEndpoint()); err != nil {
			log.Error(ctx, "remote endpoint failed readiness probe", map[string]interface{}{
				"remote_endpoint": d.RemoteEndpoint(),
				"error":           err.Error(),
			})
			return r.abort(ctx, log, tr, fmt.Errorf("%w: %v", ErrEndpointUnavailable, err))
		}
	}

	tmpDir, err := os.MkdirTemp("", "e2erun-*")
	if err != nil {
		return r.abort(ctx, log, tr, fmt.Errorf("failed to create temp directory: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	var rendered bytes.Buffer
	if err := RenderProtractor(&rendered, d, RenderOptions{BaseDir: baseDir}); err != nil {
		return r.abort(ctx, log, tr, fmt.Errorf("failed to render runner config: %w", err))
	}
	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, rendered.Bytes(), 0644); err != nil {
		return r.abort(ctx, log, tr, fmt.Errorf("failed to write runner config: %w", err))
	}
	r.storeArtifact(ctx, log, tr, testrun.ArtifactKindConfig, ConfigFileName, "application/javascript", rendered.Bytes())

	if err := r.runs.Start(ctx, tr.ID); err != nil {
		return r.abort(ctx, log, tr, fmt.Errorf("failed to start test run: %w", err))
	}

	workDir := r.cfg.WorkDir
	if workDir == "" {
		workDir = baseDir
	}

	var output bytes.Buffer
	sink := io.MultiWriter(&output, r.output)
	cmd := Command{
		Name:   r.cfg.Binary,
		Args:   append(append([]string{}, r.cfg.Args...), configPath),
		Dir:    workDir,
		Env:    r.cfg.Env,
		Stdout: sink,
		Stderr: sink,
	}

	log.Info(ctx, "launching runner", map[string]interface{}{
		"binary":     cmd.Name,
		"spec_count": len(specs),
		"work_dir":   workDir,
	})

	exitCode, execErr := r.executor.Execute(ctx, cmd)
	r.storeArtifact(ctx, log, tr, testrun.ArtifactKindLog, LogFileName, "text/plain", output.Bytes())

	// The run record must reach a final state even when ctx was cancelled.
	recordCtx := context.WithoutCancel(ctx)

	if execErr != nil {
		log.Error(ctx, "runner did not complete", map[string]interface{}{
			"error": execErr.Error(),
		})
		if err := r.runs.Complete(recordCtx, tr.ID, testrun.StatusFailed, execErr.Error()); err != nil {
			return nil, fmt.Errorf("failed to complete test run: %w", err)
		}
		return r.reload(recordCtx, tr, fmt.Errorf("failed to execute runner: %w", execErr))
	}

	if err := r.runs.Update(recordCtx, tr.ID, testrun.SetExitCode(exitCode)); err != nil {
		return nil, fmt.Errorf("failed to record exit code: %w", err)
	}

	status := testrun.StatusPassed
	notes := ""
	if exitCode != 0 {
		status = testrun.StatusFailed
		notes = fmt.Sprintf("runner exited with code %d", exitCode)
	}
	if err := r.runs.Complete(recordCtx, tr.ID, status, notes); err != nil {
		return nil, fmt.Errorf("failed to complete test run: %w", err)
	}

	log.Info(ctx, "runner finished", map[string]interface{}{
		"exit_code": exitCode,
		"status":    status,
	})

	return r.reload(recordCtx, tr, nil)
}

// abort records a run that could not be launched as failed, with runErr as
// its notes, and returns the final record alongside runErr. The record is
// written even when ctx is already cancelled.
func (r *Runner) abort(ctx context.Context, log logger.Logger, tr *testrun.TestRun, runErr error) (*testrun.TestRun, error) {
	ctx = context.WithoutCancel(ctx)
	if err := r.fail(ctx, tr, runErr.Error()); err != nil {
		log.Error(ctx, "failed to record aborted run", map[string]interface{}{
			"error":     err.Error(),
			"run_error": runErr.Error(),
		})
		return nil, fmt.Errorf("%w (recording failure: %v)", runErr, err)
	}
	return r.reload(ctx, tr, runErr)
}

// fail moves a pending or running run to failed.
func (r *Runner) fail(ctx context.Context, tr *testrun.TestRun, notes string) error {
	current, err := r.runs.GetByID(ctx, tr.ID)
	if err != nil {
		return err
	}
	if current.Status == testrun.StatusPending {
		if err := r.runs.Start(ctx, tr.ID); err != nil {
			return fmt.Errorf("failed to start test run: %w", err)
		}
	}
	if err := r.runs.Complete(ctx, tr.ID, testrun.StatusFailed, notes); err != nil {
		return fmt.Errorf("failed to complete test run: %w", err)
	}
	return nil
}

func (r *Runner) reload(ctx context.Context, tr *testrun.TestRun, runErr error) (*testrun.TestRun, error) {
	latest, err := r.runs.GetByID(ctx, tr.ID)
	if err != nil {
		return nil, err
	}
	return latest, runErr
}

// checkSpecPatterns warns about patterns that match nothing on disk and
// returns them. Patterns with "**" are left to the runner, which supports
// recursive globs.
func (r *Runner) checkSpecPatterns(ctx context.Context, log logger.Logger, baseDir string, specs []string) []string {
	var unmatched []string
	for _, pattern := range specs {
		if strings.Contains(pattern, "**") {
			log.Debug(ctx, "skipping check of recursive spec pattern", map[string]interface{}{
				"pattern": pattern,
			})
			continue
		}
		resolved := pattern
		if baseDir != "" && !filepath.IsAbs(pattern) {
			resolved = filepath.Join(baseDir, pattern)
		}
		matches, err := filepath.Glob(resolved)
		if err != nil {
			log.Warn(ctx, "invalid spec pattern", map[string]interface{}{
				"pattern": pattern,
				"error":   err.Error(),
			})
			continue
		}
		if len(matches) == 0 {
			log.Warn(ctx, "spec pattern matches no files", map[string]interface{}{
				"pattern": pattern,
			})
			unmatched = append(unmatched, pattern)
		}
	}
	return unmatched
}

// storeArtifact uploads data and records it. Failures are logged and do not
// fail the run.
func (r *Runner) storeArtifact(ctx context.Context, log logger.Logger, tr *testrun.TestRun, kind testrun.ArtifactKind, fileName, mimeType string, data []byte) {
	if r.blobs == nil || r.artifacts == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	key := storage.ArtifactKey(tr.ID.String(), fileName)
	if err := r.blobs.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		log.Error(ctx, "failed to upload artifact", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	artifact := &testrun.Artifact{
		TestRunID: tr.ID,
		Kind:      kind,
		Path:      key,
		FileName:  fileName,
		FileSize:  int64(len(data)),
		MimeType:  mimeType,
	}
	if err := r.artifacts.Create(ctx, artifact); err != nil {
		log.Error(ctx, "failed to record artifact", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
