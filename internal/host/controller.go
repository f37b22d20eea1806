// Package host drives components through their lifecycle on behalf of the
// rrfars command: it resolves a bundle, hands it a definition, runs its main
// view, and files the collected data once the component finishes.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/kingrea/rrfars/internal/component"
	"github.com/kingrea/rrfars/internal/logbook"
	"github.com/kingrea/rrfars/internal/logging"
	"github.com/kingrea/rrfars/internal/rawdata"
	"github.com/kingrea/rrfars/internal/tui"
	"github.com/kingrea/rrfars/plugins"
)

// DataExtension is appended to the task file stem for finished data files.
const DataExtension = ".dat"

var (
	// ErrNotCleared is returned when a component refuses to begin. The
	// wrapping error carries the component's error log.
	ErrNotCleared = errors.New("host: component is not cleared to begin")
	// ErrAborted is returned when the operator interrupts a run. The raw data
	// file stays on disk for recovery.
	ErrAborted = errors.New("host: session aborted")
	// ErrNotFinished is returned by Finish before the component reports it
	// has nothing left to present.
	ErrNotFinished = errors.New("host: component has not finished")
)

// Options configures a host controller.
type Options struct {
	Registry *component.Registry
	Logger   *zap.Logger
	Journal  *logbook.Logbook

	// Defaults are merged underneath every definition, e.g. the project's
	// data directory.
	Defaults component.Definition
	// Overrides are merged over every definition, e.g. --set flags.
	Overrides component.Definition

	Subject string
	Study   string

	Now func() time.Time
}

// Controller is the component controller: it plays the delegate role for
// the component it loads.
type Controller struct {
	opts    Options
	logger  *zap.Logger
	journal *logbook.Logbook

	file       plugins.DefinitionFile
	definition component.Definition
	comp       component.Component
	app        *tui.App

	recovered bool
	finished  bool
	position  int
	total     int
	errors    []string
}

// New returns a controller for opts.
func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		opts:   opts,
		logger: logging.OrNop(opts.Logger),
	}
}

// Component returns the loaded component, nil before Prepare.
func (h *Controller) Component() component.Component {
	return h.comp
}

// Definition returns the merged definition handed to the component.
func (h *Controller) Definition() component.Definition {
	return h.definition.Clone()
}

// Recovered reports whether Prepare resumed an interrupted run.
func (h *Controller) Recovered() bool {
	return h.recovered
}

// Finished reports whether the component signalled completion.
func (h *Controller) Finished() bool {
	return h.finished
}

// Progress returns the last position the component reported.
func (h *Controller) Progress() (int, int) {
	return h.position, h.total
}

// Errors returns every error message the component registered.
func (h *Controller) Errors() []string {
	return append([]string(nil), h.errors...)
}

// Check loads the component for file and runs its clearance checks without
// starting a session.
func (h *Controller) Check(file plugins.DefinitionFile) error {
	if err := h.load(file); err != nil {
		return err
	}
	defer h.release()
	return h.clear()
}

// Prepare loads the component for file, clears it, and either recovers an
// interrupted run or begins a new one.
func (h *Controller) Prepare(file plugins.DefinitionFile) error {
	if err := h.load(file); err != nil {
		return err
	}
	if err := h.clear(); err != nil {
		h.release()
		return err
	}
	task := h.comp.TaskName()
	if h.comp.ShouldRecover() {
		h.recovered = true
		h.journal.Warn("recovering interrupted session from %s", h.comp.RawDataFile())
		h.logger.Warn("recovering interrupted session", zap.String("task", task), zap.String("raw", h.comp.RawDataFile()))
		h.comp.Recover()
	} else {
		h.journal.Info("session started (definition %s)", file.Definition.ID)
		h.logger.Info("session started", zap.String("task", task), zap.String("definition", file.Definition.ID))
		h.comp.Begin()
	}
	return nil
}

func (h *Controller) load(file plugins.DefinitionFile) error {
	if h.comp != nil {
		return fmt.Errorf("host: %s is already loaded", h.file.Definition.ID)
	}
	if h.opts.Registry == nil {
		return fmt.Errorf("host: registry is required")
	}
	def := file.Definition.Normalized()
	comp, err := h.opts.Registry.Resolve(def.Bundle)
	if err != nil {
		return fmt.Errorf("host: %s: %w", def.ID, err)
	}
	merged := mergeDefinitions(h.opts.Defaults, resolvePaths(def.Definition, file.Dir()), h.opts.Overrides)

	h.file = file
	h.definition = merged
	h.comp = comp
	h.finished = false
	h.recovered = false
	h.position, h.total = 0, 0
	h.errors = nil

	comp.SetDefinition(merged)
	comp.SetDelegate(h)
	comp.Setup()
	h.journal = h.opts.Journal.ForTask(comp.TaskName())
	return nil
}

func (h *Controller) clear() error {
	if h.comp.IsClearedToBegin() {
		return nil
	}
	task := h.comp.TaskName()
	h.journal.Error("component refused to begin")
	h.logger.Error("component not cleared", zap.String("task", task), zap.Strings("errors", h.errors))
	return fmt.Errorf("%w: %s\n%s", ErrNotCleared, h.file.Definition.ID, strings.TrimRight(h.comp.ErrorLog(), "\n"))
}

func (h *Controller) release() {
	if h.comp != nil {
		h.comp.TearDown()
	}
	h.comp = nil
	h.app = nil
}

// ComponentDidFinish implements component.Delegate.
func (h *Controller) ComponentDidFinish(c component.Component) {
	if c != h.comp {
		return
	}
	h.finished = true
	h.journal.Info("component finished")
	h.logger.Info("component finished", zap.String("task", c.TaskName()))
}

// ComponentDidRegisterError implements component.ErrorObserver.
func (h *Controller) ComponentDidRegisterError(c component.Component, message string) {
	h.errors = append(h.errors, message)
	h.journal.Error("%s", message)
}

// ComponentDidPresent implements component.ProgressObserver.
func (h *Controller) ComponentDidPresent(c component.Component, position, total int) {
	h.position, h.total = position, total
	h.logger.Debug("item presented", zap.String("task", c.TaskName()), zap.Int("position", position), zap.Int("total", total))
}

// Model returns the root model framing the component's main view. The
// model quits once the component finishes.
func (h *Controller) Model() *tui.App {
	if h.comp == nil {
		return nil
	}
	if h.app == nil {
		title := h.comp.Info().Name
		if task := h.comp.TaskName(); task != "" {
			title = fmt.Sprintf("%s · %s", title, task)
		}
		h.app = tui.NewApp(title, h.comp.MainView(), h.Finished)
	}
	return h.app
}

// Run drives the main view until the component finishes, the operator
// interrupts, or ctx is cancelled. An interrupted run leaves its raw data in
// place and returns ErrAborted.
func (h *Controller) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	app := h.Model()
	if app == nil {
		return fmt.Errorf("host: no component prepared")
	}
	programOpts := append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(app, programOpts...).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		h.Abort()
		return fmt.Errorf("host: run: %w", err)
	}
	if app.Aborted() || !h.finished {
		h.Abort()
		return ErrAborted
	}
	return nil
}

// Abort tears the component down without filing its data.
func (h *Controller) Abort() {
	if h.comp == nil {
		return
	}
	h.journal.Warn("session paused at %d/%d; raw data kept at %s", h.position, h.total, h.comp.RawDataFile())
	h.logger.Warn("session aborted", zap.String("task", h.comp.TaskName()), zap.Int("position", h.position), zap.Int("total", h.total))
	h.release()
}

// DataFile returns where Finish appends the finished session.
func (h *Controller) DataFile() string {
	if h.comp == nil {
		return ""
	}
	dir, task := h.comp.DataDirectory(), h.comp.TaskName()
	if dir == "" || task == "" {
		return ""
	}
	return filepath.Join(dir, rawdata.FileStem(task)+DataExtension)
}

// Finish appends the session to the task's data file, removes the raw data
// file, and tears the component down. It returns the data file path.
func (h *Controller) Finish() (string, error) {
	if h.comp == nil {
		return "", fmt.Errorf("host: no component prepared")
	}
	if !h.finished {
		return "", ErrNotFinished
	}
	comp := h.comp
	rawPath := comp.RawDataFile()
	prior, err := rawdata.Read(rawPath)
	if err != nil {
		return "", err
	}
	dataPath := h.DataFile()
	if err := appendBlock(dataPath, h.renderSession(comp, prior)); err != nil {
		return "", err
	}
	task := comp.TaskName()
	h.release()
	if err := os.Remove(rawPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return dataPath, fmt.Errorf("host: remove raw data: %w", err)
	}
	h.journal.Info("%d responses filed to %s", len(prior.Records), dataPath)
	h.logger.Info("session filed", zap.String("task", task), zap.String("data", dataPath), zap.Int("records", len(prior.Records)))
	return dataPath, nil
}

func (h *Controller) renderSession(comp component.Component, log rawdata.Log) []string {
	lines := []string{
		fmt.Sprintf("%s task=%s filed=%s", rawdata.CommentPrefix, rawdata.FileStem(comp.TaskName()), h.opts.Now().UTC().Format(time.RFC3339)),
	}
	if subject := strings.TrimSpace(h.opts.Subject); subject != "" {
		lines = append(lines, "subject"+rawdata.Separator+subject)
	}
	if study := strings.TrimSpace(h.opts.Study); study != "" {
		lines = append(lines, "study"+rawdata.Separator+study)
	}
	if p, ok := comp.(component.SessionHeaderProvider); ok {
		lines = append(lines, splitLines(p.SessionHeader())...)
	}
	if h.recovered {
		lines = append(lines, "recovered"+rawdata.Separator+"true")
	}
	if p, ok := comp.(component.RunHeaderProvider); ok {
		lines = append(lines, splitLines(p.RunHeader())...)
	}
	for _, rec := range log.Records {
		lines = append(lines, rec.Line())
	}
	if p, ok := comp.(component.SummaryProvider); ok {
		lines = append(lines, rawdata.CommentPrefix+" summary")
		lines = append(lines, splitLines(p.Summary())...)
	}
	return lines
}

func appendBlock(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("host: ensure data dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("host: open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n\n"); err != nil {
		return fmt.Errorf("host: write %s: %w", path, err)
	}
	return nil
}

func splitLines(block string) []string {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil
	}
	return strings.Split(block, "\n")
}
