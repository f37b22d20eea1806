package rrfars

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/rrfars/internal/component"
	"github.com/kingrea/rrfars/internal/logging"
	"github.com/kingrea/rrfars/internal/rawdata"
	"github.com/kingrea/rrfars/internal/survey"
	"github.com/kingrea/rrfars/internal/tui"
)

const (
	// BundleID is the registry key hosts use to load this component.
	BundleID = "rrfars"

	bundleName    = "Adjective Rating Scale"
	bundleVersion = "1.0.0"
)

// Option customizes Controller construction for tests and alternate hosts.
type Option func(*Controller)

// WithLogger routes component diagnostics to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.OrNop(logger)
	}
}

// WithClock overrides the time source used for reaction times and headers.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSessionIDs overrides how session identifiers are generated.
func WithSessionIDs(next func() string) Option {
	return func(c *Controller) {
		if next != nil {
			c.newSessionID = next
		}
	}
}

// WithSeedSource overrides the seed used for randomized question order when
// the definition does not pin one.
func WithSeedSource(next func() int64) Option {
	return func(c *Controller) {
		if next != nil {
			c.newSeed = next
		}
	}
}

// Controller is the adjective rating-scale component.
type Controller struct {
	definition component.Definition
	caps       component.Capabilities

	logger       *zap.Logger
	now          func() time.Time
	newSessionID func() string
	newSeed      func() int64

	setupDone bool
	scale     survey.Scale
	scaleErr  error
	view      tea.Model

	begun     bool
	finished  bool
	logged    bool
	method    survey.AccessMethod
	presenter *survey.Presenter
	writer    *rawdata.Writer
	header    rawdata.Header
	records   []rawdata.Record

	errorLog   strings.Builder
	registered []error
}

// New returns an unconfigured controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		definition:   component.Definition{},
		logger:       zap.NewNop(),
		now:          time.Now,
		newSessionID: uuid.NewString,
		newSeed:      func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Register installs the component factory under BundleID.
func Register(reg *component.Registry, opts ...Option) error {
	return reg.Register(BundleID, func() (component.Component, error) {
		return New(opts...), nil
	})
}

// Info implements component.Component.
func (c *Controller) Info() component.Info {
	return component.Info{
		ID:          BundleID,
		Name:        bundleName,
		Description: "Presents adjective rating-scale questions and records ratings with reaction times",
		Version:     bundleVersion,

		RequiredKeys: []string{
			TaskNameKey, QuestionFileKey,
			AdjectiveKey(0), AdjectiveKey(1), AdjectiveKey(2), AdjectiveKey(3), AdjectiveKey(4),
		},
	}
}

// SetDefinition stores a private copy of the host configuration. The
// definition cannot change once a session has begun; before that, a new
// definition replaces the scale read by an earlier Setup.
func (c *Controller) SetDefinition(def component.Definition) {
	if c.begun {
		c.registerErr(fmt.Errorf("%w: definition assigned after begin", ErrState))
		return
	}
	c.definition = def.Clone()
	if c.setupDone {
		c.scale, c.scaleErr = c.loadScale()
	}
}

// SetDelegate stores the host back reference and resolves its optional
// capabilities once.
func (c *Controller) SetDelegate(d component.Delegate) {
	c.caps = component.ResolveCapabilities(d)
}

// Setup reads the adjective labels and builds the main view. Repeated calls
// are no-ops until TearDown.
func (c *Controller) Setup() {
	if c.setupDone {
		return
	}
	c.scale, c.scaleErr = c.loadScale()
	c.view = tui.NewSurveyView(c)
	c.setupDone = true
	c.logger.Debug("component setup", zap.String("task", c.TaskName()))
}

// IsClearedToBegin validates the configuration. Every failure is appended to
// the error log.
func (c *Controller) IsClearedToBegin() bool {
	errs := c.validate()
	for _, err := range errs {
		c.registerErr(err)
	}
	cleared := len(errs) == 0
	c.logger.Info("clearance checked", zap.String("task", c.TaskName()), zap.Bool("cleared", cleared), zap.Int("problems", len(errs)))
	return cleared
}

func (c *Controller) validate() []error {
	var errs []error
	def := c.definition
	if c.TaskName() == "" {
		errs = append(errs, fmt.Errorf("%w: %s is required", ErrConfiguration, TaskNameKey))
	}
	if c.DataDirectory() == "" {
		errs = append(errs, fmt.Errorf("%w: %s is required", ErrConfiguration, DataDirectoryKey))
	}
	if !def.Has(QuestionFileKey) {
		errs = append(errs, fmt.Errorf("%w: %s is required", ErrConfiguration, QuestionFileKey))
	} else if _, err := survey.LoadQuestionFile(c.questionFile()); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrConfiguration, err))
	}
	labelsPresent := true
	for i := 0; i < survey.ScalePoints; i++ {
		if key := AdjectiveKey(i); !def.Has(key) {
			labelsPresent = false
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrConfiguration, key))
		}
	}
	if _, err := def.Bool(ZeroBasedKey, false); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrConfiguration, err))
	} else if labelsPresent {
		if _, err := c.loadScale(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrConfiguration, err))
		}
	}
	if _, err := survey.ParseAccessMethod(def.String(QuestionAccessMethodKey)); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrConfiguration, err))
	}
	if _, _, err := def.Int64(RandomSeedKey); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrConfiguration, err))
	}
	if !c.caps.Ready() {
		errs = append(errs, fmt.Errorf("%w: no delegate assigned", ErrConfiguration))
	}
	return errs
}

// Begin loads the question set and presents the first question.
func (c *Controller) Begin() {
	if c.begun {
		c.registerErr(fmt.Errorf("%w: begin called twice without tear down", ErrState))
		return
	}
	seed := c.sessionSeed()
	header := rawdata.Header{SessionID: c.newSessionID(), Seed: seed, Started: c.now()}
	if !c.startSession(seed, nil) {
		return
	}
	c.header = header
	c.openWriter()
	if c.writer != nil {
		if err := c.writer.WriteHeader(header); err != nil {
			c.registerErr(fmt.Errorf("%w: %v", ErrIO, err))
		}
	}
	c.logger.Info("session begun",
		zap.String("task", c.TaskName()),
		zap.String("session", header.SessionID),
		zap.String("access", c.method.String()),
		zap.Int64("seed", seed),
	)
	c.NextQuestion()
}

// ShouldRecover reports whether a raw data file from an interrupted run
// exists for this task.
func (c *Controller) ShouldRecover() bool {
	path := c.RawDataFile()
	if path == "" {
		return false
	}
	return rawdata.Exists(path)
}

// Recover resumes an interrupted run. The raw data file is re-read, the
// original order is rebuilt from the recorded seed, and presentation resumes
// at the first unanswered question. The reaction-time baseline restarts when
// that question is displayed; a "recovered" marker flags the discontinuity.
func (c *Controller) Recover() {
	if c.begun {
		c.registerErr(fmt.Errorf("%w: recover called on a running session", ErrState))
		return
	}
	prior, err := rawdata.Read(c.RawDataFile())
	if err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrIO, err))
		c.Begin()
		return
	}
	if prior.Malformed > 0 {
		c.registerErr(fmt.Errorf("%w: skipped %d malformed raw data lines", ErrIO, prior.Malformed))
	}
	header := rawdata.Header{SessionID: c.newSessionID(), Seed: c.sessionSeed(), Started: c.now()}
	writeHeader := true
	if prior.Header != nil {
		header = *prior.Header
		writeHeader = false
	}
	if !c.startSession(header.Seed, prior.AnsweredIDs()) {
		return
	}
	c.header = header
	c.records = append(c.records, prior.Records...)
	c.openWriter()
	if c.writer != nil {
		if writeHeader {
			if err := c.writer.WriteHeader(header); err != nil {
				c.registerErr(fmt.Errorf("%w: %v", ErrIO, err))
			}
		}
		if err := c.writer.WriteMarker("recovered", c.now()); err != nil {
			c.registerErr(fmt.Errorf("%w: %v", ErrIO, err))
		}
	}
	c.logger.Warn("session recovered; reaction-time baseline restarts at next question",
		zap.String("task", c.TaskName()),
		zap.String("session", header.SessionID),
		zap.Int("answered", len(prior.Records)),
	)
	c.NextQuestion()
}

func (c *Controller) startSession(seed int64, answered []string) bool {
	if !c.setupDone {
		c.Setup()
	}
	c.scale, c.scaleErr = c.loadScale()
	if c.scaleErr != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrConfiguration, c.scaleErr))
		return false
	}
	set, err := survey.LoadQuestionFile(c.questionFile())
	if err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrConfiguration, err))
		return false
	}
	method, err := survey.ParseAccessMethod(c.definition.String(QuestionAccessMethodKey))
	if err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrConfiguration, err))
		return false
	}
	presenter := survey.NewPresenter(set, method.Order(set.Len(), seed), c.now)
	if err := presenter.MarkAnswered(answered...); err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrState, err))
		return false
	}
	c.method = method
	c.presenter = presenter
	c.records = nil
	c.finished = false
	c.logged = false
	c.begun = true
	return true
}

func (c *Controller) openWriter() {
	w, err := rawdata.Open(c.RawDataFile())
	if err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrIO, err))
		return
	}
	c.writer = w
}

// TearDown releases the raw data file and the view. A fresh Begin may follow.
func (c *Controller) TearDown() {
	if c.writer != nil {
		if err := c.writer.Close(); err != nil {
			c.registerErr(fmt.Errorf("%w: close raw data: %v", ErrIO, err))
		}
		c.writer = nil
	}
	c.presenter = nil
	c.view = nil
	c.begun = false
	c.finished = false
	c.logged = false
	c.setupDone = false
	c.logger.Debug("component torn down", zap.String("task", c.TaskName()))
}

// DataDirectory returns the configured data directory.
func (c *Controller) DataDirectory() string {
	dir := c.definition.String(DataDirectoryKey)
	if dir == "" {
		return ""
	}
	return filepath.Clean(dir)
}

// RawDataFile returns the raw data path for this task, or "" when the task
// name or data directory is missing.
func (c *Controller) RawDataFile() string {
	dir, task := c.DataDirectory(), c.TaskName()
	if dir == "" || task == "" {
		return ""
	}
	return rawdata.PathFor(dir, task)
}

// TaskName returns the configured task name.
func (c *Controller) TaskName() string {
	return c.definition.String(TaskNameKey)
}

// MainView returns the view presented to the subject. It is nil before Setup.
func (c *Controller) MainView() tea.Model {
	return c.view
}

// ErrorLog returns every registered error, one per line.
func (c *Controller) ErrorLog() string {
	return c.errorLog.String()
}

// RegisterError appends message to the error log.
func (c *Controller) RegisterError(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	fmt.Fprintf(&c.errorLog, "[%s] %s\n", c.now().Format(time.RFC3339), message)
	c.logger.Warn("component error", zap.String("task", c.TaskName()), zap.String("error", message))
	if c.caps.Errors != nil {
		c.caps.Errors.ComponentDidRegisterError(c, message)
	}
}

func (c *Controller) registerErr(err error) {
	if err == nil {
		return
	}
	c.registered = append(c.registered, err)
	c.RegisterError(err.Error())
}

func (c *Controller) loadScale() (survey.Scale, error) {
	labels := make([]string, survey.ScalePoints)
	for i := range labels {
		labels[i] = c.definition.String(AdjectiveKey(i))
	}
	zeroBased, err := c.definition.Bool(ZeroBasedKey, false)
	if err != nil {
		return survey.Scale{}, err
	}
	return survey.NewScale(labels, zeroBased)
}

func (c *Controller) questionFile() string {
	path := c.definition.String(QuestionFileKey)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func (c *Controller) sessionSeed() int64 {
	if seed, ok, err := c.definition.Int64(RandomSeedKey); ok && err == nil {
		return seed
	}
	return c.newSeed()
}
