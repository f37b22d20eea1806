package rrfars

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/rrfars/internal/rawdata"
	"github.com/kingrea/rrfars/internal/survey"
)

// NextQuestion presents the next unanswered question. Once the set is
// exhausted the delegate is told the component has finished.
func (c *Controller) NextQuestion() {
	if c.presenter == nil {
		c.registerErr(fmt.Errorf("%w: next question requested before begin", ErrState))
		return
	}
	q, ok := c.presenter.Next()
	if !ok {
		c.finish()
		return
	}
	c.logged = false
	position, total := c.presenter.Position()
	c.logger.Debug("question presented", zap.String("question", q.ID), zap.Int("position", position), zap.Int("total", total))
	if c.caps.Progress != nil {
		c.caps.Progress.ComponentDidPresent(c, position, total)
	}
}

func (c *Controller) finish() {
	if c.finished {
		return
	}
	c.finished = true
	c.logger.Info("session complete", zap.String("task", c.TaskName()), zap.Int("responses", len(c.records)))
	if c.caps.Delegate != nil {
		c.caps.Delegate.ComponentDidFinish(c)
	}
}

// SubjectDidRespond handles a selection on the rating control: the response
// is logged with its reaction time and the next question is presented.
func (c *Controller) SubjectDidRespond(selection int) {
	if c.presenter == nil || c.presenter.State() != survey.StateAwaitingResponse {
		c.registerErr(fmt.Errorf("%w: response received with no current question", ErrState))
		return
	}
	if _, err := c.scale.Value(selection); err != nil || c.scaleErr != nil {
		if c.scaleErr != nil {
			err = c.scaleErr
		}
		c.registerErr(fmt.Errorf("%w: %v", ErrState, err))
		return
	}
	c.LogSubjectResponse(selection)
	c.NextQuestion()
}

// LogSubjectResponse appends one record for the current question. Write
// failures are registered, not propagated.
func (c *Controller) LogSubjectResponse(selection int) {
	if c.presenter == nil {
		c.registerErr(fmt.Errorf("%w: response logged with no current question", ErrState))
		return
	}
	if c.logged {
		c.registerErr(fmt.Errorf("%w: response for current question already logged", ErrState))
		return
	}
	value, err := c.scale.Value(selection)
	if err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrState, err))
		return
	}
	resp, err := c.presenter.Respond()
	if err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrState, err))
		return
	}
	rec := rawdata.Record{QuestionID: resp.Question.ID, Value: value, Latency: resp.Elapsed}
	c.records = append(c.records, rec)
	c.logged = true
	c.logger.Debug("response logged",
		zap.String("question", rec.QuestionID),
		zap.Int("value", rec.Value),
		zap.Duration("latency", rec.Latency),
	)
	if c.writer == nil {
		c.registerErr(fmt.Errorf("%w: raw data file is not open", ErrIO))
		return
	}
	if err := c.writer.Append(rec); err != nil {
		c.registerErr(fmt.Errorf("%w: %v", ErrIO, err))
	}
}

// Adjective returns the label at position idx (0..4).
func (c *Controller) Adjective(idx int) (string, error) {
	if !c.setupDone {
		scale, err := c.loadScale()
		if err != nil {
			return "", err
		}
		return scale.Adjective(idx)
	}
	if c.scaleErr != nil {
		return "", c.scaleErr
	}
	return c.scale.Adjective(idx)
}

// CurrentQuestion returns the question on display, if any.
func (c *Controller) CurrentQuestion() (survey.Question, bool) {
	if c.presenter == nil {
		return survey.Question{}, false
	}
	return c.presenter.Current()
}

// Progress returns the 1-based position of the current question and the
// total number of questions.
func (c *Controller) Progress() (int, int) {
	if c.presenter == nil {
		return 0, 0
	}
	return c.presenter.Position()
}

// State returns the presenter state; Idle before Begin.
func (c *Controller) State() survey.State {
	if c.presenter == nil {
		return survey.StateIdle
	}
	return c.presenter.State()
}

// IsComplete reports whether every question has been answered.
func (c *Controller) IsComplete() bool {
	return c.State() == survey.StateComplete
}

// RunHeader names the raw data columns.
func (c *Controller) RunHeader() string {
	return rawdata.ColumnHeader
}

// SessionHeader describes the session configuration for the data file.
func (c *Controller) SessionHeader() string {
	lo, hi := c.scale.Range()
	labels := make([]string, 0, survey.ScalePoints)
	for i := 0; i < survey.ScalePoints; i++ {
		label, _ := c.Adjective(i)
		labels = append(labels, label)
	}
	rows := [][2]string{
		{"task", c.TaskName()},
		{"session", c.header.SessionID},
		{"started", c.header.Started.UTC().Format(time.RFC3339)},
		{"access", c.method.String()},
		{"seed", fmt.Sprint(c.header.Seed)},
		{"scale", fmt.Sprintf("%d-%d", lo, hi)},
		{"adjectives", strings.Join(labels, ",")},
	}
	return joinRows(rows)
}

// Summary reports response counts, per-adjective tallies, and means.
func (c *Controller) Summary() string {
	rows := [][2]string{{"responses", fmt.Sprint(len(c.records))}}
	if len(c.records) == 0 {
		return joinRows(rows)
	}
	lo, _ := c.scale.Range()
	counts := make([]int, survey.ScalePoints)
	var valueSum, latencyMS int64
	for _, rec := range c.records {
		valueSum += int64(rec.Value)
		latencyMS += rec.Latency.Milliseconds()
		if idx := rec.Value - lo; idx >= 0 && idx < survey.ScalePoints {
			counts[idx]++
		}
	}
	n := float64(len(c.records))
	rows = append(rows,
		[2]string{"mean_response", fmt.Sprintf("%.2f", float64(valueSum)/n)},
		[2]string{"mean_latency_ms", fmt.Sprintf("%.0f", float64(latencyMS)/n)},
	)
	for i, count := range counts {
		label, err := c.Adjective(i)
		if err != nil {
			label = fmt.Sprintf("point_%d", i+1)
		}
		rows = append(rows, [2]string{"count_" + label, fmt.Sprint(count)})
	}
	return joinRows(rows)
}

func joinRows(rows [][2]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row[0]+rawdata.Separator+row[1])
	}
	return strings.Join(lines, "\n")
}
