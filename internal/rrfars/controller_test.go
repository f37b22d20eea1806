package rrfars

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kingrea/rrfars/internal/component"
	"github.com/kingrea/rrfars/internal/rawdata"
	"github.com/kingrea/rrfars/internal/survey"
)

var moodAdjectives = []string{"Calm", "Tense", "Alert", "Drowsy", "Content"}

type stepClock struct {
	now  time.Time
	step time.Duration
}

// Now advances by step on every read so each response has a distinct latency.
func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type recordingDelegate struct {
	finished  int
	errors    []string
	presented [][2]int
}

func (d *recordingDelegate) ComponentDidFinish(component.Component) { d.finished++ }

func (d *recordingDelegate) ComponentDidRegisterError(_ component.Component, message string) {
	d.errors = append(d.errors, message)
}

func (d *recordingDelegate) ComponentDidPresent(_ component.Component, position, total int) {
	d.presented = append(d.presented, [2]int{position, total})
}

type fixture struct {
	dir      string
	def      component.Definition
	delegate *recordingDelegate
	clock    *stepClock
}

func newFixture(t *testing.T, questions ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	if len(questions) == 0 {
		questions = []string{"I feel rested", "I feel focused", "I feel restless"}
	}
	questionFile := filepath.Join(dir, "questions.txt")
	require.NoError(t, os.WriteFile(questionFile, []byte(strings.Join(questions, "\n")+"\n"), 0o644))
	def := component.Definition{
		TaskNameKey:             "Mood ARS",
		DataDirectoryKey:        filepath.Join(dir, "data"),
		QuestionFileKey:         questionFile,
		QuestionAccessMethodKey: "sequential",
		ZeroBasedKey:            true,
	}
	for i, label := range moodAdjectives {
		def[AdjectiveKey(i)] = label
	}
	return &fixture{
		dir:      dir,
		def:      def,
		delegate: &recordingDelegate{},
		clock:    &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), step: 250 * time.Millisecond},
	}
}

func (f *fixture) controller(opts ...Option) *Controller {
	base := []Option{
		WithClock(f.clock.Now),
		WithSessionIDs(func() string { return "session-1" }),
		WithSeedSource(func() int64 { return 99 }),
	}
	c := New(append(base, opts...)...)
	c.SetDefinition(f.def)
	c.SetDelegate(f.delegate)
	c.Setup()
	return c
}

func TestSequentialRunLogsResponsesInOrder(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	require.False(t, c.ShouldRecover())

	c.Begin()
	for _, selection := range []int{2, 0, 4} {
		require.False(t, c.IsComplete())
		c.SubjectDidRespond(selection)
	}

	require.True(t, c.IsComplete())
	require.Equal(t, 1, f.delegate.finished)
	require.Empty(t, c.ErrorLog())

	log, err := rawdata.Read(c.RawDataFile())
	require.NoError(t, err)
	require.NotNil(t, log.Header)
	require.Equal(t, "session-1", log.Header.SessionID)
	require.Equal(t, int64(99), log.Header.Seed)

	type row struct {
		ID    string
		Value int
	}
	var got []row
	for _, rec := range log.Records {
		got = append(got, row{rec.QuestionID, rec.Value})
		require.GreaterOrEqual(t, rec.Latency, time.Duration(0))
	}
	want := []row{{"1", 2}, {"2", 0}, {"3", 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][2]int{{1, 3}, {2, 3}, {3, 3}}, f.delegate.presented); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestOneBasedScaleShiftsValues(t *testing.T) {
	f := newFixture(t, "only question")
	f.def[ZeroBasedKey] = "no"
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	c.Begin()
	c.SubjectDidRespond(0)

	log, err := rawdata.Read(c.RawDataFile())
	require.NoError(t, err)
	require.Len(t, log.Records, 1)
	require.Equal(t, 1, log.Records[0].Value)
}

func TestCompletionIsSignalledOnce(t *testing.T) {
	f := newFixture(t, "only question")
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	c.Begin()
	c.SubjectDidRespond(1)
	c.NextQuestion()
	c.SubjectDidRespond(1)

	require.Equal(t, 1, f.delegate.finished)
	require.Contains(t, c.ErrorLog(), "no current question")
}

func TestClearance(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture)
		want   string
	}{
		{
			name:   "missing adjective",
			mutate: func(f *fixture) { delete(f.def, AdjectiveKey(3)) },
			want:   "RRFARSAdjective4 is required",
		},
		{
			name: "empty question file",
			mutate: func(f *fixture) {
				path := filepath.Join(f.dir, "empty.txt")
				if err := os.WriteFile(path, []byte("# nothing here\n\n"), 0o644); err != nil {
					panic(err)
				}
				f.def[QuestionFileKey] = path
			},
			want: "question set is empty",
		},
		{
			name:   "missing question file",
			mutate: func(f *fixture) { f.def[QuestionFileKey] = filepath.Join(f.dir, "absent.txt") },
			want:   "absent.txt",
		},
		{
			name:   "unknown access method",
			mutate: func(f *fixture) { f.def[QuestionAccessMethodKey] = "shuffled" },
			want:   "shuffled",
		},
		{
			name:   "missing task name",
			mutate: func(f *fixture) { delete(f.def, TaskNameKey) },
			want:   "RRFARSTaskName is required",
		},
		{
			name:   "bad seed",
			mutate: func(f *fixture) { f.def[RandomSeedKey] = "soon" },
			want:   "RRFARSRandomSeed",
		},
		{
			name: "question id that reads back as a comment",
			mutate: func(f *fixture) {
				path := filepath.Join(f.dir, "hashed.yaml")
				doc := "- id: \"#a\"\n  text: one\n- id: \"#b\"\n  text: two\n"
				if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
					panic(err)
				}
				f.def[QuestionFileKey] = path
			},
			want: "must not start with '#'",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.mutate(f)
			c := f.controller()
			require.False(t, c.IsClearedToBegin())
			require.Contains(t, c.ErrorLog(), tc.want)
			require.True(t, errors.Is(c.registered[0], ErrConfiguration))
			require.NotEmpty(t, f.delegate.errors)
		})
	}
}

func TestClearanceRequiresDelegate(t *testing.T) {
	f := newFixture(t)
	c := New()
	c.SetDefinition(f.def)
	c.Setup()
	require.False(t, c.IsClearedToBegin())
	require.Contains(t, c.ErrorLog(), "no delegate assigned")
}

func TestErrorLogLinesAreTimestamped(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	c.RegisterError("first")
	c.RegisterError("   ")
	c.RegisterError("second")

	lines := strings.Split(strings.TrimSpace(c.ErrorLog()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "[2024-03-01T09:00:00Z] first"), lines[0])
	require.True(t, strings.HasSuffix(lines[1], "] second"), lines[1])
}

func TestAdjectiveBounds(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	for i, label := range moodAdjectives {
		got, err := c.Adjective(i)
		require.NoError(t, err)
		require.Equal(t, label, got)
	}
	for _, idx := range []int{-1, 5} {
		_, err := c.Adjective(idx)
		require.ErrorIs(t, err, survey.ErrAdjectiveIndex)
	}
}

func TestResponseWithoutCurrentQuestion(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	c.SubjectDidRespond(2)
	c.LogSubjectResponse(2)

	require.Len(t, c.registered, 2)
	for _, err := range c.registered {
		require.ErrorIs(t, err, ErrState)
	}
	require.Equal(t, survey.StateIdle, c.State())
	_, statErr := os.Stat(c.RawDataFile())
	require.True(t, os.IsNotExist(statErr))
}

func TestOutOfRangeSelectionDoesNotAdvance(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	c.Begin()
	c.SubjectDidRespond(7)

	q, ok := c.CurrentQuestion()
	require.True(t, ok)
	require.Equal(t, "1", q.ID)
	require.ErrorIs(t, c.registered[0], ErrState)
	position, total := c.Progress()
	require.Equal(t, 1, position)
	require.Equal(t, 3, total)
}

func TestDoubleLogIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	c.Begin()
	c.LogSubjectResponse(1)
	c.LogSubjectResponse(3)

	log, err := rawdata.Read(c.RawDataFile())
	require.NoError(t, err)
	require.Len(t, log.Records, 1)
	require.Contains(t, c.ErrorLog(), "already logged")
}

func TestWriteFailureIsRegistered(t *testing.T) {
	f := newFixture(t, "only question")
	blocker := filepath.Join(f.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	f.def[DataDirectoryKey] = filepath.Join(blocker, "data")
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())

	c.Begin()
	c.SubjectDidRespond(2)

	require.True(t, c.IsComplete())
	require.Equal(t, 1, f.delegate.finished)
	require.NotEmpty(t, c.registered)
	for _, err := range c.registered {
		require.ErrorIs(t, err, ErrIO)
	}
	require.Contains(t, c.Summary(), "responses\t1")
}

func TestRecoverResumesAtNextUnanswered(t *testing.T) {
	for _, method := range []string{"sequential", "random"} {
		t.Run(method, func(t *testing.T) {
			questions := make([]string, 6)
			for i := range questions {
				questions[i] = fmt.Sprintf("statement %d", i+1)
			}
			f := newFixture(t, questions...)
			f.def[QuestionAccessMethodKey] = method

			first := f.controller()
			require.True(t, first.IsClearedToBegin(), first.ErrorLog())
			first.Begin()
			var answered []string
			for i := 0; i < 2; i++ {
				q, ok := first.CurrentQuestion()
				require.True(t, ok)
				answered = append(answered, q.ID)
				first.SubjectDidRespond(i)
			}
			expectedNext, ok := first.CurrentQuestion()
			require.True(t, ok)
			// Simulate a crash: the component is abandoned without finishing.
			first.TearDown()

			core, logs := observer.New(zapcore.WarnLevel)
			second := f.controller(WithSeedSource(func() int64 { return 12345 }), WithLogger(zap.New(core)))
			require.True(t, second.IsClearedToBegin(), second.ErrorLog())
			require.True(t, second.ShouldRecover())
			second.Recover()

			q, ok := second.CurrentQuestion()
			require.True(t, ok)
			require.Equal(t, expectedNext.ID, q.ID)
			position, total := second.Progress()
			require.Equal(t, 3, position)
			require.Equal(t, 6, total)

			seen := map[string]bool{}
			for _, id := range answered {
				seen[id] = true
			}
			for !second.IsComplete() {
				q, ok := second.CurrentQuestion()
				require.True(t, ok)
				require.False(t, seen[q.ID], "question %s presented twice", q.ID)
				seen[q.ID] = true
				second.SubjectDidRespond(4)
			}
			require.Len(t, seen, 6)
			require.Equal(t, 1, f.delegate.finished)

			log, err := rawdata.Read(second.RawDataFile())
			require.NoError(t, err)
			require.Len(t, log.Records, 6)
			require.Len(t, log.Markers["recovered"], 1)
			require.Equal(t, int64(99), log.Header.Seed)
			require.Equal(t, 1, logs.FilterMessageSnippet("recovered").Len())
			require.Contains(t, second.Summary(), "responses\t6")
		})
	}
}

func TestRecoverWithoutRawDataBegins(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	require.False(t, c.ShouldRecover())
	c.Recover()

	q, ok := c.CurrentQuestion()
	require.True(t, ok)
	require.Equal(t, "1", q.ID)
	log, err := rawdata.Read(c.RawDataFile())
	require.NoError(t, err)
	require.NotNil(t, log.Header)
}

func TestTearDownAllowsFreshBegin(t *testing.T) {
	f := newFixture(t, "only question")
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	c.Begin()
	c.SubjectDidRespond(0)
	require.True(t, c.IsComplete())

	c.TearDown()
	require.Nil(t, c.MainView())
	require.Equal(t, survey.StateIdle, c.State())

	require.NoError(t, os.Remove(c.RawDataFile()))
	c.Setup()
	c.Begin()
	require.Equal(t, survey.StateAwaitingResponse, c.State())
	require.NotNil(t, c.MainView())
}

func TestBeginTwiceIsAStateError(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	c.Begin()
	c.Begin()
	require.ErrorIs(t, c.registered[0], ErrState)

	c.SetDefinition(component.Definition{TaskNameKey: "other"})
	require.Equal(t, "Mood ARS", c.TaskName())
}

func TestDefinitionIsCopied(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	f.def[TaskNameKey] = "Changed"
	require.Equal(t, "Mood ARS", c.TaskName())
	require.Equal(t, filepath.Join(f.dir, "data", "Mood_ARS.raw"), c.RawDataFile())
	require.Equal(t, filepath.Join(f.dir, "data"), c.DataDirectory())
}

func TestHeadersAndSummary(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	c.Begin()
	for _, selection := range []int{2, 0, 4} {
		c.SubjectDidRespond(selection)
	}

	require.Equal(t, "question\tresponse\tlatency_ms", c.RunHeader())
	header := c.SessionHeader()
	require.Contains(t, header, "task\tMood ARS")
	require.Contains(t, header, "session\tsession-1")
	require.Contains(t, header, "access\tsequential")
	require.Contains(t, header, "scale\t0-4")
	require.Contains(t, header, "adjectives\tCalm,Tense,Alert,Drowsy,Content")

	summary := strings.Split(c.Summary(), "\n")
	want := []string{
		"responses\t3",
		"mean_response\t2.00",
		"mean_latency_ms\t250",
		"count_Calm\t1",
		"count_Tense\t0",
		"count_Alert\t1",
		"count_Drowsy\t0",
		"count_Content\t1",
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterInstallsFactory(t *testing.T) {
	reg := component.NewRegistry()
	require.NoError(t, Register(reg))
	require.Error(t, Register(reg))

	c, err := reg.Resolve(BundleID)
	require.NoError(t, err)
	require.Equal(t, BundleID, c.Info().ID)
	_, isController := c.(*Controller)
	require.True(t, isController)
}

func TestDefinitionAfterSetupRefreshesScale(t *testing.T) {
	f := newFixture(t)
	c := New(WithClock(f.clock.Now))
	c.SetDelegate(f.delegate)
	c.Setup()
	c.SetDefinition(f.def)
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())

	c.Begin()
	c.SubjectDidRespond(2)
	position, total := c.Progress()
	require.Equal(t, 2, position)
	require.Equal(t, 3, total)
	require.Empty(t, c.ErrorLog())

	label, err := c.Adjective(0)
	require.NoError(t, err)
	require.Equal(t, "Calm", label)
}

func TestRedefinedLabelsReachTheScale(t *testing.T) {
	f := newFixture(t)
	c := f.controller()
	def := f.def.Clone()
	def[AdjectiveKey(2)] = 7
	c.SetDefinition(def)
	require.True(t, c.IsClearedToBegin(), c.ErrorLog())
	label, err := c.Adjective(2)
	require.NoError(t, err)
	require.Equal(t, "7", label)
}
