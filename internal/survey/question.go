package survey

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyQuestionSet is returned when a question source yields no items.
var ErrEmptyQuestionSet = errors.New("survey: question set is empty")

// Question is a single item shown to the subject.
type Question struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

// UnmarshalYAML accepts either a bare string or an {id, text} mapping.
func (q *Question) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		q.Text = strings.TrimSpace(node.Value)
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: %s must be a scalar", value.Line, key.Value)
			}
			switch strings.ToLower(strings.TrimSpace(key.Value)) {
			case "id":
				q.ID = strings.TrimSpace(value.Value)
			case "text", "question":
				q.Text = strings.TrimSpace(value.Value)
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: question must be a string or mapping", node.Line)
	}
}

// QuestionSet is the ordered collection of questions loaded from a source file.
type QuestionSet struct {
	Questions []Question
	Source    string
}

// Len returns the number of questions.
func (s QuestionSet) Len() int {
	return len(s.Questions)
}

// At returns the question at position i.
func (s QuestionSet) At(i int) Question {
	return s.Questions[i]
}

// Index returns the position of the question with id, or -1.
func (s QuestionSet) Index(id string) int {
	for i, q := range s.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// Validate ensures the set is non-empty with unique IDs and non-empty text.
func (s QuestionSet) Validate() error {
	if len(s.Questions) == 0 {
		return ErrEmptyQuestionSet
	}
	seen := make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		if q.ID == "" {
			return fmt.Errorf("survey: question %d: id is required", i+1)
		}
		if strings.ContainsAny(q.ID, "\t\n") || strings.TrimSpace(q.ID) != q.ID {
			return fmt.Errorf("survey: question %d: id %q contains whitespace separators", i+1, q.ID)
		}
		if strings.HasPrefix(q.ID, "#") {
			return fmt.Errorf("survey: question %d: id %q must not start with '#'", i+1, q.ID)
		}
		if q.Text == "" {
			return fmt.Errorf("survey: question %s: text is required", q.ID)
		}
		if prev, dup := seen[q.ID]; dup {
			return fmt.Errorf("survey: questions %d and %d share id %s", prev+1, i+1, q.ID)
		}
		seen[q.ID] = i
	}
	return nil
}

// LoadQuestionFile reads a question source from disk. YAML files are decoded
// as a list of questions; anything else is treated as one question per line.
func LoadQuestionFile(path string) (QuestionSet, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return QuestionSet{}, fmt.Errorf("survey: question file path is empty")
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("survey: stat %s: %w", trimmed, err)
	}
	if info.IsDir() {
		return QuestionSet{}, fmt.Errorf("survey: %s is a directory", trimmed)
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("survey: read %s: %w", trimmed, err)
	}
	var set QuestionSet
	if isYAMLFile(trimmed) {
		set, err = ParseQuestionYAML(data)
	} else {
		set, err = ParseQuestionText(bytes.NewReader(data))
	}
	if err != nil {
		return QuestionSet{}, fmt.Errorf("survey: %s: %w", trimmed, err)
	}
	set.Source = filepath.Clean(trimmed)
	return set, nil
}

// ParseQuestionText reads one question per line. Blank lines and lines
// starting with '#' are skipped; IDs are the 1-based ordinal.
func ParseQuestionText(r io.Reader) (QuestionSet, error) {
	var set QuestionSet
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set.Questions = append(set.Questions, Question{
			ID:   strconv.Itoa(len(set.Questions) + 1),
			Text: line,
		})
	}
	if err := scanner.Err(); err != nil {
		return QuestionSet{}, fmt.Errorf("survey: scan questions: %w", err)
	}
	if err := set.Validate(); err != nil {
		return QuestionSet{}, err
	}
	return set, nil
}

// ParseQuestionYAML decodes a YAML list of strings or {id, text} mappings.
// A top-level mapping with a "questions" key is accepted as well.
func ParseQuestionYAML(data []byte) (QuestionSet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return QuestionSet{}, ErrEmptyQuestionSet
	}
	var items []Question
	if err := yaml.Unmarshal(data, &items); err != nil {
		var wrapped struct {
			Questions []Question `yaml:"questions"`
		}
		if wrapErr := yaml.Unmarshal(data, &wrapped); wrapErr != nil {
			return QuestionSet{}, fmt.Errorf("survey: decode questions: %w", err)
		}
		items = wrapped.Questions
	}
	set := QuestionSet{Questions: make([]Question, 0, len(items))}
	for i, q := range items {
		if q.ID == "" {
			q.ID = strconv.Itoa(i + 1)
		}
		set.Questions = append(set.Questions, q)
	}
	if err := set.Validate(); err != nil {
		return QuestionSet{}, err
	}
	return set, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
