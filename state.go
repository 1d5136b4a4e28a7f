package classpilot

import "github.com/tidwall/gjson"

// ExecutionState accumulates the resource ids created or discovered during
// one agent run, so later steps of the same multi-step request can
// reference them without re-querying. It is owned by one conversation
// session and never shared across sessions.
type ExecutionState struct {
	CourseID    int64            `json:"course_id,omitempty"`
	Modules     map[string]int64 `json:"modules,omitempty"`
	Pages       map[string]int64 `json:"pages,omitempty"`
	Assignments map[string]int64 `json:"assignments,omitempty"`
	Quizzes     map[string]int64 `json:"quizzes,omitempty"`
}

func NewExecutionState() *ExecutionState {
	return &ExecutionState{
		Modules:     map[string]int64{},
		Pages:       map[string]int64{},
		Assignments: map[string]int64{},
		Quizzes:     map[string]int64{},
	}
}

// Merge inspects a successful tool result payload for the well-known
// id-like fields and records them. The payload shape is tool-specific, so
// this is a best-effort scan, not a schema.
func (s *ExecutionState) Merge(payload []byte) {
	if s == nil || len(payload) == 0 || !gjson.ValidBytes(payload) {
		return
	}

	if id := gjson.GetBytes(payload, "course_id"); id.Exists() {
		s.CourseID = id.Int()
	} else if id := gjson.GetBytes(payload, "id"); id.Exists() && gjson.GetBytes(payload, "course_code").Exists() {
		// create_course returns the raw course object.
		s.CourseID = id.Int()
	}

	s.record(payload, "module_id", "name", s.Modules)
	s.record(payload, "page_id", "title", s.Pages)
	s.record(payload, "assignment_id", "name", s.Assignments)
	s.record(payload, "quiz_id", "title", s.Quizzes)
}

func (s *ExecutionState) record(payload []byte, idField, labelField string, into map[string]int64) {
	id := gjson.GetBytes(payload, idField)
	if !id.Exists() {
		return
	}
	label := gjson.GetBytes(payload, labelField).String()
	if label == "" {
		label = "unnamed"
	}
	into[label] = id.Int()
}

// Clone returns a deep copy, for handing state across a session boundary
// without sharing maps.
func (s *ExecutionState) Clone() *ExecutionState {
	if s == nil {
		return nil
	}
	out := &ExecutionState{CourseID: s.CourseID}
	out.Modules = cloneIDMap(s.Modules)
	out.Pages = cloneIDMap(s.Pages)
	out.Assignments = cloneIDMap(s.Assignments)
	out.Quizzes = cloneIDMap(s.Quizzes)
	return out
}

func cloneIDMap(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
