package classpilot

import (
	"fmt"
	"strings"
)

// GateRule maps one tool to the keyword set that implies it. A message
// implies the tool only if every keyword appears in it (case-insensitive
// substring match). The lists favor precision over recall: a missed denial
// is corrected by the executor's authoritative check, while a wrong denial
// only costs usability.
type GateRule struct {
	Tool     string
	Keywords []string
	Action   string // human-readable, e.g. "create courses"

	// Privilege names the access level that unlocks the tool, e.g.
	// "teacher or admin". Empty means no role has the tool and the
	// denial omits the escalation hint.
	Privilege string
}

// DefaultGateRules mirrors the intent table used in production: mutating
// actions on courses, modules, assignments, and people.
func DefaultGateRules() []GateRule {
	staff := "teacher or admin"
	return []GateRule{
		{Tool: "create_course", Keywords: []string{"create", "course"}, Action: "create courses", Privilege: staff},
		{Tool: "update_course", Keywords: []string{"update", "course"}, Action: "update courses"},
		{Tool: "delete_course", Keywords: []string{"delete", "course"}, Action: "delete courses"},
		{Tool: "publish_course", Keywords: []string{"publish", "course"}, Action: "publish courses", Privilege: staff},
		{Tool: "create_module", Keywords: []string{"create", "module"}, Action: "create modules", Privilege: staff},
		{Tool: "delete_module", Keywords: []string{"delete", "module"}, Action: "delete modules"},
		{Tool: "create_assignment", Keywords: []string{"create", "assignment"}, Action: "create assignments", Privilege: staff},
		{Tool: "delete_assignment", Keywords: []string{"delete", "assignment"}, Action: "delete assignments"},
		{Tool: "grade_assignment", Keywords: []string{"grade", "assignment"}, Action: "grade assignments", Privilege: staff},
		{Tool: "create_announcement", Keywords: []string{"post", "announcement"}, Action: "post announcements", Privilege: staff},
		{Tool: "enroll_user", Keywords: []string{"enroll", "user"}, Action: "enroll users", Privilege: "admin"},
		{Tool: "create_user", Keywords: []string{"create", "user"}, Action: "create users", Privilege: "admin"},
	}
}

// Verdict is the outcome of a gate check.
type Verdict struct {
	Allowed      bool   `json:"allowed"`
	Message      string `json:"message,omitempty"`
	RequiredTool string `json:"required_tool,omitempty"`
}

// Gate is the fast pre-model permission check. It blocks messages whose
// implied tool the caller's role cannot see, short-circuiting before any
// model call. It never errors; absence of a match defaults to allowed.
type Gate struct {
	rules []GateRule
}

// NewGate builds a gate from a rules table. Nil rules means the default
// table.
func NewGate(rules []GateRule) *Gate {
	if rules == nil {
		rules = DefaultGateRules()
	}
	return &Gate{rules: rules}
}

// Check reports whether the message may proceed for a caller whose visible
// tool set is available.
func (g *Gate) Check(message string, available map[string]bool, role string) Verdict {
	lower := strings.ToLower(message)
	for _, rule := range g.rules {
		if !impliesAll(lower, rule.Keywords) {
			continue
		}
		if available[rule.Tool] {
			continue
		}
		return Verdict{
			Allowed:      false,
			Message:      permissionMessage(rule, role),
			RequiredTool: rule.Tool,
		}
	}
	return Verdict{Allowed: true}
}

func impliesAll(lowerMessage string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(lowerMessage, kw) {
			return false
		}
	}
	return true
}

func permissionMessage(rule GateRule, role string) string {
	display := role
	if display == "" {
		display = "your role"
	}
	msg := fmt.Sprintf("I don't have permission to %s with %s access.", rule.Action, display)
	if rule.Privilege == "" {
		return msg + " That operation isn't available to any role."
	}
	return fmt.Sprintf("%s This action requires %s privileges.", msg, rule.Privilege)
}
