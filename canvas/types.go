package canvas

// Course is a Canvas course object, trimmed to the fields the assistant
// surfaces.
type Course struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CourseCode     string `json:"course_code"`
	WorkflowState  string `json:"workflow_state"`
	AccountID      int64  `json:"account_id,omitempty"`
	EnrollmentTerm int64  `json:"enrollment_term_id,omitempty"`
	TotalStudents  *int64 `json:"total_students,omitempty"`
}

// Module is a Canvas course module.
type Module struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Position   int64  `json:"position,omitempty"`
	Published  bool   `json:"published,omitempty"`
	ItemsCount int64  `json:"items_count,omitempty"`
}

// Assignment is a Canvas assignment.
type Assignment struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	DueAt          string   `json:"due_at,omitempty"`
	PointsPossible *float64 `json:"points_possible,omitempty"`
	Published      bool     `json:"published,omitempty"`
	WorkflowState  string   `json:"workflow_state,omitempty"`
}

// User is a Canvas user record.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SortableName string `json:"sortable_name,omitempty"`
	LoginID      string `json:"login_id,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Enrollment links a user to a course with a role.
type Enrollment struct {
	ID              int64  `json:"id"`
	CourseID        int64  `json:"course_id"`
	UserID          int64  `json:"user_id"`
	Type            string `json:"type"`
	Role            string `json:"role,omitempty"`
	EnrollmentState string `json:"enrollment_state,omitempty"`
}

// Submission is one user's submission for an assignment.
type Submission struct {
	ID            int64    `json:"id"`
	AssignmentID  int64    `json:"assignment_id"`
	UserID        int64    `json:"user_id"`
	Grade         string   `json:"grade,omitempty"`
	Score         *float64 `json:"score,omitempty"`
	SubmittedAt   string   `json:"submitted_at,omitempty"`
	WorkflowState string   `json:"workflow_state,omitempty"`
	Late          bool     `json:"late,omitempty"`
}

// DiscussionTopic is a Canvas discussion topic; announcements are topics
// with the announcement flag set.
type DiscussionTopic struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Message        string `json:"message,omitempty"`
	PostedAt       string `json:"posted_at,omitempty"`
	IsAnnouncement bool   `json:"is_announcement,omitempty"`
}

// File is a Canvas file entry.
type File struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content-type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
}

// CreateAssignmentRequest carries the optional fields for a new assignment.
type CreateAssignmentRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	DueAt          string   `json:"due_at,omitempty"`
	PointsPossible *float64 `json:"points_possible,omitempty"`
	Published      bool     `json:"published,omitempty"`
}

// Canvas enrollment types; the assistant-facing role names map onto these.
const (
	StudentEnrollment  = "StudentEnrollment"
	TeacherEnrollment  = "TeacherEnrollment"
	TaEnrollment       = "TaEnrollment"
	ObserverEnrollment = "ObserverEnrollment"
	DesignerEnrollment = "DesignerEnrollment"
)

// EnrollmentType maps an assistant role name onto the Canvas enrollment
// type. Unrecognized roles enroll as students.
func EnrollmentType(role string) string {
	switch role {
	case "teacher", "faculty", "instructor":
		return TeacherEnrollment
	case "ta":
		return TaEnrollment
	case "observer":
		return ObserverEnrollment
	case "designer":
		return DesignerEnrollment
	default:
		return StudentEnrollment
	}
}
