// Package lmstools defines the Canvas tool catalog exposed to the model
// and the handlers that execute it.
package lmstools

import "github.com/classpilot/classpilot"

// Definitions returns the full tool catalog in presentation order.
func Definitions() []classpilot.ToolDefinition {
	return []classpilot.ToolDefinition{
		{
			Name:        "list_user_courses",
			Description: "List all courses for the current user",
		},
		{
			Name:        "get_course",
			Description: "Get detailed information about a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
			},
			Required: []string{"course_id"},
		},
		{
			Name:        "create_course",
			Description: "Create a new Canvas course",
			Parameters: map[string]classpilot.Property{
				"name":        {Type: "string", Description: "Course name"},
				"course_code": {Type: "string", Description: "Short course code, e.g. BIO101"},
				"description": {Type: "string", Description: "Optional course description"},
			},
			Required: []string{"name", "course_code"},
		},
		{
			Name:        "publish_course",
			Description: "Publish a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
			},
			Required: []string{"course_id"},
		},
		{
			Name:        "list_modules",
			Description: "List all modules in a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
			},
			Required: []string{"course_id"},
		},
		{
			Name:        "create_module",
			Description: "Create a new module in a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
				"name":      {Type: "string", Description: "Module name"},
				"position":  {Type: "integer", Description: "Optional ordering position"},
			},
			Required: []string{"course_id", "name"},
		},
		{
			Name:        "list_assignments",
			Description: "List assignments in a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
			},
			Required: []string{"course_id"},
		},
		{
			Name:        "get_assignment",
			Description: "Get details of a specific assignment",
			Parameters: map[string]classpilot.Property{
				"course_id":     {Type: "integer", Description: "The course ID"},
				"assignment_id": {Type: "integer", Description: "The assignment ID"},
			},
			Required: []string{"course_id", "assignment_id"},
		},
		{
			Name:        "create_assignment",
			Description: "Create an assignment in a course",
			Parameters: map[string]classpilot.Property{
				"course_id":       {Type: "integer", Description: "The course ID"},
				"name":            {Type: "string", Description: "Assignment name"},
				"description":     {Type: "string", Description: "Optional assignment description"},
				"points_possible": {Type: "number", Description: "Maximum points"},
				"due_at":          {Type: "string", Description: "Due date, ISO 8601"},
			},
			Required: []string{"course_id", "name"},
		},
		{
			Name:        "grade_assignment",
			Description: "Grade a student's assignment submission",
			Parameters: map[string]classpilot.Property{
				"course_id":     {Type: "integer", Description: "The course ID"},
				"assignment_id": {Type: "integer", Description: "The assignment ID"},
				"user_id":       {Type: "integer", Description: "The student's user ID"},
				"grade":         {Type: "number", Description: "The grade to post"},
			},
			Required: []string{"course_id", "assignment_id", "user_id", "grade"},
		},
		{
			Name:        "enroll_user",
			Description: "Enroll a user into a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
				"user_id":   {Type: "integer", Description: "The user to enroll"},
				"role":      {Type: "string", Description: "StudentEnrollment or TeacherEnrollment"},
			},
			Required: []string{"course_id", "user_id", "role"},
		},
		{
			Name:        "list_users",
			Description: "List all users in the Canvas account (admin only)",
		},
		{
			Name:        "create_user",
			Description: "Create a new user in the Canvas account (admin only)",
			Parameters: map[string]classpilot.Property{
				"name":     {Type: "string", Description: "Full name"},
				"email":    {Type: "string", Description: "Email address"},
				"login_id": {Type: "string", Description: "Login identifier"},
			},
			Required: []string{"name", "email", "login_id"},
		},
		{
			Name:        "list_submissions",
			Description: "List student submissions for an assignment",
			Parameters: map[string]classpilot.Property{
				"course_id":     {Type: "integer", Description: "The course ID"},
				"assignment_id": {Type: "integer", Description: "The assignment ID"},
			},
			Required: []string{"course_id", "assignment_id"},
		},
		{
			Name:        "create_announcement",
			Description: "Post an announcement to a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
				"title":     {Type: "string", Description: "Announcement title"},
				"message":   {Type: "string", Description: "Announcement body"},
			},
			Required: []string{"course_id", "title", "message"},
		},
		{
			Name:        "list_course_files",
			Description: "List files uploaded to a course",
			Parameters: map[string]classpilot.Property{
				"course_id": {Type: "integer", Description: "The course ID"},
			},
			Required: []string{"course_id"},
		},
	}
}

// Roles returns the per-role visibility lists. Students get read-only
// navigation, teachers add content and grading tools, admins see the
// whole catalog.
func Roles() map[string][]string {
	student := []string{
		"list_user_courses",
		"get_course",
		"list_modules",
		"list_assignments",
		"get_assignment",
	}
	teacher := append(append([]string(nil), student...),
		"create_course",
		"publish_course",
		"create_module",
		"create_assignment",
		"grade_assignment",
		"list_submissions",
		"create_announcement",
		"list_course_files",
	)
	admin := append(append([]string(nil), teacher...),
		"enroll_user",
		"list_users",
		"create_user",
	)
	return map[string][]string{
		classpilot.UserRoleStudent: student,
		classpilot.UserRoleTeacher: teacher,
		classpilot.UserRoleAdmin:   admin,
	}
}

// NewCatalog builds the catalog from the static definitions and roles.
func NewCatalog() (*classpilot.Catalog, error) {
	return classpilot.NewCatalog(Definitions(), Roles())
}
