// Package server exposes the assistant over HTTP.
package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/session"
	"github.com/classpilot/classpilot/store/bolt"
)

// Server wires the agent loop, gate, sessions, and stores behind a gin
// router.
type Server struct {
	loop     *classpilot.Loop
	gate     *classpilot.Gate
	catalog  *classpilot.Catalog
	sessions *session.Manager
	convs    *bolt.ConversationStore
	usage    *bolt.UsageStore
	log      zerolog.Logger
}

// Deps are the server's constructor dependencies. Conversations and
// Usage may be nil to run without persistence.
type Deps struct {
	Loop     *classpilot.Loop
	Gate     *classpilot.Gate
	Catalog  *classpilot.Catalog
	Sessions *session.Manager
	Convs    *bolt.ConversationStore
	Usage    *bolt.UsageStore
	Log      zerolog.Logger
}

func New(deps Deps) *Server {
	return &Server{
		loop:     deps.Loop,
		gate:     deps.Gate,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		convs:    deps.Convs,
		usage:    deps.Usage,
		log:      deps.Log,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(s.requestLogger())

	g.GET("/health", s.health)
	g.POST("/inference", s.inference)
	g.PUT("/sessions/:id/role", s.setRole)

	g.GET("/conversations", s.listConversations)
	g.GET("/conversations/:id", s.getConversation)
	g.DELETE("/conversations/:id", s.deleteConversation)

	g.GET("/usage/stats", s.usageStats)
	return g
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// SystemPrompt assembles the model's standing instructions for a role.
func SystemPrompt(role string) string {
	base := "You are a Canvas LMS assistant. Use the available functions to carry out the user's request. " +
		"When a function call succeeds, summarize the outcome for the user. " +
		"Never invent IDs; look them up or use the ones returned by earlier calls."

	var roleContext string
	switch classpilot.NormalizeRole(role) {
	case classpilot.UserRoleAdmin:
		roleContext = "You are assisting an ADMINISTRATOR. They can create users, create courses, enroll users, and manage all Canvas operations."
	case classpilot.UserRoleTeacher:
		roleContext = "You are assisting a TEACHER. They can create and manage courses, modules, assignments, grades, and announcements."
	default:
		roleContext = "You are assisting a STUDENT. They can only view courses, modules, and assignments they're enrolled in."
	}
	return fmt.Sprintf("%s\n\n%s", base, roleContext)
}
