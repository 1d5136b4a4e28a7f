package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/session"
	"github.com/classpilot/classpilot/store/bolt"
)

type inferenceRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
	Role      string `json:"role"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
}

type inferenceResponse struct {
	SessionID string               `json:"session_id"`
	Response  string               `json:"response"`
	Status    classpilot.RunStatus `json:"status"`
	Blocked   bool                 `json:"blocked,omitempty"`
	ToolsUsed []string             `json:"tools_used,omitempty"`
	Usage     classpilot.Usage     `json:"usage"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) inference(c *gin.Context) {
	var req inferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sess := s.resolveSession(&req)

	// Fast intent check before spending a model call.
	if v := s.gate.Check(req.Message, s.catalog.NamesFor(sess.Role), sess.Role); !v.Allowed {
		s.sessions.Update(sess.ID, func(ss *session.Session) {
			ss.History = append(ss.History,
				classpilot.Turn{Role: classpilot.RoleUser, Content: req.Message},
				classpilot.Turn{Role: classpilot.RoleAssistant, Content: v.Message})
		})
		c.JSON(http.StatusOK, inferenceResponse{
			SessionID: sess.ID,
			Response:  v.Message,
			Status:    classpilot.StatusCompleted,
			Blocked:   true,
		})
		return
	}

	runReq := classpilot.RunRequest{
		SystemPrompt: SystemPrompt(sess.Role),
		History:      sess.History,
		Message:      req.Message,
		Role:         sess.Role,
		UserID:       sess.UserID,
		State:        sess.State,
	}

	var (
		res *classpilot.RunResult
		err error
	)
	if sess.Pending != nil {
		res, err = s.loop.Resume(c.Request.Context(), sess.Pending, runReq)
		if errors.Is(err, classpilot.ErrPendingExpired) || errors.Is(err, classpilot.ErrNoPendingCall) {
			// Stale clarification: treat the message as a fresh request.
			s.sessions.Update(sess.ID, func(ss *session.Session) { ss.Pending = nil })
			res, err = s.loop.Run(c.Request.Context(), runReq)
		}
	} else {
		res, err = s.loop.Run(c.Request.Context(), runReq)
	}
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("inference failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	s.sessions.Update(sess.ID, func(ss *session.Session) {
		// Turns[0] is the system prompt; history stores the dialogue only.
		ss.History = res.Turns[1:]
		ss.Pending = res.Pending
		ss.State = res.State
	})
	s.persist(c, sess, res)

	c.JSON(http.StatusOK, inferenceResponse{
		SessionID: sess.ID,
		Response:  res.Content,
		Status:    res.Status,
		ToolsUsed: res.ToolsUsed,
		Usage:     res.Usage,
	})
}

func (s *Server) resolveSession(req *inferenceRequest) *session.Session {
	if req.SessionID != "" {
		if sess, ok := s.sessions.Get(req.SessionID); ok {
			if req.Role != "" && classpilot.NormalizeRole(req.Role) != sess.Role {
				s.sessions.SetRole(sess.ID, req.Role)
				sess, _ = s.sessions.Get(sess.ID)
			}
			return sess
		}
	}
	return s.sessions.Create(req.Role, req.UserID, req.Username)
}

func (s *Server) persist(c *gin.Context, sess *session.Session, res *classpilot.RunResult) {
	ctx := c.Request.Context()
	if s.convs != nil {
		err := s.convs.Save(ctx, &bolt.Conversation{
			ID:       sess.ID,
			Role:     sess.Role,
			UserID:   sess.UserID,
			Username: sess.Username,
			Turns:    res.Turns[1:],
			State:    res.State,
			Pending:  res.Pending,
		})
		if err != nil {
			s.log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to persist conversation")
		}
	}
	if s.usage != nil {
		if err := s.usage.Record(ctx, sess.ID, res.Usage, res.ToolsUsed); err != nil {
			s.log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to record usage")
		}
	}
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (s *Server) setRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}
	id := c.Param("id")
	if !s.sessions.SetRole(id, req.Role) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "role": classpilot.NormalizeRole(req.Role)})
}

func (s *Server) listConversations(c *gin.Context) {
	if s.convs == nil {
		c.JSON(http.StatusOK, gin.H{"conversations": []any{}})
		return
	}
	convs, err := s.convs.List(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (s *Server) getConversation(c *gin.Context) {
	if s.convs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	conv, err := s.convs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteConversation(c *gin.Context) {
	if s.convs != nil {
		if err := s.convs.Delete(c.Request.Context(), c.Param("id")); err != nil {
			s.log.Error().Err(err).Msg("failed to delete conversation")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	s.sessions.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (s *Server) usageStats(c *gin.Context) {
	if s.usage == nil {
		c.JSON(http.StatusOK, &bolt.UsageStats{ByModel: map[string]int64{}})
		return
	}
	stats, err := s.usage.Stats(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to compute usage stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
