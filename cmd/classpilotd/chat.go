package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/server"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts an interactive chat session against the configured Canvas
instance. Commands inside the session:

  /role <student|teacher|admin>   switch role
  /history                        show the conversation so far
  /clear                          start over
  /quit                           exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		loop, catalog, err := newLoop(cfg, log)
		if err != nil {
			return err
		}

		role, _ := cmd.Flags().GetString("role")
		userID, _ := cmd.Flags().GetInt64("user-id")
		c := &chatSession{
			loop:    loop,
			gate:    classpilot.NewGate(nil),
			catalog: catalog,
			role:    classpilot.NormalizeRole(role),
			userID:  userID,
		}
		return c.run(cmd)
	},
}

func init() {
	chatCmd.Flags().String("role", "student", "act as this role (student, teacher, admin)")
	chatCmd.Flags().Int64("user-id", 0, "Canvas user id to act on behalf of")
}

type chatSession struct {
	loop    *classpilot.Loop
	gate    *classpilot.Gate
	catalog *classpilot.Catalog
	role    string
	userID  int64

	history []classpilot.Turn
	state   *classpilot.ExecutionState
	pending *classpilot.PendingToolCall
}

func (c *chatSession) run(cmd *cobra.Command) error {
	fmt.Printf("ClassPilot chat (role: %s). Type /quit to exit.\n", c.role)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := c.command(line); done {
				return nil
			}
			continue
		}
		c.turn(cmd, line)
	}
}

// command handles a slash command, returning true on /quit.
func (c *chatSession) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/clear":
		c.history = nil
		c.state = nil
		c.pending = nil
		fmt.Println("Conversation cleared.")
	case "/role":
		if len(fields) < 2 {
			fmt.Println("Usage: /role <student|teacher|admin>")
			break
		}
		c.role = classpilot.NormalizeRole(fields[1])
		c.pending = nil
		fmt.Printf("Now acting as %s.\n", c.role)
	case "/history":
		if len(c.history) == 0 {
			fmt.Println("No messages yet.")
			break
		}
		for _, t := range c.history {
			name := string(t.Role)
			if t.Name != "" {
				name = fmt.Sprintf("%s (%s)", t.Role, t.Name)
			}
			fmt.Printf("[%s] %s\n", name, t.Content)
		}
	default:
		fmt.Printf("Unknown command %s\n", fields[0])
	}
	return false
}

func (c *chatSession) turn(cmd *cobra.Command, message string) {
	if v := c.gate.Check(message, c.catalog.NamesFor(c.role), c.role); !v.Allowed {
		c.history = append(c.history,
			classpilot.Turn{Role: classpilot.RoleUser, Content: message},
			classpilot.Turn{Role: classpilot.RoleAssistant, Content: v.Message})
		fmt.Println(v.Message)
		return
	}

	req := classpilot.RunRequest{
		SystemPrompt: server.SystemPrompt(c.role),
		History:      c.history,
		Message:      message,
		Role:         c.role,
		UserID:       c.userID,
		State:        c.state,
	}

	var (
		res *classpilot.RunResult
		err error
	)
	if c.pending != nil {
		res, err = c.loop.Resume(cmd.Context(), c.pending, req)
		if errors.Is(err, classpilot.ErrPendingExpired) || errors.Is(err, classpilot.ErrNoPendingCall) {
			c.pending = nil
			res, err = c.loop.Run(cmd.Context(), req)
		}
	} else {
		res, err = c.loop.Run(cmd.Context(), req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	c.history = res.Turns[1:]
	c.state = res.State
	c.pending = res.Pending
	fmt.Println(res.Content)
}
