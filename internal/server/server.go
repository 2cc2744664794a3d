package server

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

// Version is reported by the MCP implementation info and the health
// endpoint.
const Version = "0.1.0"

// Server wires the session manager, the tool handlers and the transports
// together. One Server owns exactly one directory session.
type Server struct {
	cfg     *Config
	log     hclog.Logger
	session *ipa.SessionManager
	metrics *Metrics
	mcp     *mcp.Server
}

// New builds a fully registered server from the given configuration.
func New(cfg *Config, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Server{
		cfg:     cfg,
		log:     logger.Named("server"),
		session: ipa.NewSessionManager(&cfg.IPA, ipa.NewHCLogger(logger, "session")),
	}
	s.metrics = NewMetrics(s.session)
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "freeipa-mcp",
		Version: Version,
	}, nil)
	s.registerTools()
	return s
}

// boolPtr returns a pointer to a bool value (for optional ToolAnnotation fields)
func boolPtr(b bool) *bool {
	return &b
}

// addTool registers a handler with the MCP server, wrapping it with
// invocation metrics. Handlers report failures inside the outcome payload,
// so the protocol-level error is always nil.
func addTool[In any](s *Server, tool *mcp.Tool, handler func(context.Context, In) Outcome) {
	mcp.AddTool(s.mcp, tool, func(ctx context.Context, req *mcp.CallToolRequest, args In) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		out := handler(ctx, args)
		status := "success"
		if out.Error != "" {
			status = "error"
			s.log.Debug("tool returned error", "tool", tool.Name, "error", out.Error)
		}
		s.metrics.ObserveTool(tool.Name, status, time.Since(start))
		return nil, out, nil
	})
}

// registerTools adds every directory tool to the MCP server. Input schemas
// are inferred from the argument struct types.
func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        "freeipa_connect",
		Description: "Connect to the directory service with explicit credentials. The stored process configuration is used for automatic reconnects regardless of the parameters given here.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Connect to Directory",
			DestructiveHint: boolPtr(false),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleConnect)

	addTool(s, &mcp.Tool{
		Name:        "freeipa_disconnect",
		Description: "Log out of the directory service and drop the current session.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Disconnect from Directory",
			DestructiveHint: boolPtr(false),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleDisconnect)

	addTool(s, &mcp.Tool{
		Name:        "freeipa_status",
		Description: "Ping the directory service over the current session and return the server summary.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Check Connection Status",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleStatus)

	addTool(s, &mcp.Tool{
		Name:        "change_password",
		Description: "Change a user's password. Requires the current password; the directory enforces its password policy.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Change Password",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleChangePassword)

	addTool(s, &mcp.Tool{
		Name:        "forgot_reset_password",
		Description: "Reset a forgotten password after verifying the user's registered telephone number. Issues a random temporary password, or sets the supplied new_password.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Reset Forgotten Password",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleForgotResetPassword)

	addTool(s, &mcp.Tool{
		Name:        "user_list",
		Description: "List directory users, up to sizelimit entries (default 100).",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Users",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleUserList)

	addTool(s, &mcp.Tool{
		Name:        "user_show",
		Description: "Show the directory entry of a single user by uid.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Show User",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleUserShow)

	addTool(s, &mcp.Tool{
		Name:        "user_add",
		Description: "Create a user. uid, givenname and sn are required; mail and userpassword may be blank.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Add User",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleUserAdd)

	addTool(s, &mcp.Tool{
		Name:        "user_modify",
		Description: "Update fields on an existing user. Only the supplied fields are changed; at least one is required.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Modify User",
			DestructiveHint: boolPtr(true),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleUserModify)

	addTool(s, &mcp.Tool{
		Name:        "group_list",
		Description: "List directory groups, optionally filtered by cn or description, up to sizelimit entries (default 100).",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Groups",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleGroupList)

	addTool(s, &mcp.Tool{
		Name:        "group_show",
		Description: "Show the directory entry of a single group by cn.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Show Group",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleGroupShow)

	addTool(s, &mcp.Tool{
		Name:        "group_add",
		Description: "Create a group. cn is required; description may be blank.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Add Group",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleGroupAdd)

	addTool(s, &mcp.Tool{
		Name:        "group_add_member",
		Description: "Add a user to a group.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Add Group Member",
			DestructiveHint: boolPtr(false),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleGroupAddMember)

	addTool(s, &mcp.Tool{
		Name:        "group_remove_member",
		Description: "Remove a user from a group.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Remove Group Member",
			DestructiveHint: boolPtr(true),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleGroupRemoveMember)
}

// Run connects to the directory, serves the configured transport until ctx
// is cancelled and then tears the session down. A failed initial connection
// is logged but not fatal; tools trigger reconnection on demand.
func (s *Server) Run(ctx context.Context) error {
	if err := s.session.Connect(ctx); err != nil {
		s.log.Warn("initial directory connection failed, will retry on demand",
			"server", s.cfg.IPA.Server, "error", err)
	} else {
		s.log.Info("connected to directory service",
			"server", s.cfg.IPA.Server, "principal", s.session.Principal())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.session.Disconnect(shutdownCtx); err != nil {
			s.log.Warn("failed to close directory session", "error", err)
		}
	}()

	if s.cfg.Transport == "stdio" {
		s.log.Info("serving MCP over stdio")
		return s.mcp.Run(ctx, &mcp.StdioTransport{})
	}
	return s.serveHTTP(ctx)
}
