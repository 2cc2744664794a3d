package server

import (
	"context"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

type groupListArgs struct {
	SizeLimit   int    `json:"sizelimit,omitempty"`   // maximum entries to return (default 100)
	Name        string `json:"cn,omitempty"`          // filter by group name
	Description string `json:"description,omitempty"` // filter by description
}

func (s *Server) handleGroupList(ctx context.Context, args groupListArgs) Outcome {
	limit := args.SizeLimit
	if limit <= 0 {
		limit = ipa.DefaultSizeLimit
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.GroupFind(ctx, &ipa.GroupFilter{
		SizeLimit:   limit,
		Name:        args.Name,
		Description: args.Description,
	})
	if err != nil {
		return failure("failed to list groups", err)
	}
	return success(ipa.InnerResult(res))
}

type groupShowArgs struct {
	CN string `json:"cn"` // group name
}

func (s *Server) handleGroupShow(ctx context.Context, args groupShowArgs) Outcome {
	if args.CN == "" {
		return invalid("cn is required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.GroupShow(ctx, args.CN)
	if err != nil {
		return failure("failed to show group", err)
	}
	return success(ipa.InnerResult(res))
}

type groupAddArgs struct {
	CN          string `json:"cn"`                    // group name
	Description string `json:"description,omitempty"` // description, may be blank
}

func (s *Server) handleGroupAdd(ctx context.Context, args groupAddArgs) Outcome {
	if args.CN == "" {
		return invalid("cn is required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.GroupAdd(ctx, args.CN, args.Description)
	if err != nil {
		return failure("failed to add group", err)
	}
	return success(ipa.InnerResult(res))
}

type groupMemberArgs struct {
	CN   string `json:"cn"`   // group name
	User string `json:"user"` // member login name
}

func (s *Server) handleGroupAddMember(ctx context.Context, args groupMemberArgs) Outcome {
	if args.CN == "" || args.User == "" {
		return invalid("cn and user are required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.GroupAddMember(ctx, args.CN, args.User)
	if err != nil {
		return failure("failed to add group member", err)
	}
	return success(ipa.InnerResult(res))
}

func (s *Server) handleGroupRemoveMember(ctx context.Context, args groupMemberArgs) Outcome {
	if args.CN == "" || args.User == "" {
		return invalid("cn and user are required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.GroupRemoveMember(ctx, args.CN, args.User)
	if err != nil {
		return failure("failed to remove group member", err)
	}
	return success(ipa.InnerResult(res))
}
