package server

import (
	"context"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

type userListArgs struct {
	SizeLimit int `json:"sizelimit,omitempty"` // maximum entries to return (default 100)
}

func (s *Server) handleUserList(ctx context.Context, args userListArgs) Outcome {
	limit := args.SizeLimit
	if limit <= 0 {
		limit = ipa.DefaultSizeLimit
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.UserFind(ctx, limit)
	if err != nil {
		return failure("failed to list users", err)
	}
	return success(ipa.InnerResult(res))
}

type userShowArgs struct {
	UID string `json:"uid"` // login name
}

func (s *Server) handleUserShow(ctx context.Context, args userShowArgs) Outcome {
	if args.UID == "" {
		return invalid("uid is required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.UserShow(ctx, args.UID)
	if err != nil {
		return failure("failed to show user", err)
	}
	return success(ipa.InnerResult(res))
}

type userAddArgs struct {
	UID       string `json:"uid"`                    // login name
	GivenName string `json:"givenname"`              // first name
	Surname   string `json:"sn"`                     // last name
	Mail      string `json:"mail,omitempty"`         // email address, may be blank
	Password  string `json:"userpassword,omitempty"` // initial password, may be blank
}

// handleUserAdd creates a user. Optional fields are forwarded to the
// backend even when blank; the directory decides how to treat them.
func (s *Server) handleUserAdd(ctx context.Context, args userAddArgs) Outcome {
	if args.UID == "" || args.GivenName == "" || args.Surname == "" {
		return invalid("uid, givenname and sn are required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.UserAdd(ctx, &ipa.UserAddRequest{
		UID:       args.UID,
		GivenName: args.GivenName,
		Surname:   args.Surname,
		Mail:      args.Mail,
		Password:  args.Password,
	})
	if err != nil {
		return failure("failed to add user", err)
	}
	return success(ipa.InnerResult(res))
}

type userModifyArgs struct {
	UID       string  `json:"uid"`                       // login name
	GivenName *string `json:"givenname,omitempty"`       // first name
	Surname   *string `json:"sn,omitempty"`              // last name
	FullName  *string `json:"cn,omitempty"`              // full name
	Mail      *string `json:"mail,omitempty"`            // email address
	Phone     *string `json:"telephonenumber,omitempty"` // telephone number
	Title     *string `json:"title,omitempty"`           // job title
	OrgUnit   *string `json:"ou,omitempty"`              // organizational unit
	Password  *string `json:"userpassword,omitempty"`    // new password
	Disabled  *bool   `json:"nsaccountlock,omitempty"`   // account lock state
}

// handleUserModify updates the supplied fields on an existing user. At
// least one field beyond uid must be present.
func (s *Server) handleUserModify(ctx context.Context, args userModifyArgs) Outcome {
	if args.UID == "" {
		return invalid("uid is required")
	}
	fields := &ipa.UserModFields{
		GivenName: args.GivenName,
		Surname:   args.Surname,
		FullName:  args.FullName,
		Mail:      args.Mail,
		Phone:     args.Phone,
		Title:     args.Title,
		OrgUnit:   args.OrgUnit,
		Password:  args.Password,
		Disabled:  args.Disabled,
	}
	if fields.Empty() {
		return invalid("no fields to modify")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	res, err := client.UserMod(ctx, args.UID, fields)
	if err != nil {
		return failure("failed to modify user", err)
	}
	return success(ipa.InnerResult(res))
}
