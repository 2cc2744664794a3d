package ipa

import "context"

// DefaultSizeLimit bounds unqualified directory listings.
const DefaultSizeLimit = 100

// UserFind lists user accounts, bounded by sizeLimit.
func (c *rpcClient) UserFind(ctx context.Context, sizeLimit int) (any, error) {
	return c.Call(ctx, "user_find", nil, map[string]any{"sizelimit": sizeLimit})
}

// UserShow fetches a single user account by login name.
func (c *rpcClient) UserShow(ctx context.Context, uid string) (any, error) {
	return c.Call(ctx, "user_show", []string{uid}, nil)
}

// UserAdd creates a new user account. Blank optional values are passed to
// the backend unchanged; whether it accepts them is backend policy.
func (c *rpcClient) UserAdd(ctx context.Context, req *UserAddRequest) (any, error) {
	if req == nil || req.UID == "" {
		return nil, NewValidationError("user_add", "uid is required")
	}

	return c.Call(ctx, "user_add", []string{req.UID}, map[string]any{
		"givenname":    req.GivenName,
		"sn":           req.Surname,
		"mail":         req.Mail,
		"userpassword": req.Password,
	})
}

// UserMod updates the supplied attributes of a user account.
func (c *rpcClient) UserMod(ctx context.Context, uid string, fields *UserModFields) (any, error) {
	if uid == "" {
		return nil, NewValidationError("user_mod", "uid is required")
	}
	if fields.Empty() {
		return nil, NewValidationError("user_mod", "no fields to modify")
	}

	return c.Call(ctx, "user_mod", []string{uid}, fields.Options())
}

// GroupFind lists groups. Name and description filters compose as a joint
// backend-side AND; the size limit is always applied.
func (c *rpcClient) GroupFind(ctx context.Context, filter *GroupFilter) (any, error) {
	if filter == nil {
		filter = &GroupFilter{SizeLimit: DefaultSizeLimit}
	}
	return c.Call(ctx, "group_find", nil, filter.Options())
}

// GroupShow fetches a single group by name.
func (c *rpcClient) GroupShow(ctx context.Context, cn string) (any, error) {
	return c.Call(ctx, "group_show", []string{cn}, nil)
}

// GroupAdd creates a new group. The description is passed through even when
// blank, mirroring the add form's behavior.
func (c *rpcClient) GroupAdd(ctx context.Context, cn, description string) (any, error) {
	if cn == "" {
		return nil, NewValidationError("group_add", "cn is required")
	}

	return c.Call(ctx, "group_add", []string{cn}, map[string]any{
		"description": description,
	})
}

// GroupAddMember adds a user to a group.
func (c *rpcClient) GroupAddMember(ctx context.Context, cn, user string) (any, error) {
	return c.Call(ctx, "group_add_member", []string{cn}, map[string]any{
		"user": []string{user},
	})
}

// GroupRemoveMember removes a user from a group.
func (c *rpcClient) GroupRemoveMember(ctx context.Context, cn, user string) (any, error) {
	return c.Call(ctx, "group_remove_member", []string{cn}, map[string]any{
		"user": []string{user},
	})
}
