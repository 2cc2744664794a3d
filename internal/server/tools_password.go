package server

import (
	"context"

	"github.com/dirops/freeipa-mcp/internal/ipa"
)

type changePasswordArgs struct {
	Username    string `json:"username"`     // login name
	NewPassword string `json:"new_password"` // password to set
	OldPassword string `json:"old_password"` // current password
}

// handleChangePassword performs a user-initiated password change through
// the dedicated password endpoint, which enforces the old password.
func (s *Server) handleChangePassword(ctx context.Context, args changePasswordArgs) Outcome {
	if args.Username == "" || args.NewPassword == "" || args.OldPassword == "" {
		return invalid("username, new_password and old_password are required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}
	if err := client.ChangePassword(ctx, args.Username, args.OldPassword, args.NewPassword); err != nil {
		return failure("failed to change password", err)
	}
	return success(map[string]any{
		"message":  "password changed successfully",
		"username": args.Username,
	})
}

type forgotResetArgs struct {
	Username    string `json:"username"`               // login name
	Phone       string `json:"phone"`                  // registered telephone number, used for verification
	NewPassword string `json:"new_password,omitempty"` // desired password; a random one is issued when blank
}

// handleForgotResetPassword resets a forgotten password after verifying the
// caller against the telephone number stored in the directory. An
// administrative modify installs a random temporary password; when the
// caller chose a password, a regular change from the temporary one follows
// so that the directory applies its own policy checks.
func (s *Server) handleForgotResetPassword(ctx context.Context, args forgotResetArgs) Outcome {
	if args.Username == "" || args.Phone == "" {
		return invalid("username and phone are required")
	}

	client, err := s.session.EnsureConnected(ctx)
	if err != nil {
		return notConnected()
	}

	res, err := client.UserShow(ctx, args.Username)
	if err != nil {
		return failure("failed to reset password", err)
	}
	entry, _ := ipa.InnerResult(res).(map[string]any)
	stored := ipa.StringList(entry["telephonenumber"])
	s.log.Debug("verifying phone number for password reset",
		"username", args.Username, "stored_numbers", len(stored))
	if !ipa.MatchPhone(stored, args.Phone, s.cfg.CountryCode, s.cfg.TrunkPrefix) {
		return invalid("phone number could not be verified")
	}

	temp, err := ipa.GeneratePassword(ipa.DefaultPasswordLength)
	if err != nil {
		return failure("failed to reset password", err)
	}
	if _, err := client.UserMod(ctx, args.Username, &ipa.UserModFields{Password: &temp}); err != nil {
		return failure("failed to reset password", err)
	}

	message := "password reset successfully, a temporary password was issued"
	newPassword := temp
	if args.NewPassword != "" {
		if err := client.ChangePassword(ctx, args.Username, temp, args.NewPassword); err != nil {
			return failure("failed to reset password", err)
		}
		message = "password reset successfully and the new password was set"
		newPassword = args.NewPassword
	}
	return success(map[string]any{
		"message":      message,
		"username":     args.Username,
		"new_password": newPassword,
	})
}
