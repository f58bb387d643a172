package cli

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

type tokenOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var subject, role string

	cmd := &cobra.Command{
		Use:           "token",
		Short:         "Issue an access token for the attendance HTTP endpoints",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			if role != jwt.RoleOperator && role != jwt.RoleService {
				return invalidInput(out, fmt.Errorf("role must be %q or %q", jwt.RoleOperator, jwt.RoleService))
			}

			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			if err := cfg.RequireJWT(); err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}

			svc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
			token, expiresAt, err := svc.GenerateAccessToken(subject, role)
			if err != nil {
				return WrapExitError(ExitCommandError, "generate token", err)
			}

			return out.Success(tokenOutput{
				AccessToken: token,
				ExpiresAt:   time.Unix(expiresAt, 0).UTC(),
				Role:        role,
			}, token)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "attendancectl", "token subject")
	cmd.Flags().StringVar(&role, "role", jwt.RoleOperator, "token role (operator|service)")

	return cmd
}
