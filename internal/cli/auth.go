package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmcdole/shelf/internal/domain"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string
	var remember bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the library backend",
		Long: `Log in and store the session locally.

Missing email or password are prompted for. With --remember the interactive
interface skips its login screen on the next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App(cmd)
			if err != nil {
				return err
			}

			p := newPrompter(cmd)
			if err := p.fill(&email, "Email: ", false); err != nil {
				return err
			}
			if err := p.fill(&password, "Password: ", true); err != nil {
				return err
			}

			user, err := app.Session.Login(cmd.Context(), email, password, remember)
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd.OutOrStdout()).Value(user, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s (%s)\n", displayName(user), user.Role)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().BoolVar(&remember, "remember", false, "stay logged in")
	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var reg domain.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a librarian account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App(cmd)
			if err != nil {
				return err
			}

			p := newPrompter(cmd)
			fields := []struct {
				v      *string
				label  string
				secret bool
			}{
				{&reg.FirstName, "First name: ", false},
				{&reg.LastName, "Last name: ", false},
				{&reg.Email, "Email: ", false},
				{&reg.Password, "Password: ", true},
				{&reg.ConfirmPassword, "Confirm password: ", true},
			}
			for _, f := range fields {
				if err := p.fill(f.v, f.label, f.secret); err != nil {
					return err
				}
			}

			msg, err := app.Session.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd.OutOrStdout()).Message(msg)
		},
	}

	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&reg.ConfirmPassword, "confirm-password", "", "password confirmation (prompted when omitted)")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App(cmd)
			if err != nil {
				return err
			}
			if err := app.Logout(); err != nil {
				return err
			}
			return rootOpts.formatter(cmd.OutOrStdout()).Message("Logged out.")
		},
	}
}

type whoami struct {
	LoggedIn   bool         `json:"logged_in" yaml:"logged_in"`
	User       *domain.User `json:"user,omitempty" yaml:"user,omitempty"`
	Role       string       `json:"role,omitempty" yaml:"role,omitempty"`
	RememberMe bool         `json:"remember_me" yaml:"remember_me"`
	Server     string       `json:"server" yaml:"server"`
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App(cmd)
			if err != nil {
				return err
			}

			info := whoami{
				LoggedIn:   app.Session.IsAuthenticated(),
				RememberMe: app.Session.RememberMe(),
				Server:     app.Client.Host(),
			}
			if user, ok := app.Session.CurrentUser(); ok && info.LoggedIn {
				info.User = &user
				info.Role = app.Session.Role()
			}

			return rootOpts.formatter(cmd.OutOrStdout()).Value(info, func(w io.Writer) error {
				if info.User == nil {
					_, err := fmt.Fprintf(w, "Not logged in (%s)\n", info.Server)
					return err
				}
				_, err := fmt.Fprintf(w, "%s <%s>\nRole: %s\nServer: %s\nRemember me: %t\n",
					displayName(*info.User), info.User.Email, info.Role, info.Server, info.RememberMe)
				return err
			})
		},
	}
}

func displayName(u domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
