package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/tracker-sync/internal/api"
	"github.com/nhle/tracker-sync/internal/auth"
	"github.com/nhle/tracker-sync/internal/model"
)

func loginCmd(rt *runtime) *cobra.Command {
	var creds Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rt.opts.Prompter.Credentials(creds, false)
			if err != nil {
				return err
			}

			user, err := rt.app.Auth.Login(cmd.Context(), c.Email, c.Password)
			if err != nil {
				rt.app.Toasts.Error(authMessage(err, "Login failed"))
				rt.flushToasts()
				return err
			}

			if rt.jsonOut {
				return rt.printJSON(user)
			}
			rt.printf("Logged in as %s\n", displayName(user, c.Email))
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func registerCmd(rt *runtime) *cobra.Command {
	var creds Credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := rt.opts.Prompter.Credentials(creds, true)
			if err != nil {
				return err
			}

			user, loggedIn, err := rt.app.Auth.Register(cmd.Context(), c.Email, c.Password, c.Confirm)
			if err != nil {
				rt.app.Toasts.Error(authMessage(err, "Registration failed"))
				rt.flushToasts()
				return err
			}

			rt.app.Toasts.Success("Account created.")
			rt.flushToasts()

			if rt.jsonOut {
				return rt.printJSON(map[string]any{"user": user, "logged_in": loggedIn})
			}
			if loggedIn {
				rt.printf("Logged in as %s\n", displayName(user, c.Email))
			} else {
				rt.printf("Account created. Run `tracker login` to sign in.\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&creds.Confirm, "confirm", "", "Repeat the password (prompted when omitted)")
	return cmd
}

func logoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Auth.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}
			if !rt.jsonOut {
				rt.printf("Logged out\n")
			}
			return nil
		},
	}
}

func whoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}

			user, err := rt.app.Client.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			rt.app.Session.SetUser(user)

			if rt.jsonOut {
				return rt.printJSON(user)
			}
			rt.printUser(user)
			return nil
		},
	}
}

func profileCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}
			user, err := rt.app.Client.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return rt.printJSON(user)
			}
			rt.printUser(user)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-name NAME",
		Short: "Change your full name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.requireLogin(); err != nil {
				return err
			}

			name := strings.TrimSpace(strings.Join(args, " "))
			user, err := rt.app.Client.UpdateProfile(cmd.Context(), name)
			if err != nil {
				if !api.IsUnauthorized(err) {
					rt.app.Toasts.Error(api.UserMessage(err, "Failed to update profile"))
				}
				rt.flushToasts()
				return err
			}
			if user == nil {
				user = rt.app.Session.User()
				if user != nil {
					user.FullName = name
				}
			}
			if user != nil {
				rt.app.Session.SetUser(user)
			}

			rt.app.Toasts.Success("Profile updated!")
			rt.flushToasts()

			if rt.jsonOut {
				return rt.printJSON(user)
			}
			return nil
		},
	})

	return cmd
}

func (rt *runtime) printUser(u *model.User) {
	rt.printf("ID:         %d\n", u.ID)
	rt.printf("Email:      %s\n", u.Email)
	rt.printf("Name:       %s\n", u.FullName)
	if u.LastLogin != nil {
		rt.printf("Last login: %s\n", u.LastLogin.Local().Format("2006-01-02 15:04"))
	}
}

// authMessage prefers the text of local input errors over the generic
// fallback.
func authMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrNoToken):
		return err.Error()
	}
	return api.UserMessage(err, fallback)
}

func displayName(u *model.User, fallback string) string {
	if u == nil {
		return fallback
	}
	return u.DisplayName()
}
