package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ai-calculator/internal/client"
)

const signInHint = `run "calc login <username>" to sign in`

func (a *App) password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	pw, err := a.secret("Password: ")
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", errors.New("password required: use --password or type it at the prompt")
	}
	return pw, nil
}

func (a *App) secret(label string) (string, error) {
	if !a.Interactive || a.ReadSecret == nil {
		return a.prompt(label)
	}
	fmt.Fprint(a.Err, label)
	pw, err := a.ReadSecret()
	fmt.Fprintln(a.Err)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

func newLoginCmd(app *App, conn connect) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := conn()
			if err != nil {
				return err
			}
			pw, err := app.password(password)
			if err != nil {
				return err
			}
			sess, err := c.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Signed in as %s\n", sess.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(app *App, conn connect) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := conn()
			if err != nil {
				return err
			}
			pw, err := app.password(password)
			if err != nil {
				return err
			}
			msg, err := c.Register(cmd.Context(), args[0], args[1], pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, msg)
			fmt.Fprintf(app.Out, "Now %s.\n", signInHint)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *App, conn connect) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := conn()
			if err != nil {
				return err
			}
			if err := c.Logout(); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Signed out. To continue, %s.\n", signInHint)
			return nil
		},
	}
}

func newWhoamiCmd(app *App, conn connect) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := conn()
			if err != nil {
				return err
			}
			sess, err := requireSession(c)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s <%s>\n", sess.User.Username, sess.User.Email)
			return nil
		},
	}
}

func requireSession(c *client.Client) (*client.Session, error) {
	sess, err := c.RequireSession()
	if errors.Is(err, client.ErrNotAuthenticated) {
		return nil, fmt.Errorf("%w: %s", err, signInHint)
	}
	return sess, err
}
