package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/example/todo-platform/internal/localstore"
	"github.com/example/todo-platform/internal/taskclient"
)

var (
	registerName  string
	loginPassword string

	registerCmd = &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			password, err := promptPassword()
			if err != nil {
				return err
			}
			var name *string
			if registerName != "" {
				name = &registerName
			}
			session, err := e.client.Register(cmd.Context(), args[0], password, name)
			if err != nil {
				return err
			}
			if err := e.saveSession(session); err != nil {
				return err
			}
			fmt.Printf("Registered %s\n", session.User.Email)
			return nil
		},
	}

	loginCmd = &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and store the session locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			password := loginPassword
			if password == "" {
				password, err = promptPassword()
				if err != nil {
					return err
				}
			}
			session, err := e.client.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if err := e.saveSession(session); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", session.User.Email)
			return nil
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			session, err := e.loadSession()
			if err != nil {
				return err
			}
			if err := e.client.Logout(cmd.Context(), session.AccessToken, session.RefreshToken); err != nil {
				e.logger.Warn("server-side logout failed, discarding local session anyway", "error", err)
			}
			if err := e.store.Delete(localstore.SessionKey); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			session, err := e.session(cmd)
			if err != nil {
				return err
			}
			user, err := e.client.Me(cmd.Context(), session.AccessToken)
			if err != nil {
				if errors.Is(err, taskclient.ErrNetworkFailure) {
					user = session.User
					fmt.Println("(backend unreachable, showing cached identity)")
				} else {
					return err
				}
			}
			name := ""
			if user.Name != nil {
				name = " (" + *user.Name + ")"
			}
			fmt.Printf("%s%s  id=%s\n", user.Email, name, user.ID)
			return nil
		},
	}
)

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name for the new account")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (prompted when omitted)")
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("password must not be empty")
	}
	return string(raw), nil
}
