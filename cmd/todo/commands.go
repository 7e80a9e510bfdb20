package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/todo-platform/internal/config"
	"github.com/example/todo-platform/internal/localstore"
	"github.com/example/todo-platform/internal/sync"
	"github.com/example/todo-platform/internal/taskclient"
)

var (
	apiBase   string
	storePath string
	verbose   bool

	rootCmd = &cobra.Command{
		Use:           "todo",
		Short:         "A command-line client for the to-do platform",
		Long: `todo drives the to-do backend from the terminal: account management,
task CRUD, and a local fallback cache that keeps the task list usable
while the backend is unreachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "backend base URL (defaults to TODO_API_BASE)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "path of the local fallback store (default ~/.todo/store.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(listCmd, addCmd, doneCmd, rmCmd, updateCmd, reconnectCmd)
}

// env bundles the pieces every command needs: configuration, the backend
// client, and the fallback store.
type env struct {
	cfg    config.Config
	client *taskclient.Client
	store  localstore.Store
	logger *slog.Logger
}

func newEnv() (*env, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		// The CLI only needs the API base; a missing JWT secret is the
		// server's concern, so fall back to defaults on load failure.
		cfg = config.Config{APIBaseURL: "http://localhost:8000"}
	}
	if apiBase != "" {
		cfg.APIBaseURL = apiBase
	}

	path := storePath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".todo", "store.json")
	}
	store, err := localstore.OpenFileStore(path)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		client: taskclient.NewClient(cfg.APIBaseURL, nil, logger),
		store:  store,
		logger: logger,
	}, nil
}

func (e *env) saveSession(session taskclient.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return e.store.Set(localstore.SessionKey, string(data))
}

func (e *env) loadSession() (taskclient.Session, error) {
	value, ok, err := e.store.Get(localstore.SessionKey)
	if err != nil {
		return taskclient.Session{}, err
	}
	if !ok {
		return taskclient.Session{}, errors.New("not signed in; run 'todo login' first")
	}
	var session taskclient.Session
	if err := json.Unmarshal([]byte(value), &session); err != nil {
		return taskclient.Session{}, fmt.Errorf("decode stored session: %w", err)
	}
	return session, nil
}

// session returns the stored session, refreshing the access token when it has
// expired. A refresh failure while the backend is unreachable returns the
// stale session so degraded-mode commands can still run.
func (e *env) session(cmd *cobra.Command) (taskclient.Session, error) {
	session, err := e.loadSession()
	if err != nil {
		return taskclient.Session{}, err
	}
	if time.Now().Before(session.ExpiresAt) {
		return session, nil
	}

	refreshed, err := e.client.Refresh(cmd.Context(), session.RefreshToken)
	if err != nil {
		if errors.Is(err, taskclient.ErrNetworkFailure) {
			e.logger.Warn("backend unreachable, keeping stale session", "error", err)
			return session, nil
		}
		return taskclient.Session{}, fmt.Errorf("session expired and refresh failed: %w", err)
	}
	if err := e.saveSession(refreshed); err != nil {
		return taskclient.Session{}, err
	}
	return refreshed, nil
}

func (e *env) synchronizer(session taskclient.Session) *sync.Synchronizer {
	return sync.NewSynchronizer(e.client, e.store, session.User.ID, session.AccessToken, e.logger)
}

func printTasks(tasks []taskclient.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}
	for _, task := range tasks {
		status := " "
		if task.Completed {
			status = "x"
		}
		due := ""
		if task.DueDate != nil {
			due = "  due " + task.DueDate.Local().Format("2006-01-02")
		}
		fmt.Printf("[%s] %-8s %s  (%s)%s\n", status, task.Priority, task.Title, task.ID, due)
		if task.Description != nil && *task.Description != "" {
			fmt.Printf("             %s\n", *task.Description)
		}
	}
}
