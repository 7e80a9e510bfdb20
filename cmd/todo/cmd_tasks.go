package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/todo-platform/internal/sync"
	"github.com/example/todo-platform/internal/taskclient"
)

var (
	listStatus   string
	listPriority string
	listSearch   string

	addDescription string
	addPriority    string
	addDue         string

	updateTitle       string
	updateDescription string
	updatePriority    string
	updateDue         string
	updateClearDue    bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List tasks, falling back to the local copy when offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := taskEnv(cmd)
			if err != nil {
				return err
			}
			filter := sync.FilterState{
				Status:     listStatus,
				Priority:   listPriority,
				SearchTerm: listSearch,
			}
			printTasks(s.Filtered(filter))
			reportDegraded(cmd, s)
			return nil
		},
	}

	addCmd = &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := taskEnv(cmd)
			if err != nil {
				return err
			}
			input := taskclient.TaskInput{Title: args[0], Priority: addPriority}
			if addDescription != "" {
				input.Description = &addDescription
			}
			if addDue != "" {
				due, err := parseDue(addDue)
				if err != nil {
					return err
				}
				input.DueDate = &due
			}
			task, err := s.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s\n", task.ID)
			reportDegraded(cmd, s)
			return nil
		},
	}

	doneCmd = &cobra.Command{
		Use:   "done <task-id>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := taskEnv(cmd)
			if err != nil {
				return err
			}
			task, err := s.ToggleCompletion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if task.Completed {
				fmt.Printf("Completed %q\n", task.Title)
			} else {
				fmt.Printf("Reopened %q\n", task.Title)
			}
			reportDegraded(cmd, s)
			return nil
		},
	}

	rmCmd = &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := taskEnv(cmd)
			if err != nil {
				return err
			}
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			reportDegraded(cmd, s)
			return nil
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update <task-id>",
		Short: "Edit a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := taskEnv(cmd)
			if err != nil {
				return err
			}
			patch := taskclient.TaskPatch{ClearDueDate: updateClearDue}
			if cmd.Flags().Changed("title") {
				patch.Title = &updateTitle
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &updateDescription
			}
			if cmd.Flags().Changed("priority") {
				patch.Priority = &updatePriority
			}
			if updateDue != "" {
				if updateClearDue {
					return fmt.Errorf("--due and --clear-due are mutually exclusive")
				}
				due, err := parseDue(updateDue)
				if err != nil {
					return err
				}
				patch.DueDate = &due
			}
			task, err := s.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %q\n", task.Title)
			reportDegraded(cmd, s)
			return nil
		},
	}

	reconnectCmd = &cobra.Command{
		Use:   "sync",
		Short: "Re-adopt the server's task list after working offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := taskEnv(cmd)
			if err != nil {
				return err
			}
			divergent, err := s.Reconnect(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend still unreachable: %w", err)
			}
			if divergent > 0 {
				fmt.Printf("Back online. %d local-only task(s) were discarded in favor of the server copy.\n", divergent)
			} else {
				fmt.Println("Back online, local copy matched the server.")
			}
			return nil
		},
	}
)

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", sync.StatusAll, "filter by status (all, active, completed)")
	listCmd.Flags().StringVar(&listPriority, "priority", sync.PriorityAll, "filter by priority (all, low, medium, high)")
	listCmd.Flags().StringVar(&listSearch, "search", "", "filter by substring of title or description")

	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "task description")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "priority (low, medium, high)")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date (YYYY-MM-DD or RFC 3339)")

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
	updateCmd.Flags().StringVar(&updatePriority, "priority", "", "new priority")
	updateCmd.Flags().StringVar(&updateDue, "due", "", "new due date (YYYY-MM-DD or RFC 3339)")
	updateCmd.Flags().BoolVar(&updateClearDue, "clear-due", false, "remove the due date")
}

// taskEnv builds a synchronizer for the stored session and primes its cache.
// A refresh failure that degrades the synchronizer is tolerated so commands
// keep working against the local copy.
func taskEnv(cmd *cobra.Command) (*sync.Synchronizer, error) {
	e, err := newEnv()
	if err != nil {
		return nil, err
	}
	session, err := e.session(cmd)
	if err != nil {
		return nil, err
	}
	s := e.synchronizer(session)
	if err := s.Refresh(cmd.Context()); err != nil && s.Authority() != sync.AuthorityDegradedLocal {
		return nil, err
	}
	return s, nil
}

func reportDegraded(cmd *cobra.Command, s *sync.Synchronizer) {
	if s.Authority() == sync.AuthorityDegradedLocal {
		fmt.Fprintln(cmd.ErrOrStderr(), "Note: working offline, run 'todo sync' once the backend is reachable.")
	}
}

func parseDue(value string) (time.Time, error) {
	if strings.Contains(value, "T") {
		due, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid due date %q: %w", value, err)
		}
		return due.UTC(), nil
	}
	due, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: %w", value, err)
	}
	return due.UTC(), nil
}
