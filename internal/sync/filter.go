package sync

import (
	"strings"

	"github.com/example/todo-platform/internal/taskclient"
)

// Filter state values. "all" and the empty string impose no constraint.
const (
	StatusAll       = "all"
	StatusActive    = "active"
	StatusCompleted = "completed"

	PriorityAll = "all"
)

// FilterState is the transient client-side view filter. It is applied to the
// cached task list and never persisted.
type FilterState struct {
	Status     string
	Priority   string
	SearchTerm string
}

// Apply returns the tasks satisfying every constraint simultaneously. The
// search term matches case-insensitively against title and description.
func (f FilterState) Apply(tasks []taskclient.Task) []taskclient.Task {
	matched := make([]taskclient.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.matches(task) {
			matched = append(matched, task)
		}
	}
	return matched
}

func (f FilterState) matches(task taskclient.Task) bool {
	switch f.Status {
	case "", StatusAll:
	case StatusActive:
		if task.Completed {
			return false
		}
	case StatusCompleted:
		if !task.Completed {
			return false
		}
	default:
		return false
	}

	if f.Priority != "" && f.Priority != PriorityAll && task.Priority != f.Priority {
		return false
	}

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		needle := strings.ToLower(term)
		title := strings.ToLower(task.Title)
		description := ""
		if task.Description != nil {
			description = strings.ToLower(*task.Description)
		}
		if !strings.Contains(title, needle) && !strings.Contains(description, needle) {
			return false
		}
	}

	return true
}
