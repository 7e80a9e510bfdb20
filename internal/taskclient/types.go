package taskclient

import "time"

// Wire types mirror the backend's camelCase JSON contract.

// User is the backend account record, preferences included.
type User struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Name        *string     `json:"name"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Preferences is the embedded preference block of a User.
type Preferences struct {
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	TaskSortOrder        string `json:"taskSortOrder"`
	DateFormat           string `json:"dateFormat"`
	WeeklyDigest         bool   `json:"weeklyDigest"`
}

// Session is the credential pair issued by login, register, and refresh.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         User      `json:"user"`
}

// Task is the backend task record.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput carries the fields a caller may set when creating a task. The
// server assigns id, createdAt, and updatedAt.
type TaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// TaskPatch carries a partial update. Nil fields are omitted from the request
// and left unchanged by the server. ClearDueDate sends an explicit empty
// dueDate, which the server treats as removal.
type TaskPatch struct {
	Title        *string
	Description  *string
	Completed    *bool
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
}

func (p TaskPatch) body() map[string]any {
	body := make(map[string]any)
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Completed != nil {
		body["completed"] = *p.Completed
	}
	if p.Priority != nil {
		body["priority"] = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		body["dueDate"] = ""
	case p.DueDate != nil:
		body["dueDate"] = p.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return body
}

// TaskFilters constrains ListTasks. Zero values impose no constraint and are
// omitted from the request rather than sent as wildcards.
type TaskFilters struct {
	Status   string
	Priority string
	Search   string
	Limit    int
	Offset   int
}

// TaskPage is a page of tasks plus the total match count before paging.
type TaskPage struct {
	Tasks      []Task `json:"tasks"`
	TotalCount int    `json:"totalCount"`
}
