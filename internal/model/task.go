package model

import (
	"sort"
	"strings"
	"time"
)

// TaskState is the lifecycle state of a task.
type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskInProgress TaskState = "in-progress"
	TaskCompleted  TaskState = "completed"
	TaskBlocked    TaskState = "blocked"
)

// TaskStates lists all valid task states in display order.
func TaskStates() []TaskState {
	return []TaskState{TaskPending, TaskInProgress, TaskCompleted, TaskBlocked}
}

// Valid reports whether s is one of the known task states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}

// Task represents a single unit of work that time is tracked against.
// Number is unique within the owning project; deleting a task deletes
// its sessions (owned composition).
type Task struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	ProjectID         uint          `gorm:"not null;uniqueIndex:idx_tasks_project_number,priority:1" json:"projectId"`
	Number            int           `gorm:"not null;uniqueIndex:idx_tasks_project_number,priority:2" json:"number"`
	Title             string        `gorm:"not null" json:"title"`
	Description       string        `json:"description,omitempty"`
	State             TaskState     `gorm:"not null;default:pending;index" json:"state"`
	SizeEstimate      *float64      `json:"sizeEstimate,omitempty"` // story points
	TimeEstimateHours *float64      `json:"timeEstimateHours,omitempty"`
	Tags              TagSet        `gorm:"serializer:json" json:"tags,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
	Sessions          []TimeSession `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasTag reports whether the task carries the given tag. Case-sensitive.
func (t *Task) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// TagSet is a set of free-form tags, unique per task and case-sensitive.
type TagSet []string

// NormalizeTags trims and deduplicates tags case-sensitively, drops
// empties, and sorts the result so the stored representation is
// deterministic. An all-empty input yields nil.
func NormalizeTags(tags []string) TagSet {
	seen := make(map[string]bool, len(tags))
	out := make(TagSet, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
