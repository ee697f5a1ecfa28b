package domain

type TaskEventType string

const (
	TaskEventCreated TaskEventType = "task.created"
	TaskEventUpdated TaskEventType = "task.updated"
	TaskEventDeleted TaskEventType = "task.deleted"
)

// TaskEvent describes a change to a task. It is only ever delivered to the
// task's owner.
type TaskEvent struct {
	Type TaskEventType
	Task Task
}
