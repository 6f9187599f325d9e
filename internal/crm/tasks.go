// internal/crm/tasks.go
package crm

import (
	"context"
	"strconv"

	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/notify"
)

// Tasks serves requirements and complaints. The backend keeps both in one
// collection; the split is a client-side taskType filter.
type Tasks struct {
	*Resource[models.Task]
}

func NewTasks(deps Deps) *Tasks {
	return &Tasks{Resource: NewResource[models.Task](deps, "/task", validation.SchemaTask)}
}

// ByType returns the tasks of one kind ("requirement" or "complaint").
func (t *Tasks) ByType(ctx context.Context, taskType string) ([]models.Task, error) {
	all, err := t.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterTaskType(all, taskType), nil
}

// TypeFetcher serves a client-side list of one task kind.
func (t *Tasks) TypeFetcher(taskType string) listing.Fetcher[models.Task] {
	fetch := t.Fetcher()
	return func(ctx context.Context, token string, q listing.Query) (listing.Result[models.Task], error) {
		res, err := fetch(ctx, token, q)
		if err != nil {
			return res, err
		}
		res.Items = filterTaskType(res.Items, taskType)
		res.TotalCount = len(res.Items)
		return res, nil
	}
}

func filterTaskType(all []models.Task, taskType string) []models.Task {
	out := make([]models.Task, 0, len(all))
	for _, task := range all {
		if task.TaskType == taskType {
			out = append(out, task)
		}
	}
	return out
}

// Assign creates task on behalf of the current user and tells the assignee.
// recipient is the assignee's address on the configured channel; empty uses
// the channel default.
func (t *Tasks) Assign(ctx context.Context, task models.Task, recipient string) (*models.Task, error) {
	if task.AssignedByID == 0 && t.deps.Credentials != nil {
		task.AssignedByID = t.deps.Credentials.EmployeeID()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusAssigned
	}

	created, err := t.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	notify.Dispatch(ctx, t.deps.Notifier, t.logger, notify.Event{
		Kind:      notify.EventTaskAssigned,
		Subject:   "New " + task.TaskType + ": " + task.TaskTitle,
		Body:      task.TaskDescription,
		Recipient: recipient,
		Attributes: map[string]string{
			"taskId":   strconv.FormatInt(created.ID, 10),
			"assignee": task.AssignedToName,
			"dueDate":  task.DueDate,
			"store":    task.StoreName,
			"priority": task.Priority,
		},
	})
	return created, nil
}
