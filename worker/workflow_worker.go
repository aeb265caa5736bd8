package worker

import (
	"context"
	"fmt"
	"time"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/sirupsen/logrus"
)

// WorkflowWorker polls the job queue and executes due workflow actions.
// Delayed actions sit in the queue until their RunAt passes; nothing in the
// request path ever sleeps.
type WorkflowWorker struct {
	store    *store.Store
	logger   *logrus.Logger
	interval time.Duration
	batch    int
}

func NewWorkflowWorker(s *store.Store, logger *logrus.Logger) *WorkflowWorker {
	return &WorkflowWorker{
		store:    s,
		logger:   logger,
		interval: 15 * time.Second,
		batch:    50,
	}
}

// Start runs the polling loop until the context is cancelled.
func (w *WorkflowWorker) Start(ctx context.Context) {
	w.logger.WithField("interval", w.interval.String()).Info("Workflow worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Workflow worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *WorkflowWorker) tick(ctx context.Context) {
	jobs, err := w.store.ClaimDueJobs(ctx, w.batch)
	if err != nil {
		w.logger.WithError(err).Error("Failed to claim workflow jobs")
		return
	}
	if len(jobs) == 0 {
		return
	}

	w.logger.WithField("count", len(jobs)).Debug("Claimed workflow jobs")

	for i := range jobs {
		job := &jobs[i]
		execErr := w.execute(ctx, job)
		if execErr != nil {
			w.logger.WithError(execErr).WithFields(logrus.Fields{
				"job_id":      job.ID,
				"workflow_id": job.WorkflowID,
				"action":      job.Action.Type,
			}).Warn("Workflow job failed")
		}
		if err := w.store.FinishJob(ctx, job.ID, execErr); err != nil {
			w.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to record job outcome")
		}
	}
}

// execute dispatches one claimed job. Each action runs against the tenant
// that enqueued it.
func (w *WorkflowWorker) execute(ctx context.Context, job *models.WorkflowJob) error {
	t := w.store.Tenant(job.TenantID)

	switch job.Action.Type {
	case models.ActionCreateTask:
		return w.createTask(ctx, t, job)
	case models.ActionAssignUser:
		return w.assignUser(ctx, t, job)
	case models.ActionUpdateField:
		return w.updateField(ctx, t, job)
	case models.ActionSendEmail:
		return w.sendEmail(job)
	case models.ActionSendNotification:
		return w.sendNotification(ctx, t, job)
	default:
		return fmt.Errorf("unknown action type %q", job.Action.Type)
	}
}

func (w *WorkflowWorker) createTask(ctx context.Context, t *store.TenantDB, job *models.WorkflowJob) error {
	title := job.Action.Config["title"]
	if title == "" {
		return fmt.Errorf("create_task action requires a title")
	}

	assignedTo := utils.ParseUint(job.Action.Config["assigned_to"])
	if assignedTo == 0 {
		assignedTo = utils.ParseUint(job.Payload["assigned_to"])
	}
	if assignedTo == 0 {
		return fmt.Errorf("create_task action has no assignee")
	}

	priority := job.Action.Config["priority"]
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	var dueDate *time.Time
	if days := utils.ParseUint(job.Action.Config["due_in_days"]); days > 0 {
		d := time.Now().AddDate(0, 0, int(days))
		dueDate = &d
	}

	relatedType, relatedID := relatedEntity(job.Payload)

	task := models.Task{
		Title:       title,
		Description: job.Action.Config["description"],
		Type:        models.TaskTypeFollowUp,
		Priority:    priority,
		DueDate:     dueDate,
		AssignedTo:  assignedTo,
		RelatedType: relatedType,
		RelatedID:   relatedID,
		CreatedBy:   assignedTo,
	}
	return t.CreateTask(ctx, &task)
}

func (w *WorkflowWorker) assignUser(ctx context.Context, t *store.TenantDB, job *models.WorkflowJob) error {
	userID := utils.ParseUint(job.Action.Config["user_id"])
	if userID == 0 {
		return fmt.Errorf("assign_user action requires a user_id")
	}
	if _, err := t.FindUserByID(ctx, userID); err != nil {
		return fmt.Errorf("assign_user: %w", err)
	}

	updates := map[string]interface{}{"assigned_to": userID}
	if leadID := utils.ParseUint(job.Payload["lead_id"]); leadID != 0 {
		_, err := t.UpdateLead(ctx, leadID, updates)
		return err
	}
	if dealID := utils.ParseUint(job.Payload["deal_id"]); dealID != 0 {
		_, err := t.UpdateDeal(ctx, dealID, updates)
		return err
	}
	if contactID := utils.ParseUint(job.Payload["contact_id"]); contactID != 0 {
		_, err := t.UpdateContact(ctx, contactID, updates)
		return err
	}
	return fmt.Errorf("assign_user: payload names no assignable entity")
}

// updateField writes a single whitelisted column on the triggering entity.
var updatableFields = map[string]bool{
	"status": true, "stage": true, "source": true, "priority": true,
}

func (w *WorkflowWorker) updateField(ctx context.Context, t *store.TenantDB, job *models.WorkflowJob) error {
	field := job.Action.Config["field"]
	value := job.Action.Config["value"]
	if !updatableFields[field] {
		return fmt.Errorf("update_field: field %q is not updatable", field)
	}

	updates := map[string]interface{}{field: value}
	if leadID := utils.ParseUint(job.Payload["lead_id"]); leadID != 0 {
		_, err := t.UpdateLead(ctx, leadID, updates)
		return err
	}
	if dealID := utils.ParseUint(job.Payload["deal_id"]); dealID != 0 {
		_, err := t.UpdateDeal(ctx, dealID, updates)
		return err
	}
	if taskID := utils.ParseUint(job.Payload["task_id"]); taskID != 0 {
		_, err := t.UpdateTask(ctx, taskID, updates)
		return err
	}
	return fmt.Errorf("update_field: payload names no updatable entity")
}

func (w *WorkflowWorker) sendEmail(job *models.WorkflowJob) error {
	to := job.Action.Config["to"]
	if to == "" {
		to = job.Payload["email"]
	}
	if to == "" {
		return fmt.Errorf("send_email: no recipient")
	}
	subject := job.Action.Config["subject"]
	if subject == "" {
		subject = "Notification from your CRM"
	}
	return utils.SendWorkflowEmail(to, subject, job.Action.Config["body"])
}

// sendNotification records an activity as the in-app notification feed entry.
func (w *WorkflowWorker) sendNotification(ctx context.Context, t *store.TenantDB, job *models.WorkflowJob) error {
	subject := job.Action.Config["message"]
	if subject == "" {
		subject = "Workflow notification"
	}
	userID := utils.ParseUint(job.Action.Config["user_id"])
	if userID == 0 {
		userID = utils.ParseUint(job.Payload["assigned_to"])
	}
	if userID == 0 {
		return fmt.Errorf("send_notification: no target user")
	}

	relatedType, relatedID := relatedEntity(job.Payload)
	activity := models.Activity{
		Type:        models.ActivityOther,
		Subject:     subject,
		Description: job.Action.Config["body"],
		RelatedType: relatedType,
		RelatedID:   relatedID,
		CreatedBy:   userID,
	}
	return t.CreateActivity(ctx, &activity)
}

// relatedEntity maps the trigger payload back to the entity that fired it.
func relatedEntity(payload map[string]string) (string, *uint) {
	if id := utils.ParseUint(payload["lead_id"]); id != 0 {
		return models.EntityLead, &id
	}
	if id := utils.ParseUint(payload["deal_id"]); id != 0 {
		return models.EntityDeal, &id
	}
	if id := utils.ParseUint(payload["contact_id"]); id != 0 {
		return models.EntityContact, &id
	}
	if id := utils.ParseUint(payload["task_id"]); id != 0 {
		return models.EntityTask, &id
	}
	return "", nil
}
