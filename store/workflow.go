package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"flowcrm/models"

	"gorm.io/gorm"
)

var workflowSortColumns = map[string]bool{
	"created_at": true, "updated_at": true, "name": true, "is_active": true, "run_count": true,
}

func (t *TenantDB) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	workflow.TenantID = t.tenantID
	return translateErr(t.db.WithContext(ctx).Create(workflow).Error)
}

func (t *TenantDB) FindWorkflowByID(ctx context.Context, id uint) (*models.Workflow, error) {
	var workflow models.Workflow
	err := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&workflow).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &workflow, nil
}

func (t *TenantDB) FindWorkflows(ctx context.Context, opts ListOptions) ([]models.Workflow, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.Workflow{})
	query = searchClause(query, opts.Search, "name", "description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var workflows []models.Workflow
	err := query.
		Order(orderClause(opts.Sort, workflowSortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&workflows).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return workflows, BuildPagination(opts, total), nil
}

func (t *TenantDB) UpdateWorkflow(ctx context.Context, id uint, updates map[string]interface{}) (*models.Workflow, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Workflow{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Updates(updates)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.FindWorkflowByID(ctx, id)
}

func (t *TenantDB) DeleteWorkflow(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&models.Workflow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleWorkflow sets the active flag.
func (t *TenantDB) ToggleWorkflow(ctx context.Context, id uint, active bool) (*models.Workflow, error) {
	return t.UpdateWorkflow(ctx, id, map[string]interface{}{"is_active": active})
}

// EvaluateConditions reports whether every condition holds against the
// trigger payload. An empty condition list always matches.
func EvaluateConditions(conditions []models.WorkflowCondition, payload map[string]string) bool {
	for _, cond := range conditions {
		value, present := payload[cond.Field]
		want := fmt.Sprintf("%v", cond.Value)

		switch cond.Operator {
		case models.OpEquals:
			if value != want {
				return false
			}
		case models.OpNotEquals:
			if value == want {
				return false
			}
		case models.OpContains:
			if !strings.Contains(strings.ToLower(value), strings.ToLower(want)) {
				return false
			}
		case models.OpGreaterThan:
			got, err1 := strconv.ParseFloat(value, 64)
			threshold, err2 := strconv.ParseFloat(want, 64)
			if err1 != nil || err2 != nil || got <= threshold {
				return false
			}
		case models.OpLessThan:
			got, err1 := strconv.ParseFloat(value, 64)
			threshold, err2 := strconv.ParseFloat(want, 64)
			if err1 != nil || err2 != nil || got >= threshold {
				return false
			}
		case models.OpIsEmpty:
			if present && value != "" {
				return false
			}
		case models.OpIsNotEmpty:
			if !present || value == "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// TriggerWorkflows finds active workflows listening on the trigger type,
// evaluates their conditions against the payload, and enqueues one job per
// action. Delays translate to a future RunAt; the request never sleeps.
func (t *TenantDB) TriggerWorkflows(ctx context.Context, triggerType string, payload map[string]string) error {
	var workflows []models.Workflow
	err := t.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", t.tenantID, true).
		Find(&workflows).Error
	if err != nil {
		return err
	}

	now := time.Now()
	for i := range workflows {
		wf := &workflows[i]
		if wf.Trigger.Type != triggerType {
			continue
		}
		if !EvaluateConditions(wf.Trigger.Conditions, payload) {
			continue
		}

		for _, action := range wf.Actions {
			job := models.WorkflowJob{
				TenantID:   t.tenantID,
				WorkflowID: wf.ID,
				Action:     action,
				Payload:    payload,
				RunAt:      now.Add(time.Duration(action.Delay) * time.Minute),
				Status:     models.JobPending,
			}
			if err := t.db.WithContext(ctx).Create(&job).Error; err != nil {
				return err
			}
		}

		err := t.db.WithContext(ctx).Model(wf).Updates(map[string]interface{}{
			"run_count":   gorm.Expr("run_count + 1"),
			"last_run_at": now,
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// --- Job queue, used by the background worker across tenants ---

// ClaimDueJobs atomically flips up to limit due pending jobs to running and
// returns them. SKIP LOCKED keeps multiple workers from claiming the same job.
func (s *Store) ClaimDueJobs(ctx context.Context, limit int) ([]models.WorkflowJob, error) {
	var jobs []models.WorkflowJob
	err := s.db.WithContext(ctx).Raw(
		`UPDATE workflow_jobs SET status = ?, attempts = attempts + 1, updated_at = NOW()
		 WHERE id IN (
		   SELECT id FROM workflow_jobs
		   WHERE status = ? AND run_at <= NOW() AND deleted_at IS NULL
		   ORDER BY run_at
		   LIMIT ?
		   FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		models.JobRunning, models.JobPending, limit,
	).Scan(&jobs).Error
	return jobs, err
}

// FinishJob records the outcome of an executed job.
func (s *Store) FinishJob(ctx context.Context, jobID uint, execErr error) error {
	updates := map[string]interface{}{"status": models.JobCompleted}
	if execErr != nil {
		updates["status"] = models.JobFailed
		updates["last_error"] = execErr.Error()
	}
	return s.db.WithContext(ctx).
		Model(&models.WorkflowJob{}).
		Where("id = ?", jobID).
		Updates(updates).Error
}
