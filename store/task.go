package store

import (
	"context"
	"time"

	"flowcrm/models"
)

var taskSortColumns = map[string]bool{
	"created_at": true, "updated_at": true, "title": true, "status": true,
	"priority": true, "due_date": true,
}

// TaskFilter narrows task lists.
type TaskFilter struct {
	Status      string
	Priority    string
	Type        string
	AssignedTo  *uint
	RelatedType string
	RelatedID   *uint
}

func (t *TenantDB) CreateTask(ctx context.Context, task *models.Task) error {
	task.TenantID = t.tenantID
	return translateErr(t.db.WithContext(ctx).Create(task).Error)
}

func (t *TenantDB) FindTaskByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	err := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&task).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &task, nil
}

func (t *TenantDB) FindTasks(ctx context.Context, filter TaskFilter, opts ListOptions) ([]models.Task, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.Task{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.RelatedType != "" && filter.RelatedID != nil {
		query = query.Where("related_type = ? AND related_id = ?", filter.RelatedType, *filter.RelatedID)
	}
	query = searchClause(query, opts.Search, "title", "description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var tasks []models.Task
	err := query.
		Order(orderClause(opts.Sort, taskSortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return tasks, BuildPagination(opts, total), nil
}

func (t *TenantDB) UpdateTask(ctx context.Context, id uint, updates map[string]interface{}) (*models.Task, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Updates(updates)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.FindTaskByID(ctx, id)
}

// CompleteTask marks a pending or in-progress task as completed.
func (t *TenantDB) CompleteTask(ctx context.Context, id, userID uint) (*models.Task, error) {
	return t.UpdateTask(ctx, id, map[string]interface{}{
		"status":       models.TaskStatusCompleted,
		"completed_at": time.Now(),
		"completed_by": userID,
	})
}

func (t *TenantDB) DeleteTask(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPendingTasks counts a user's open tasks.
func (t *TenantDB) CountPendingTasks(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := t.scoped(t.db.WithContext(ctx), &models.Task{}).
		Where("assigned_to = ? AND status = ?", userID, models.TaskStatusPending).
		Count(&total).Error
	return total, err
}

// CountOverdueTasks counts a user's open tasks past their due date.
func (t *TenantDB) CountOverdueTasks(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := t.scoped(t.db.WithContext(ctx), &models.Task{}).
		Where("assigned_to = ? AND status IN ? AND due_date < ?",
			userID,
			[]string{models.TaskStatusPending, models.TaskStatusInProgress},
			time.Now()).
		Count(&total).Error
	return total, err
}

func (t *TenantDB) CountTasks(ctx context.Context) (int64, error) {
	var total int64
	err := t.scoped(t.db.WithContext(ctx), &models.Task{}).Count(&total).Error
	return total, err
}
