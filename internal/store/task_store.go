package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskflow/internal/model"
)

const taskColumns = `id, title, description, status, due_date, due_time, user_id, created_at, updated_at`

// UpsertTasks inserts or replaces a batch of tasks.
func (s *SQLiteStore) UpsertTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertTasksTx(ctx, tx, tasks); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceTasks swaps the cached task list for tasks in one transaction.
func (s *SQLiteStore) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}
	if len(tasks) > 0 {
		if err := upsertTasksTx(ctx, tx, tasks); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func upsertTasksTx(
	ctx context.Context,
	tx *sqlx.Tx,
	tasks []model.Task,
) error {
	const query = `
		INSERT OR REPLACE INTO tasks (
			id, title, description, status,
			due_date, due_time, user_id,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		if t.Status == "" {
			t.Status = model.StatusPending
		}
		_, err := stmt.ExecContext(ctx,
			t.ID, t.Title, t.Description, t.Status,
			t.DueDate, t.DueTime, t.UserID,
			t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting task %s: %w", t.ID, err)
		}
	}
	return nil
}

// GetTasks retrieves tasks matching filters.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	filters model.TaskFilters,
) ([]model.Task, error) {
	query, args := buildTaskQuery(filters)

	var tasks []model.Task
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return tasks, nil
}

func buildTaskQuery(filters model.TaskFilters) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filters.Status != "" && filters.Status != "all" {
		conditions = append(conditions, "status = ?")
		args = append(args, filters.Status)
	}
	if q := strings.TrimSpace(filters.Search); q != "" {
		conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		like := "%" + strings.ToLower(q) + "%"
		args = append(args, like, like)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "due_date"
	allowedSorts := map[string]bool{
		"due_date":   true,
		"created_at": true,
		"title":      true,
	}
	if allowedSorts[filters.SortBy] {
		sortBy = filters.SortBy
	}

	direction := "ASC"
	if strings.EqualFold(filters.SortOrder, "desc") {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id ASC", sortBy, direction)

	return query, args
}

// GetTaskByID retrieves a single task by its ID.
func (s *SQLiteStore) GetTaskByID(
	ctx context.Context,
	id string,
) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &task, nil
}

// CreateTask inserts a new task. Generates a UUID if ID is empty and
// defaults the status to pending.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}
	if strings.TrimSpace(task.DueDate) == "" {
		return nil, fmt.Errorf("task due date must not be empty")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if !task.Status.IsValid() {
		return nil, fmt.Errorf("invalid task status %q", task.Status)
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Status,
		task.DueDate, task.DueTime, task.UserID,
		task.CreatedAt.UTC(), task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &task, nil
}

// UpdateTask updates an existing task by ID and bumps updated_at.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if !task.Status.IsValid() {
		return fmt.Errorf("invalid task status %q", task.Status)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, status = ?,
			due_date = ?, due_time = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, task.Status,
		task.DueDate, task.DueTime, time.Now().UTC(),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating task %s: %w", task.ID, ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("deleting task %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountByStatus returns the number of cached tasks per status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.TaskStatus]int, error) {
	var rows []struct {
		Status model.TaskStatus `db:"status"`
		Count  int              `db:"n"`
	}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS n FROM tasks GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	counts := make(map[model.TaskStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
