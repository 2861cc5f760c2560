package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DevADOBAN/Taskhub/domain"
)

const taskColumns = `id, title, description, priority, status, user_id`

// CreateTask stores a new task owned by ownerID with defaults applied.
func (s *Store) CreateTask(ctx context.Context, ownerID int64, in domain.NewTask) (domain.Task, error) {
	task, err := in.Build(ownerID)
	if err != nil {
		return domain.Task{}, err
	}
	now := toMillis(s.now())
	err = s.withTx(ctx, "create task", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (title, description, priority, status, user_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			task.Title, task.Description, task.Priority, task.Status, task.UserID, now, now,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
			}
			return storageErr("create task: insert", err)
		}
		task.ID, err = res.LastInsertId()
		if err != nil {
			return storageErr("create task: last insert id", err)
		}
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ListTasks returns every task owned by ownerID in creation order.
func (s *Store) ListTasks(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.UserID); err != nil {
			return nil, storageErr("list tasks: scan", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tasks: rows", err)
	}
	return tasks, nil
}

// GetTask returns the task with taskID if ownerID owns it.
func (s *Store) GetTask(ctx context.Context, ownerID, taskID int64) (domain.Task, error) {
	return scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, ownerID))
}

// UpdateTask applies patch to the task with taskID if ownerID owns it.
func (s *Store) UpdateTask(ctx context.Context, ownerID, taskID int64, patch domain.TaskPatch) (domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}
	var task domain.Task
	err := s.withTx(ctx, "update task", func(tx *sql.Tx) error {
		var err error
		task, err = scanTask(tx.QueryRowContext(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, taskID, ownerID))
		if err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}
		patch.Apply(&task)
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?`,
			task.Title, task.Description, task.Priority, task.Status, toMillis(s.now()), taskID, ownerID,
		); err != nil {
			return storageErr("update task", err)
		}
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes the task with taskID if ownerID owns it.
func (s *Store) DeleteTask(ctx context.Context, ownerID, taskID int64) error {
	return s.withTx(ctx, "delete task", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, ownerID)
		if err != nil {
			return storageErr("delete task", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("delete task: rows affected", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: task", domain.ErrNotFound)
		}
		return nil
	})
}

func scanTask(row *sql.Row) (domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, fmt.Errorf("%w: task", domain.ErrNotFound)
		}
		return domain.Task{}, storageErr("load task", err)
	}
	return t, nil
}
