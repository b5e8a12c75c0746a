package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TWRT/tasks-api/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

// bulkDeleteChunk keeps IN lists well below the SQLite and PostgreSQL
// bound parameter limits.
const bulkDeleteChunk = 500

// TaskStore is the data access contract for tasks.
type TaskStore interface {
	Create(ctx context.Context, input models.TaskInput) (models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id int64) (models.Task, error)
	Update(ctx context.Context, id int64, input models.TaskInput) error
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, inputs []models.TaskInput) ([]int64, error)
	BulkDelete(ctx context.Context, ids []int64) error
}

// querier is satisfied by both *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type TaskRepository struct {
	db      querier
	dialect dialect
}

var _ TaskStore = (*TaskRepository)(nil)

func NewTaskRepository(db *sql.DB, driver string) (*TaskRepository, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &TaskRepository{db: db, dialect: d}, nil
}

func (r *TaskRepository) Create(ctx context.Context, input models.TaskInput) (models.Task, error) {
	query := r.dialect.rebind(`
		INSERT INTO tasks (title, is_completed)
		VALUES (?, ?)
		RETURNING id
	`)

	var id int64
	if err := r.db.QueryRowContext(ctx, query, input.Title, input.IsCompleted).Scan(&id); err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}

	return models.Task{
		Id:          id,
		Title:       input.Title,
		IsCompleted: input.IsCompleted,
	}, nil
}

func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, is_completed FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.Id, &t.Title, &t.IsCompleted); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (models.Task, error) {
	query := r.dialect.rebind(`SELECT id, title, is_completed FROM tasks WHERE id = ?`)

	var t models.Task
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.Id, &t.Title, &t.IsCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}

	return t, nil
}

// Update replaces both mutable fields. It never inserts.
func (r *TaskRepository) Update(ctx context.Context, id int64, input models.TaskInput) error {
	query := r.dialect.rebind(`UPDATE tasks SET title = ?, is_completed = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, input.Title, input.IsCompleted, id)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %d rows affected: %w", id, err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	query := r.dialect.rebind(`DELETE FROM tasks WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// BulkCreate inserts every input in a single transaction. Either all rows
// are committed or none are. Ids are returned in input order.
func (r *TaskRepository) BulkCreate(ctx context.Context, inputs []models.TaskInput) (ids []int64, err error) {
	if len(inputs) == 0 {
		return []int64{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction for bulk create tasks: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, r.dialect.rebind(`
		INSERT INTO tasks (title, is_completed)
		VALUES (?, ?)
		RETURNING id
	`))
	if err != nil {
		return nil, fmt.Errorf("prepare bulk insert tasks: %w", err)
	}
	defer stmt.Close()

	ids = make([]int64, 0, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		var id int64
		if err = stmt.QueryRowContext(ctx, in.Title, in.IsCompleted).Scan(&id); err != nil {
			err = fmt.Errorf("bulk create task at index %d: %w", i, err)
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk create tasks: %w", err)
	}
	return ids, nil
}

// BulkDelete removes every listed id inside one transaction. Unknown ids
// and duplicates are ignored.
func (r *TaskRepository) BulkDelete(ctx context.Context, ids []int64) (err error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for bulk delete tasks: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for start := 0; start < len(ids); start += bulkDeleteChunk {
		end := min(start+bulkDeleteChunk, len(ids))
		chunk := ids[start:end]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		query := r.dialect.rebind(`DELETE FROM tasks WHERE id IN (` + placeholders(len(chunk)) + `)`)
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			err = fmt.Errorf("bulk delete tasks: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk delete tasks: %w", err)
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
