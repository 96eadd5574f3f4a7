package school

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"schoolhub/pkg/platform/sentinel"
)

type PostgresStudentStore struct {
	db *sql.DB
}

func NewPostgresStudentStore(db *sql.DB) *PostgresStudentStore {
	return &PostgresStudentStore{db: db}
}

const studentColumns = `id, first_name, last_name, class_id, guardian, admitted_on, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*Student, error) {
	var (
		st      Student
		classID sql.NullString
	)
	err := row.Scan(&st.ID, &st.FirstName, &st.LastName, &classID,
		&st.Guardian, &st.AdmittedOn, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.ClassID = classID.String
	return &st, nil
}

func (s *PostgresStudentStore) Create(ctx context.Context, st *Student) error {
	const q = `
		INSERT INTO students (id, first_name, last_name, class_id, guardian, admitted_on, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`
	if _, err := s.db.ExecContext(ctx, q,
		st.ID, st.FirstName, st.LastName, st.ClassID, st.Guardian,
		st.AdmittedOn, st.CreatedAt, st.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (s *PostgresStudentStore) FindByID(ctx context.Context, id string) (*Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	st, err := scanStudent(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select student: %w", err)
	}
	return st, nil
}

func (s *PostgresStudentStore) Update(ctx context.Context, st *Student) error {
	const q = `
		UPDATE students
		SET first_name = $2, last_name = $3, class_id = NULLIF($4, ''), guardian = $5,
			admitted_on = $6, updated_at = $7
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q,
		st.ID, st.FirstName, st.LastName, st.ClassID, st.Guardian, st.AdmittedOn, st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStudentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStudentStore) List(ctx context.Context) ([]Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students ORDER BY last_name, first_name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *st)
	}
	return students, rows.Err()
}

type PostgresClassStore struct {
	db *sql.DB
}

func NewPostgresClassStore(db *sql.DB) *PostgresClassStore {
	return &PostgresClassStore{db: db}
}

func scanClass(row interface{ Scan(...any) error }) (*Class, error) {
	var (
		c         Class
		teacherID sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &teacherID, &c.Room, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.TeacherID = teacherID.String
	return &c, nil
}

func (s *PostgresClassStore) Create(ctx context.Context, c *Class) error {
	const q = `
		INSERT INTO classes (id, name, teacher_id, room, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, q,
		c.ID, c.Name, c.TeacherID, c.Room, c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

func (s *PostgresClassStore) FindByID(ctx context.Context, id string) (*Class, error) {
	const q = `SELECT id, name, teacher_id, room, created_at, updated_at FROM classes WHERE id = $1`
	c, err := scanClass(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select class: %w", err)
	}
	return c, nil
}

func (s *PostgresClassStore) Update(ctx context.Context, c *Class) error {
	const q = `
		UPDATE classes
		SET name = $2, teacher_id = NULLIF($3, ''), room = $4, updated_at = $5
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q, c.ID, c.Name, c.TeacherID, c.Room, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresClassStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresClassStore) List(ctx context.Context) ([]Class, error) {
	const q = `SELECT id, name, teacher_id, room, created_at, updated_at FROM classes ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

type PostgresNoticeStore struct {
	db *sql.DB
}

func NewPostgresNoticeStore(db *sql.DB) *PostgresNoticeStore {
	return &PostgresNoticeStore{db: db}
}

func (s *PostgresNoticeStore) Create(ctx context.Context, n *Notice) error {
	const q = `
		INSERT INTO notices (id, title, body, published_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, q,
		n.ID, n.Title, n.Body, n.PublishedBy, n.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert notice: %w", err)
	}
	return nil
}

func (s *PostgresNoticeStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresNoticeStore) List(ctx context.Context) ([]Notice, error) {
	const q = `SELECT id, title, body, published_by, created_at FROM notices ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	defer rows.Close()

	var notices []Notice
	for rows.Next() {
		var n Notice
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.PublishedBy, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notice: %w", err)
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

var (
	_ StudentStore = (*PostgresStudentStore)(nil)
	_ ClassStore   = (*PostgresClassStore)(nil)
	_ NoticeStore  = (*PostgresNoticeStore)(nil)
)
