package school

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "schoolhub/pkg/domain-errors"
	"schoolhub/pkg/platform/sentinel"
)

// Service is the request-parsing glue over the school stores. Record-level
// rules are thin; the interesting policy lives in the identity gate that
// fronts these operations.
type Service struct {
	students StudentStore
	classes  ClassStore
	notices  NoticeStore
	logger   *slog.Logger
}

func NewService(students StudentStore, classes ClassStore, notices NoticeStore, logger *slog.Logger) *Service {
	return &Service{students: students, classes: classes, notices: notices, logger: logger}
}

type StudentInput struct {
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	ClassID    string    `json:"class_id"`
	Guardian   string    `json:"guardian"`
	AdmittedOn time.Time `json:"admitted_on"`
}

func (in *StudentInput) validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "first_name and last_name are required")
	}
	return nil
}

func (s *Service) CreateStudent(ctx context.Context, in StudentInput) (*Student, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.AdmittedOn.IsZero() {
		in.AdmittedOn = time.Now().UTC()
	}
	now := time.Now().UTC()
	student := &Student{
		ID:         uuid.NewString(),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		ClassID:    strings.TrimSpace(in.ClassID),
		Guardian:   strings.TrimSpace(in.Guardian),
		AdmittedOn: in.AdmittedOn,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, translate(err)
	}
	return student, nil
}

func (s *Service) GetStudent(ctx context.Context, id string) (*Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return student, nil
}

func (s *Service) UpdateStudent(ctx context.Context, id string, in StudentInput) (*Student, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	student.FirstName = in.FirstName
	student.LastName = in.LastName
	student.ClassID = strings.TrimSpace(in.ClassID)
	student.Guardian = strings.TrimSpace(in.Guardian)
	if !in.AdmittedOn.IsZero() {
		student.AdmittedOn = in.AdmittedOn
	}
	student.UpdatedAt = time.Now().UTC()
	if err := s.students.Update(ctx, student); err != nil {
		return nil, translate(err)
	}
	return student, nil
}

func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	return translate(s.students.Delete(ctx, id))
}

func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return students, nil
}

type ClassInput struct {
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
	Room      string `json:"room"`
}

func (s *Service) CreateClass(ctx context.Context, in ClassInput) (*Class, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	now := time.Now().UTC()
	class := &Class{
		ID:        uuid.NewString(),
		Name:      in.Name,
		TeacherID: strings.TrimSpace(in.TeacherID),
		Room:      strings.TrimSpace(in.Room),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, translate(err)
	}
	return class, nil
}

func (s *Service) GetClass(ctx context.Context, id string) (*Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return class, nil
}

func (s *Service) UpdateClass(ctx context.Context, id string, in ClassInput) (*Class, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	class.Name = in.Name
	class.TeacherID = strings.TrimSpace(in.TeacherID)
	class.Room = strings.TrimSpace(in.Room)
	class.UpdatedAt = time.Now().UTC()
	if err := s.classes.Update(ctx, class); err != nil {
		return nil, translate(err)
	}
	return class, nil
}

func (s *Service) DeleteClass(ctx context.Context, id string) error {
	return translate(s.classes.Delete(ctx, id))
}

func (s *Service) ListClasses(ctx context.Context) ([]Class, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return classes, nil
}

type NoticeInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Service) CreateNotice(ctx context.Context, in NoticeInput, publishedBy string) (*Notice, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if in.Title == "" || in.Body == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title and body are required")
	}
	notice := &Notice{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Body:        in.Body,
		PublishedBy: publishedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.notices.Create(ctx, notice); err != nil {
		return nil, translate(err)
	}
	return notice, nil
}

func (s *Service) DeleteNotice(ctx context.Context, id string) error {
	return translate(s.notices.Delete(ctx, id))
}

func (s *Service) ListNotices(ctx context.Context) ([]Notice, error) {
	notices, err := s.notices.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return notices, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
}
