package school

import "context"

// StudentStore persists students. FindByID returns sentinel.ErrNotFound for
// absent ids.
type StudentStore interface {
	Create(ctx context.Context, student *Student) error
	FindByID(ctx context.Context, id string) (*Student, error)
	Update(ctx context.Context, student *Student) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Student, error)
}

type ClassStore interface {
	Create(ctx context.Context, class *Class) error
	FindByID(ctx context.Context, id string) (*Class, error)
	Update(ctx context.Context, class *Class) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Class, error)
}

type NoticeStore interface {
	Create(ctx context.Context, notice *Notice) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Notice, error)
}
