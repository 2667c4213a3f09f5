package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/class-fee-api/internal/models"
)

const classColumns = `id, title, class_type, location_or_link, max_students, fee, status, created_at, updated_at`

// ClassRepository reads class offerings.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	var class models.Class
	if err := conn(ctx, r.db).GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListActiveByType returns active classes of the given modality ordered by title.
func (r *ClassRepository) ListActiveByType(ctx context.Context, classType models.ClassType) ([]models.Class, error) {
	const query = `SELECT ` + classColumns + ` FROM classes WHERE class_type = $1 AND status = $2 ORDER BY title ASC, id ASC`
	var classes []models.Class
	if err := conn(ctx, r.db).SelectContext(ctx, &classes, query, classType, models.ClassStatusActive); err != nil {
		return nil, fmt.Errorf("list active classes: %w", err)
	}
	return classes, nil
}
