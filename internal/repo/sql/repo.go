package sql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/opendeploy/versioning/internal/errs"
	"github.com/opendeploy/versioning/internal/log"
	"github.com/opendeploy/versioning/internal/repo"
	"github.com/opendeploy/versioning/internal/repo/violations"
)

var ErrUnsupportedOrderDirective = errors.New("unsupported order directive")

// ResourceRepository represents the repository for managing Resource data.
type ResourceRepository struct {
	db *gorm.DB
}

// NewRepository creates and returns a new instance of ResourceRepository.
func NewRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{
		db: db,
	}
}

// Create stores a Resource.
func (r *ResourceRepository) Create(ctx context.Context, resource repo.Resource) error {
	err := r.db.WithContext(ctx).Create(resource).Error
	if err != nil {
		log.Error(ctx, "error creating resource", err)

		if errors.Is(err, gorm.ErrDuplicatedKey) || violations.IsUniqueConstraint(err) {
			return errs.Wrap(repo.ErrUniqueConstraint, err)
		}

		return errs.Wrap(repo.ErrCreateResource, err)
	}

	return nil
}

// List retrieves records based on the provided query parameters and model.
// Result is an address.
func (r *ResourceRepository) List(
	ctx context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	var count int64

	db := r.db.WithContext(ctx).Model(resource)
	db = applyQuery(db, query)

	res := db.Count(&count)
	if res.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	for _, order := range query.OrderFields {
		switch order.Direction {
		case repo.Desc:
			db = db.Order(string(order.Field) + " desc")
		case repo.Asc:
			db = db.Order(string(order.Field) + " asc")
		default:
			return 0, ErrUnsupportedOrderDirective
		}
	}

	res = applyPagination(db, query).Find(result)
	if res.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return int(count), nil
}

// First fills the given Resource with data, if found. A primary key already
// set on the resource participates in the lookup.
func (r *ResourceRepository) First(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := applyQuery(r.db.WithContext(ctx), query)

	res := db.First(resource)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(repo.ErrNotFound, res.Error)
		}

		log.Error(ctx, "error finding the resource", res.Error)

		return false, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Patch updates the resource, restricted to the query's update fields, with
// the resource primary key plus the query conditions as the guard. It
// returns true if a row was written; false means no row matched the guard
// (for the supersession engine, a lost race).
func (r *ResourceRepository) Patch(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := r.db.WithContext(ctx).Model(resource)
	db = applyQuery(db, query)
	db = applyUpdateQuery(db, query)

	res := db.Updates(resource)
	if res.Error != nil {
		log.Error(ctx, "error updating resource", res.Error)

		if errors.Is(res.Error, gorm.ErrDuplicatedKey) || violations.IsUniqueConstraint(res.Error) {
			return false, errs.Wrap(repo.ErrUniqueConstraint, res.Error)
		}

		return false, errs.Wrap(repo.ErrUpdateResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Delete removes matching rows. It returns true if a record was deleted,
// false if there was nothing to delete.
func (r *ResourceRepository) Delete(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db := applyQuery(r.db.WithContext(ctx), query)

	res := db.Delete(resource)
	if res.Error != nil {
		log.Error(ctx, "error deleting resource", res.Error)
		return false, errs.Wrap(repo.ErrDeleteResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Transaction wraps a function inside a database transaction. If txFunc
// returns no error the transaction is committed, otherwise it is rolled
// back and nothing of the unit of work is visible.
func (r *ResourceRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	var inner error

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner = txFunc(ctx, NewRepository(tx))
		return inner
	})
	if err != nil {
		if inner != nil {
			return inner
		}

		return errs.Wrap(repo.ErrTransaction, err)
	}

	return nil
}

// applyQuery applies composite keys and preloads to the statement.
func applyQuery(db *gorm.DB, query repo.Query) *gorm.DB {
	for i, ck := range query.CompositeKeys {
		tx := db.Session(&gorm.Session{NewDB: true})
		for _, cond := range ck.Conds {
			tx = tx.Where(string(cond.Field)+" = ?", cond.Value)
		}

		if i == 0 {
			db = db.Where(tx)
		} else {
			db = db.Or(tx)
		}
	}

	for _, pr := range query.PreloadModel {
		db = db.Preload(pr)
	}

	return db
}

func applyUpdateQuery(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.UpdateFields.All {
		return db.Select("*")
	}

	if len(query.UpdateFields.Fields) > 0 {
		fields := make([]string, 0, len(query.UpdateFields.Fields))
		for _, f := range query.UpdateFields.Fields {
			fields = append(fields, string(f))
		}

		// The columns must go in as a slice; a single joined string names no
		// column and the update writes nothing.
		db = db.Select(fields)
	}

	return db
}

func applyPagination(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.Limit <= 0 {
		query.Limit = repo.DefaultLimit
	}

	return db.Offset(query.Offset).Limit(query.Limit)
}
