// Package ordered keeps gorm-backed collections densely numbered 1..N
// within a parent row, which is how agenda items and motions are
// positioned inside a meeting.
package ordered

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyCollection = errors.New("collection is empty")
	ErrNoMoreItems     = errors.New("no more items")
	ErrInvalidOrder    = errors.New("order must be a positive integer")
)

const (
	DefaultParentColumn = "meeting_id"
	DefaultOrderColumn  = "item_order"
)

// Positioned is implemented by the pointer type of every model stored in a List.
type Positioned[T any] interface {
	*T
	SetPosition(parentID uint64, order int)
}

// List operates on the table backing T. It holds no state of its own; every
// call receives the *gorm.DB (usually a transaction) to run against.
type List[T any, PT Positioned[T]] struct {
	parentColumn string
	orderColumn  string
}

// New returns a List using the meeting_id / item_order columns.
func New[T any, PT Positioned[T]]() *List[T, PT] {
	return &List[T, PT]{
		parentColumn: DefaultParentColumn,
		orderColumn:  DefaultOrderColumn,
	}
}

func (l *List[T, PT]) model(tx *gorm.DB) *gorm.DB {
	return tx.Model(PT(new(T)))
}

func (l *List[T, PT]) scoped(tx *gorm.DB, parent uint64) *gorm.DB {
	return l.model(tx).Where(l.parentColumn+" = ?", parent)
}

// MaxOrder returns the highest order under parent, or 0 when there are no items.
func (l *List[T, PT]) MaxOrder(tx *gorm.DB, parent uint64) (int, error) {
	var max int64
	err := l.scoped(tx, parent).
		Select("COALESCE(MAX(" + l.orderColumn + "), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("ordered: max order: %w", err)
	}
	return int(max), nil
}

// Append stores item at MaxOrder+1 and returns that order.
func (l *List[T, PT]) Append(tx *gorm.DB, parent uint64, item PT) (int, error) {
	var order int
	err := tx.Transaction(func(tx *gorm.DB) error {
		max, err := l.MaxOrder(tx, parent)
		if err != nil {
			return err
		}
		order = max + 1
		item.SetPosition(parent, order)
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("ordered: append: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return order, nil
}

// Get loads the item at order.
func (l *List[T, PT]) Get(tx *gorm.DB, parent uint64, order int) (PT, error) {
	if order < 1 {
		return nil, ErrInvalidOrder
	}
	item := PT(new(T))
	err := tx.Where(l.parentColumn+" = ? AND "+l.orderColumn+" = ?", parent, order).
		Take(item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ordered: get: %w", err)
	}
	return item, nil
}

// All returns every item under parent in ascending order.
func (l *List[T, PT]) All(tx *gorm.DB, parent uint64) ([]T, error) {
	var items []T
	err := tx.Where(l.parentColumn+" = ?", parent).
		Order(l.orderColumn + " ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("ordered: list: %w", err)
	}
	return items, nil
}

// DeleteAndRenumber removes the item at order and shifts every higher item
// down by one, all in one transaction. It returns the number of items left.
func (l *List[T, PT]) DeleteAndRenumber(tx *gorm.DB, parent uint64, order int) (int, error) {
	if order < 1 {
		return 0, ErrInvalidOrder
	}
	var remaining int
	err := tx.Transaction(func(tx *gorm.DB) error {
		max, err := l.MaxOrder(tx, parent)
		if err != nil {
			return err
		}
		if order > max {
			return ErrNotFound
		}

		res := tx.Where(l.parentColumn+" = ? AND "+l.orderColumn+" = ?", parent, order).
			Delete(PT(new(T)))
		if res.Error != nil {
			return fmt.Errorf("ordered: delete: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		err = l.scoped(tx, parent).
			Where(l.orderColumn+" > ?", order).
			UpdateColumn(l.orderColumn, gorm.Expr(l.orderColumn+" - 1")).Error
		if err != nil {
			return fmt.Errorf("ordered: renumber: %w", err)
		}
		remaining = max - 1
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// Advance moves from current (nil when unset) to the next item.
func (l *List[T, PT]) Advance(tx *gorm.DB, parent uint64, current *int) (int, PT, error) {
	max, err := l.MaxOrder(tx, parent)
	if err != nil {
		return 0, nil, err
	}
	if max == 0 {
		return 0, nil, ErrEmptyCollection
	}

	next := 1
	if current != nil {
		next = *current + 1
	}
	if next > max {
		return 0, nil, ErrNoMoreItems
	}

	item, err := l.Get(tx, parent, next)
	if err != nil {
		return 0, nil, err
	}
	return next, item, nil
}
