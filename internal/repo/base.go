package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base holds the GORM connection shared by the store and polygon
// repositories. Domain repositories embed it.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a GORM connection for embedding.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to the request context so cancellation and
// deadlines propagate into queries. A nil context returns the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
