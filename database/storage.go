package database

import "context"

// Storage is the lifecycle surface of the primary database. Repositories take
// the concrete *gorm.DB; everything else only needs to start, stop and probe it.
type Storage interface {
	Init() error
	Close() error
	HealthCheck(ctx context.Context) error
}
