package db

import (
	"time"
)

type Product struct {
	ID        int64
	Name      string
	Price     float64
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
