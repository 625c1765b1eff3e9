package repo

import "context"

// WatermarkRepo persists the id of the last fully processed source message
type WatermarkRepo interface {
	// Read returns ok=false when no watermark was ever written
	Read(ctx context.Context) (id int64, ok bool, err error)

	// Write durably stores id before returning
	Write(ctx context.Context, id int64) error

	Close() error
}
