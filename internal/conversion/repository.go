package conversion

import (
	"context"
	"errors"
)

// ErrConversionNotFound is returned when a conversion cannot be found by ID.
var ErrConversionNotFound = errors.New("conversion not found")

// Repository defines the interface for conversion persistence.
type Repository interface {
	// Save persists a conversion.
	// If the conversion already exists, it is updated.
	Save(ctx context.Context, c *Conversion) error

	// FindByID retrieves a conversion by its unique identifier.
	// Returns ErrConversionNotFound if the conversion does not exist.
	FindByID(ctx context.Context, id string) (*Conversion, error)

	// List returns all conversions.
	List(ctx context.Context) ([]*Conversion, error)

	// Delete removes a conversion.
	// Returns ErrConversionNotFound if the conversion does not exist.
	Delete(ctx context.Context, id string) error

	// CountActive returns how many conversions are not in a terminal state.
	CountActive(ctx context.Context) (int, error)
}
