package location

import "context"

// Provider interface defines the methods for location providers
type Provider interface {
	// GetLocation returns one current reading, bounded by ctx.
	GetLocation(ctx context.Context) (Location, error)
	// Close releases any resources held by the provider.
	Close() error
}
