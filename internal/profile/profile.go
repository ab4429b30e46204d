package profile

import (
	"github.com/pkg/errors"
)

// Profile is the runtime configuration for the retrieval core.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// DSN points to where the retrieval core stores its data
	DSN string
	// Version is the current version of the module
	Version string

	// EmbeddingModel is the model identifier recorded on attempts,
	// e.g. "gemini-embedding-001".
	EmbeddingModel string
	// EmbeddingDimensions is the expected dimensionality of stored vectors.
	EmbeddingDimensions int
	// TokenPricePerThousand is the estimated API cost per 1000 tokens,
	// used by the daily aggregation rollup.
	TokenPricePerThousand float64
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}
	if p.DSN == "" {
		return errors.New("DSN is required")
	}
	if p.EmbeddingDimensions <= 0 {
		return errors.Errorf("embedding dimensions must be positive, got %d", p.EmbeddingDimensions)
	}
	if p.TokenPricePerThousand < 0 {
		return errors.New("token price must not be negative")
	}
	return nil
}
