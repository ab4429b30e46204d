package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validProfile() *Profile {
	return &Profile{
		Mode:                  "dev",
		Driver:                "postgres",
		DSN:                   "postgresql://localhost:5432/mataresit",
		EmbeddingModel:        "gemini-embedding-001",
		EmbeddingDimensions:   1536,
		TokenPricePerThousand: 0.00013,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validProfile().Validate())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	p := validProfile()
	p.Driver = "mysql"
	require.Error(t, p.Validate())
}

func TestValidateRequiresDSN(t *testing.T) {
	p := validProfile()
	p.DSN = ""
	require.Error(t, p.Validate())
}

func TestValidateRequiresPositiveDimensions(t *testing.T) {
	p := validProfile()
	p.EmbeddingDimensions = 0
	require.Error(t, p.Validate())
}

func TestValidateNormalizesUnknownMode(t *testing.T) {
	p := validProfile()
	p.Mode = "staging"
	require.NoError(t, p.Validate())
	require.Equal(t, "demo", p.Mode)
}

func TestIsDev(t *testing.T) {
	require.True(t, validProfile().IsDev())

	p := validProfile()
	p.Mode = "prod"
	require.False(t, p.IsDev())
}
