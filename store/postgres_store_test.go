package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPostgresDSNFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_USER", "POSTGRES_PASSWORD"} {
		t.Setenv(key, "")
	}

	assert.Equal(t, "postgres://gembot:@localhost:5432/gembot?sslmode=disable", buildPostgresDSNFromEnv())
}

func TestBuildPostgresDSNFromEnv_EscapesCredentials(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_DB", "bot")
	t.Setenv("POSTGRES_USER", "owner@home")
	t.Setenv("POSTGRES_PASSWORD", "p:ss/w#rd")

	assert.Equal(t, "postgres://owner%40home:p%3Ass%2Fw%23rd@db:6543/bot?sslmode=disable", buildPostgresDSNFromEnv())
}
