package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunHealthChecks(t *testing.T) {
	status := RunHealthChecks(context.Background(), []HealthCheck{
		{Name: "mongo", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	})

	assert.True(t, status.Dependencies["mongo"])
	assert.False(t, status.Dependencies["redis"])
	assert.Equal(t, status, GetHealthStatus())
}
