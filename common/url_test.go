package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithQuery(t *testing.T) {
	assert.Equal(t, "/dashboard?error=Unauthorized+to+access+module.",
		WithQuery("/dashboard", "error", "Unauthorized to access module."))
	assert.Equal(t, "/dashboard?error=x&tab=1", WithQuery("/dashboard?tab=1", "error", "x"))
}
