package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "0.3.1"

	assert.Equal(t, "ltr11 0.3.1 (commit unknown, built unknown)", String())
}
