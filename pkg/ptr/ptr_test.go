package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPtr(t *testing.T) {
	p := Ptr(5)
	assert.Equal(t, 5, *p)
	*p = 6
	assert.Equal(t, 6, *Ptr(6))
}

func TestDeref(t *testing.T) {
	assert.True(t, Deref(nil, true))
	assert.False(t, Deref(Ptr(false), true))
	assert.Equal(t, "x", Deref(Ptr("x"), ""))
}
