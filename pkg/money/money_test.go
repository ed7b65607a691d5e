package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 10.13, Round(10.125))
	assert.Equal(t, 0.3, Round(0.1+0.2))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 15.0, Percent(150, 10))
	assert.Equal(t, 33.33, Percent(100, 33.333))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 0.0, Sum())
}

func TestWithin(t *testing.T) {
	assert.True(t, Within(100, 101, 1))
	assert.True(t, Within(101, 100, 1))
	assert.False(t, Within(100, 101.01, 1))
}
