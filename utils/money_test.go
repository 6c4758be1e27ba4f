package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	assert.EqualValues(t, 19999, ToMinorUnits(199.99))
	assert.EqualValues(t, 10000, ToMinorUnits(100))
	// 0.1+0.2 style float drift must not lose a cent.
	assert.EqualValues(t, 30, ToMinorUnits(0.1+0.2))
	assert.EqualValues(t, 0, ToMinorUnits(0))
}
