package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyOf(t *testing.T) {
	original := []byte{0x40, 0x06}
	copied := CopyOf(original)
	assert.Equal(t, original, copied)

	original[0] = 0xff
	assert.Equal(t, byte(0x40), copied[0])

	assert.Nil(t, CopyOf([]byte(nil)))
}

func TestIfElse(t *testing.T) {
	assert.Equal(t, 256, IfElse(true, 256, 257))
	assert.Equal(t, 257, IfElse(false, 256, 257))
	assert.Equal(t, "PASS", IfElse(true, "PASS", "FAIL"))
	assert.Equal(t, "FAIL", IfElse(false, "PASS", "FAIL"))
}

func TestSorted(t *testing.T) {
	original := []string{"LABEL", "CASE_ID", "VALUE"}
	assert.Equal(t, []string{"CASE_ID", "LABEL", "VALUE"}, Sorted(original))
	assert.Equal(t, []string{"LABEL", "CASE_ID", "VALUE"}, original)
}
