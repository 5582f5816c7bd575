package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCycleRejected_CoversBothCodes(t *testing.T) {
	cycle := NewCycleRejectedError("src", "dst")
	selfLoop := NewCycleRejectedError("src", "src").WithCode(CodeSelfLink)

	assert.True(t, IsCycleRejected(cycle))
	assert.True(t, IsCycleRejected(selfLoop))
	assert.True(t, IsCode(selfLoop, CodeSelfLink))
	assert.False(t, IsCycleRejected(NewNotFoundError("link")))
}

func TestIsCycleRejected_SeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create link: %w",
		NewCycleRejectedError("src", "src").WithCode(CodeSelfLink))

	assert.True(t, IsCycleRejected(err))
}
