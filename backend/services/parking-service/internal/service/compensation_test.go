package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCompensationStackRunsInReverse(t *testing.T) {
	stack := newCompensationStack("start", zap.NewNop())
	var order []string

	stack.push("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	stack.push("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	stack.rollback(context.Background())
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestCompensationStackSwallowsUndoErrors(t *testing.T) {
	stack := newCompensationStack("start", zap.NewNop())
	ran := false

	stack.push("first", func(context.Context) error {
		ran = true
		return nil
	})
	stack.push("second", func(context.Context) error {
		return errors.New("undo failed")
	})

	stack.rollback(context.Background())
	assert.True(t, ran, "a failing undo must not stop earlier steps")
}

func TestCompensationStackRollbackIsIdempotent(t *testing.T) {
	stack := newCompensationStack("start", zap.NewNop())
	runs := 0

	stack.push("only", func(context.Context) error {
		runs++
		return nil
	})

	stack.rollback(context.Background())
	stack.rollback(context.Background())
	assert.Equal(t, 1, runs)
}
