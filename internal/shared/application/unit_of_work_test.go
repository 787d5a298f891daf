package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type txMarker struct{}

func TestWithUnitOfWork_CommitsOnSuccess(t *testing.T) {
	uow := new(mockUnitOfWork)
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txMarker{}, "tx")

	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Commit", txCtx).Return(nil)

	executed := false
	err := WithUnitOfWork(ctx, uow, func(innerCtx context.Context) error {
		executed = true
		assert.Equal(t, "tx", innerCtx.Value(txMarker{}))
		return nil
	})

	require.NoError(t, err)
	assert.True(t, executed)
	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "Rollback", mock.Anything)
}

func TestWithUnitOfWork_RollsBackOnError(t *testing.T) {
	uow := new(mockUnitOfWork)
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txMarker{}, "tx")
	boom := errors.New("boom")

	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Rollback", txCtx).Return(nil)

	err := WithUnitOfWork(ctx, uow, func(context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestWithUnitOfWork_BeginFailure(t *testing.T) {
	uow := new(mockUnitOfWork)
	ctx := context.Background()
	beginErr := errors.New("no connection")

	uow.On("Begin", ctx).Return(ctx, beginErr)

	err := WithUnitOfWork(ctx, uow, func(context.Context) error {
		t.Fatal("function must not run when Begin fails")
		return nil
	})

	require.ErrorIs(t, err, beginErr)
}
