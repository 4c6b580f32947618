package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/boodo/silvasync/internal/domain/integration"
)

type MockOrderSyncer struct {
	mock.Mock
}

func (m *MockOrderSyncer) SyncUnsynced(ctx context.Context, lookback time.Duration, limit int) (*integration.SyncResult, error) {
	args := m.Called(ctx, lookback, limit)
	result, _ := args.Get(0).(*integration.SyncResult)
	return result, args.Error(1)
}

type MockStockPuller struct {
	mock.Mock
}

func (m *MockStockPuller) Pull(ctx context.Context, importCategories bool) (int, error) {
	args := m.Called(ctx, importCategories)
	return args.Int(0), args.Error(1)
}

func TestOrderUpdateTask_Defaults(t *testing.T) {
	orders := new(MockOrderSyncer)
	orders.On("SyncUnsynced", mock.Anything, DefaultOrderLookback, DefaultOrderBatchSize).
		Return(integration.NewSyncResult(), nil).Once()

	task := NewOrderUpdateTask(orders, 0, 0, nil)

	assert.Equal(t, TaskOrderUpdate, task.Name())
	require.NoError(t, task.Run(context.Background()))
	orders.AssertExpectations(t)
}

func TestOrderUpdateTask_LogsBatch(t *testing.T) {
	result := integration.NewSyncResult()
	result.RecordSuccess()
	result.RecordSuccess()

	orders := new(MockOrderSyncer)
	orders.On("SyncUnsynced", mock.Anything, 48*time.Hour, 5).Return(result, nil).Once()

	core, logs := observer.New(zap.InfoLevel)
	task := NewOrderUpdateTask(orders, 48*time.Hour, 5, zap.New(core))

	require.NoError(t, task.Run(context.Background()))

	entries := logs.FilterMessage("Unsynced orders processed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["success"])
}

func TestOrderUpdateTask_Error(t *testing.T) {
	loadErr := errors.New("connection refused")
	orders := new(MockOrderSyncer)
	orders.On("SyncUnsynced", mock.Anything, mock.Anything, mock.Anything).Return(nil, loadErr).Once()

	task := NewOrderUpdateTask(orders, time.Hour, 10, zap.NewNop())
	assert.ErrorIs(t, task.Run(context.Background()), loadErr)
}

func TestStockUpdateTask_ImportsCategories(t *testing.T) {
	stock := new(MockStockPuller)
	stock.On("Pull", mock.Anything, true).Return(12, nil).Once()

	task := NewStockUpdateTask(stock, zap.NewNop())

	assert.Equal(t, TaskStockUpdate, task.Name())
	require.NoError(t, task.Run(context.Background()))
	stock.AssertExpectations(t)
}

func TestScheduler_RegistersBothTasks(t *testing.T) {
	s := New(zap.NewNop())
	require.NoError(t, s.Register(NewOrderUpdateTask(new(MockOrderSyncer), 0, 0, nil), DefaultInterval))
	require.NoError(t, s.Register(NewStockUpdateTask(new(MockStockPuller), nil), DefaultInterval))

	assert.Equal(t, []string{TaskOrderUpdate, TaskStockUpdate}, s.Tasks())
}
