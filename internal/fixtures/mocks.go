// Package fixtures holds testify mocks of the store contracts shared by
// service and web tests.
package fixtures

import (
	"context"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/notification"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	reponotification "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/notification"
	reporecord "github.com/nNEWBE/expense-tracker-sub000/pkg/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockLocalStore struct {
	mock.Mock
}

func (m *MockLocalStore) InsertAndReturnID(ctx context.Context, r record.Record) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLocalStore) Update(ctx context.Context, r record.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockLocalStore) SetRemoteID(ctx context.Context, localID int64, remoteID string) error {
	args := m.Called(ctx, localID, remoteID)
	return args.Error(0)
}

func (m *MockLocalStore) Delete(ctx context.Context, r record.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockLocalStore) QueryAll(ctx context.Context) (*stream.Subscription[[]record.Record], error) {
	args := m.Called(ctx)
	sub, _ := args.Get(0).(*stream.Subscription[[]record.Record])
	return sub, args.Error(1)
}

func (m *MockLocalStore) SumByKind(ctx context.Context, kind record.Kind) (*stream.Subscription[decimal.Decimal], error) {
	args := m.Called(ctx, kind)
	sub, _ := args.Get(0).(*stream.Subscription[decimal.Decimal])
	return sub, args.Error(1)
}

func (m *MockLocalStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ reporecord.LocalStore = (*MockLocalStore)(nil)

type MockRemoteStore struct {
	mock.Mock
}

func (m *MockRemoteStore) Add(ctx context.Context, userID string, r record.Record) (string, error) {
	args := m.Called(ctx, userID, r)
	return args.String(0), args.Error(1)
}

func (m *MockRemoteStore) Update(ctx context.Context, userID, remoteID string, r record.Record) error {
	args := m.Called(ctx, userID, remoteID, r)
	return args.Error(0)
}

func (m *MockRemoteStore) Delete(ctx context.Context, userID, remoteID string) error {
	args := m.Called(ctx, userID, remoteID)
	return args.Error(0)
}

func (m *MockRemoteStore) Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]record.Record], error) {
	args := m.Called(ctx, userID)
	sub, _ := args.Get(0).(*stream.Subscription[[]record.Record])
	return sub, args.Error(1)
}

var _ reporecord.RemoteStore = (*MockRemoteStore)(nil)

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Append(ctx context.Context, userID string, e *notification.Event) error {
	args := m.Called(ctx, userID, e)
	return args.Error(0)
}

func (m *MockNotificationStore) ListAll(ctx context.Context, userID string) ([]notification.Event, error) {
	args := m.Called(ctx, userID)
	events, _ := args.Get(0).([]notification.Event)
	return events, args.Error(1)
}

func (m *MockNotificationStore) Subscribe(ctx context.Context, userID string) (*stream.Subscription[[]notification.Event], error) {
	args := m.Called(ctx, userID)
	sub, _ := args.Get(0).(*stream.Subscription[[]notification.Event])
	return sub, args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationStore) DeleteOne(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockNotificationStore) DeleteAll(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

var _ reponotification.Store = (*MockNotificationStore)(nil)

// StaticSession is an auth.Provider with a fixed answer.
type StaticSession struct {
	UserID string
}

func (s StaticSession) CurrentUserID(context.Context) (string, bool) {
	return s.UserID, s.UserID != ""
}
