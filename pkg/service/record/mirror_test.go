package record_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/infra/remote"
	"github.com/nNEWBE/expense-tracker-sub000/internal/fixtures"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	recordsvc "github.com/nNEWBE/expense-tracker-sub000/pkg/service/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// slowRemote delays every Add so background mirrors are still running when
// the caller moves on.
type slowRemote struct {
	*remote.MemoryRecordStore
	delay time.Duration
}

func (s slowRemote) Add(ctx context.Context, userID string, r record.Record) (string, error) {
	time.Sleep(s.delay)
	return s.MemoryRecordStore.Add(ctx, userID, r)
}

func TestMirrorAll_WaitsForPendingInsertMirror(t *testing.T) {
	ctx := context.Background()
	store := remote.NewMemoryRecordStore()
	local := newLocalStore(t)
	svc := recordsvc.New(local, slowRemote{store, 50 * time.Millisecond},
		fixtures.StaticSession{UserID: userID}, nil, slog.Default())
	t.Cleanup(svc.Wait)

	id, err := svc.Insert(ctx, expense(25, "Food"))
	require.NoError(t, err)

	report, err := svc.MirrorAll(ctx)
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, recordsvc.MirrorReport{Mirrored: 0, Skipped: 1, Failed: 0}, report)

	sub, err := store.Subscribe(ctx, userID)
	require.NoError(t, err)
	docs, err := stream.Snapshot(ctx, sub)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	got, err := svc.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, docs[0].RemoteID, got.RemoteID)
}

func TestInsert_DuplicateRemoteDocumentIsRemoved(t *testing.T) {
	local := &fixtures.MockLocalStore{}
	remoteStore := &fixtures.MockRemoteStore{}
	svc := recordsvc.New(local, remoteStore, fixtures.StaticSession{UserID: userID}, nil, slog.Default())

	local.On("InsertAndReturnID", mock.Anything, mock.Anything).Return(int64(7), nil)
	remoteStore.On("Add", mock.Anything, userID, mock.Anything).Return("remote-late", nil)
	local.On("SetRemoteID", mock.Anything, int64(7), "remote-late").Return(domain.ErrAlreadyExists)
	remoteStore.On("Delete", mock.Anything, userID, "remote-late").Return(nil)

	_, err := svc.Insert(context.Background(), expense(10, "Food"))
	require.NoError(t, err)
	svc.Wait()

	local.AssertExpectations(t)
	remoteStore.AssertExpectations(t)
}

func TestInsert_AttachFailureKeepsRemoteDocument(t *testing.T) {
	local := &fixtures.MockLocalStore{}
	remoteStore := &fixtures.MockRemoteStore{}
	svc := recordsvc.New(local, remoteStore, fixtures.StaticSession{UserID: userID}, nil, slog.Default())

	local.On("InsertAndReturnID", mock.Anything, mock.Anything).Return(int64(8), nil)
	remoteStore.On("Add", mock.Anything, userID, mock.Anything).Return("remote-8", nil)
	local.On("SetRemoteID", mock.Anything, int64(8), "remote-8").Return(domain.ErrClosed)

	_, err := svc.Insert(context.Background(), expense(10, "Food"))
	require.NoError(t, err)
	svc.Wait()

	remoteStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}
