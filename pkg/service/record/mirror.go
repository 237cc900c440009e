package record

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/stream"
	"golang.org/x/sync/errgroup"
)

const mirrorConcurrency = 4

// MirrorReport summarises a MirrorAll run.
type MirrorReport struct {
	Mirrored int `json:"mirrored"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// MirrorAll copies every local-only record to the remote store. It is the
// explicit bulk sync; signing in never triggers it. Records that already
// have a remote id are skipped, per-record failures are counted and leave
// the record local-only. Concurrent calls for one user share a single run.
func (s *Service) MirrorAll(ctx context.Context) (MirrorReport, error) {
	userID, ok := s.session.CurrentUserID(ctx)
	if !ok {
		return MirrorReport{}, domain.ErrNoSession
	}
	v, err, shared := s.syncs.Do(userID, func() (any, error) {
		return s.mirrorAll(ctx, userID)
	})
	if shared {
		s.logger.Debug("MirrorAll joined a running sync", "userID", userID)
	}
	return v.(MirrorReport), err
}

func (s *Service) mirrorAll(ctx context.Context, userID string) (MirrorReport, error) {
	logger := s.logger.With("operation", "MirrorAll", "userID", userID)
	logger.Info("MirrorAll started")

	// Pending background mirrors land before the snapshot is taken.
	s.inflight.Wait()

	sub, err := s.local.QueryAll(ctx)
	if err != nil {
		logger.Error("MirrorAll failed", "error", err)
		return MirrorReport{}, err
	}
	records, err := stream.Snapshot(ctx, sub)
	if err != nil {
		logger.Error("MirrorAll failed", "error", err)
		return MirrorReport{}, err
	}

	var (
		report                    MirrorReport
		mirrored, skipped, failed atomic.Int64
		g                         errgroup.Group
	)
	g.SetLimit(mirrorConcurrency)
	for _, r := range records {
		if r.State() == record.Mirrored {
			report.Skipped++
			continue
		}
		g.Go(func() error {
			remoteID, err := s.remote.Add(ctx, userID, r)
			if err != nil {
				failed.Add(1)
				logger.Warn("Mirror failed", "localID", r.LocalID, "error", err)
				return nil
			}
			err = s.attachRemoteID(ctx, userID, r.LocalID, remoteID)
			switch {
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAlreadyExists):
				skipped.Add(1)
				logger.Debug("Record changed during sync", "localID", r.LocalID, "error", err)
				return nil
			case err != nil:
				failed.Add(1)
				logger.Warn("Attaching remote id failed", "localID", r.LocalID, "remoteID", remoteID, "error", err)
				return nil
			}
			mirrored.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report.Mirrored = int(mirrored.Load())
	report.Skipped += int(skipped.Load())
	report.Failed = int(failed.Load())
	logger.Info("MirrorAll successful", "mirrored", report.Mirrored, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
