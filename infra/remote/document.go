package remote

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/shopspring/decimal"
)

// recordDoc is the stored shape of a record. Times are epoch milliseconds.
type recordDoc struct {
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      int64           `json:"date"`
	Notes     string          `json:"notes"`
	Type      string          `json:"type"`
	IsPinned  bool            `json:"isPinned"`
	CreatedAt int64           `json:"createdAt"`
	LocalID   int64           `json:"localId"`
}

func toDoc(r record.Record, now time.Time) recordDoc {
	created := r.CreatedAt
	if created.IsZero() {
		created = now
	}
	return recordDoc{
		Amount:    r.Amount,
		Category:  r.Category,
		Date:      r.OccurredAt.UnixMilli(),
		Notes:     r.Note,
		Type:      string(r.Kind),
		IsPinned:  r.Pinned,
		CreatedAt: created.UnixMilli(),
		LocalID:   r.LocalID,
	}
}

func (d recordDoc) toRecord(remoteID string) (record.Record, error) {
	kind, err := record.ParseKind(d.Type)
	if err != nil {
		return record.Record{}, err
	}
	return record.Record{
		LocalID:    d.LocalID,
		RemoteID:   remoteID,
		Amount:     d.Amount,
		Category:   d.Category,
		OccurredAt: time.UnixMilli(d.Date),
		Note:       d.Notes,
		Kind:       kind,
		Pinned:     d.IsPinned,
		CreatedAt:  time.UnixMilli(d.CreatedAt),
	}, nil
}

// decodeRecords drops documents whose type is not a known kind.
func decodeRecords(fields map[string]string, logger *slog.Logger) ([]record.Record, error) {
	out := make([]record.Record, 0, len(fields))
	for id, raw := range fields {
		var d recordDoc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		r, err := d.toRecord(id)
		if err != nil {
			logger.Warn("Skipping remote record", "remoteID", id, "error", err)
			continue
		}
		out = append(out, r)
	}
	record.SortNewestFirst(out)
	return out, nil
}
