package record

import (
	"time"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
	"github.com/shopspring/decimal"
)

// Record is the persisted row of a financial record.
type Record struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	RemoteID   string          `gorm:"type:varchar(64);column:remote_id;index"`
	Amount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Category   string          `gorm:"type:varchar(64);not null"`
	OccurredAt time.Time       `gorm:"not null;index"`
	Note       string          `gorm:"type:text"`
	Kind       string          `gorm:"type:varchar(16);not null;index"`
	Pinned     bool            `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for the Record model.
func (Record) TableName() string {
	return "records"
}

// Times are stored in UTC so text-backed dialects order them correctly, and
// read back in local time so calendar dates survive the round trip.
func toModel(r record.Record) Record {
	return Record{
		ID:         r.LocalID,
		RemoteID:   r.RemoteID,
		Amount:     r.Amount,
		Category:   r.Category,
		OccurredAt: r.OccurredAt.UTC(),
		Note:       r.Note,
		Kind:       string(r.Kind),
		Pinned:     r.Pinned,
		CreatedAt:  r.CreatedAt,
	}
}

func toDomain(m Record) record.Record {
	return record.Record{
		LocalID:    m.ID,
		RemoteID:   m.RemoteID,
		Amount:     m.Amount,
		Category:   m.Category,
		OccurredAt: m.OccurredAt.Local(),
		Note:       m.Note,
		Kind:       record.Kind(m.Kind),
		Pinned:     m.Pinned,
		CreatedAt:  m.CreatedAt,
	}
}
