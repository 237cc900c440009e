// Package export renders records for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/record"
)

var header = []string{"Date", "Category", "Type", "Amount", "Notes"}

const dateLayout = "2006-01-02"

// WriteCSV writes one row per record after a header row, in the order given.
func WriteCSV(w io.Writer, records []record.Record, symbol string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.OccurredAt.Format(dateLayout),
			r.Category,
			r.Kind.Label(),
			symbol + r.Amount.StringFixed(2),
			r.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.LocalID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
