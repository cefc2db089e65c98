package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/roster/internal/api"
)

// ToCSV writes one row per employee followed by a grand total row.
func ToCSV(r *api.AllowanceReport, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	cols := header(r)
	if err := w.Write(cols); err != nil {
		return err
	}
	for _, emp := range r.Rows {
		if err := w.Write(row(r, emp)); err != nil {
			return err
		}
	}

	total := make([]string, len(cols))
	total[1] = "Total"
	total[len(total)-1] = r.GrandTotal().StringFixed(2)
	if err := w.Write(total); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
