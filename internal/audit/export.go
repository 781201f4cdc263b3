package audit

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV serialises timeline entries to CSV for compliance download.
func WriteCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"At", "Actor ID", "Actor Role", "Action", "Entity", "Entity ID", "Description"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write([]string{
			e.At.UTC().Format(time.RFC3339),
			strconv.FormatInt(e.ActorID, 10),
			string(e.ActorRole),
			e.Action,
			e.EntityType,
			e.EntityID,
			e.Description,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
