package history

import (
	"encoding/csv"
	"io"
	"strconv"
)

// csvColumns is the export schema, fixed in the column order the original
// dataset used. Single-entry and full-history exports share it.
var csvColumns = []string{
	"Name", "Pclass", "Age", "SibSp", "Parch", "Fare",
	"Has_Cabin", "FamilySize", "Sex", "Embarked",
	"Title", "Prediction", "Confidence", "Timestamp",
}

// ExportCSV writes a header row plus one row per entry.
func ExportCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.Name,
			strconv.Itoa(e.Pclass),
			strconv.Itoa(e.Age),
			strconv.Itoa(e.SibSp),
			strconv.Itoa(e.Parch),
			formatFloat(e.Fare),
			strconv.Itoa(e.HasCabin),
			strconv.Itoa(e.FamilySize),
			e.Sex,
			e.Embarked,
			e.Title,
			e.Prediction,
			formatFloat(e.Confidence),
			e.Timestamp,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportAll serializes the whole ledger in insertion order.
func (l *Ledger) ExportAll(w io.Writer) error {
	return ExportCSV(w, l.List())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
