package history

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
)

func entry(id, name, timestamp string) Entry {
	return Entry{
		ID:         id,
		Name:       name,
		Pclass:     3,
		Age:        22,
		SibSp:      1,
		Fare:       7.25,
		FamilySize: 2,
		Sex:        "male",
		Embarked:   "S",
		Title:      "Mr",
		Prediction: "Did Not Survive",
		Confidence: 0.1585,
		Timestamp:  timestamp,
	}
}

func TestLedgerAppendPreservesOrder(t *testing.T) {
	l := NewLedger()
	const n = 25
	for i := 0; i < n; i++ {
		l.Append(entry(fmt.Sprintf("id-%d", i), fmt.Sprintf("Passenger %d", i), "2026-08-26 10:00:00"))
	}

	entries := l.List()
	if len(entries) != n {
		t.Fatalf("got %d entries, want %d", len(entries), n)
	}
	for i, e := range entries {
		if e.ID != fmt.Sprintf("id-%d", i) {
			t.Fatalf("entry %d out of order: %s", i, e.ID)
		}
	}
}

func TestLedgerListIsACopy(t *testing.T) {
	l := NewLedger()
	l.Append(entry("id-0", "Braund, Mr. Owen Harris", "2026-08-26 10:00:00"))

	snapshot := l.List()
	snapshot[0].Name = "mutated"

	if got := l.List()[0].Name; got != "Braund, Mr. Owen Harris" {
		t.Fatalf("ledger entry mutated through snapshot: %q", got)
	}
}

func TestLedgerRetainsDuplicateLabels(t *testing.T) {
	l := NewLedger()
	// Same name, same second: the legacy label collides, the IDs do not.
	l.Append(entry("id-a", "Braund, Mr. Owen Harris", "2026-08-26 10:00:00"))
	l.Append(entry("id-b", "Braund, Mr. Owen Harris", "2026-08-26 10:00:00"))

	if l.Len() != 2 {
		t.Fatalf("duplicate label destroyed data: %d entries", l.Len())
	}

	label := "Braund, Mr. Owen Harris | 2026-08-26 10:00:00"
	got, ok := l.SelectByLabel(label)
	if !ok {
		t.Fatal("label not found")
	}
	if got.ID != "id-a" {
		t.Fatalf("SelectByLabel should return the first match, got %s", got.ID)
	}

	if got, ok := l.SelectByID("id-b"); !ok || got.ID != "id-b" {
		t.Fatal("SelectByID failed to disambiguate the duplicate")
	}
}

func TestLedgerSelectMisses(t *testing.T) {
	l := NewLedger()
	if _, ok := l.SelectByID("missing"); ok {
		t.Fatal("found entry in empty ledger")
	}
	if _, ok := l.SelectByLabel("nobody | never"); ok {
		t.Fatal("found label in empty ledger")
	}
}

func TestExportAll(t *testing.T) {
	l := NewLedger()
	const n = 3
	for i := 0; i < n; i++ {
		l.Append(entry(fmt.Sprintf("id-%d", i), fmt.Sprintf("Passenger %d", i), "2026-08-26 10:00:00"))
	}

	var buf bytes.Buffer
	if err := l.ExportAll(&buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(records) != n+1 {
		t.Fatalf("got %d rows, want %d (header + %d entries)", len(records), n+1, n)
	}

	wantHeader := "Name,Pclass,Age,SibSp,Parch,Fare,Has_Cabin,FamilySize,Sex,Embarked,Title,Prediction,Confidence,Timestamp"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Fatalf("header = %q, want %q", got, wantHeader)
	}
}

func TestExportSingleEntry(t *testing.T) {
	e := entry("id-0", "Braund, Mr. Owen Harris", "2026-08-26 10:00:00")

	var buf bytes.Buffer
	if err := ExportCSV(&buf, []Entry{e}); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(records))
	}

	row := records[1]
	if row[0] != "Braund, Mr. Owen Harris" || row[5] != "7.25" || row[11] != "Did Not Survive" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestEntryLabel(t *testing.T) {
	e := entry("id-0", "Braund, Mr. Owen Harris", "2026-08-26 10:00:00")
	if want := "Braund, Mr. Owen Harris | 2026-08-26 10:00:00"; e.Label() != want {
		t.Fatalf("label = %q, want %q", e.Label(), want)
	}
}
