package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/staffdir/internal/roster"
)

// ScenarioSnapshot is the two-record snapshot used by the filter scenarios.
func ScenarioSnapshot() roster.Snapshot {
	return roster.Snapshot{
		{ConsultantID: 1, Name: "Ali", CurrentRankID: "A", BranchName: "Cairo", SectorName: "S1"},
		{ConsultantID: 2, Name: "Sara", CurrentRankID: "B", BranchName: "Giza", SectorName: "S1"},
	}
}

// DirectorySnapshot is a richer snapshot with mixed sections, Arabic names
// and a missing section, for facet and render tests.
func DirectorySnapshot() roster.Snapshot {
	return roster.Snapshot{
		{ConsultantID: 101, Name: "أحمد علي", CurrentRankID: "مستشار", BranchName: "القاهرة", SectionName: "الأول", SectorName: "الشمال", TimeRank: "12", PhoneNumber: "1001234567"},
		{ConsultantID: 102, Name: "سارة محمود", CurrentRankID: "نائب", BranchName: "الجيزة", SectionName: "", SectorName: "الشمال", TimeRank: "7", PhoneNumber: "1112223334"},
		{ConsultantID: 103, Name: "Omar Hassan", CurrentRankID: "مستشار", BranchName: "القاهرة", SectionName: "الثاني", SectorName: "الجنوب", TimeRank: "3", PhoneNumber: "1223334445"},
		{ConsultantID: 104, Name: "علي حسن", CurrentRankID: "رئيس", BranchName: "الإسكندرية", SectionName: "الأول", SectorName: "الجنوب", TimeRank: "20", PhoneNumber: "1009998887"},
	}
}

// WriteSnapshotFile writes snap as a JSON data resource under t.TempDir()
// and returns its path.
func WriteSnapshotFile(t *testing.T, snap roster.Snapshot) string {
	t.Helper()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	path := filepath.Join(t.TempDir(), "simpledata.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write snapshot file: %v", err)
	}
	return path
}
