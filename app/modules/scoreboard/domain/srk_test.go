package scoreboarddomain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// Three teams, two problems, five hours with the last hour frozen.
func TestEndToEndScenario(t *testing.T) {
	b := NewBoard(testContest(), testRegistry(t))
	mustFold(t, b,
		sub(1, "t1", "A", VerdictWrongAnswer, 10*time.Minute),
		sub(2, "t1", "A", VerdictAccepted, 20*time.Minute+50*time.Second),
		sub(3, "t2", "A", VerdictAccepted, 30*time.Minute),
		sub(4, "t2", "B", VerdictAccepted, 50*time.Minute),
		sub(5, "t1", "B", VerdictWrongAnswer, 4*time.Hour+10*time.Minute),
	)

	medals := MedalPolicy{Kind: MedalPolicyCounts, Counts: [3]int{1, 1, 1}}
	standings, err := ComputeStandings(b.Entries(), []SeriesDefinition{
		{Title: "Overall", Medals: &medals},
	})
	if err != nil {
		t.Fatal(err)
	}

	now := testStart.Add(4*time.Hour + 12*time.Minute)
	doc := BuildRankingDocument(b, standings, now, DocumentOptions{})

	type row struct {
		ID      string
		Solved  int
		Penalty float64
		Rank    int
		Segment *int
		Results []string
	}
	got := make([]row, len(doc.Rows))
	for i, r := range doc.Rows {
		results := make([]string, len(r.Statuses))
		for j, s := range r.Statuses {
			if s.Result != nil {
				results[j] = *s.Result
			}
		}
		got[i] = row{r.User.ID, r.Score.Value, r.Score.Time.Value, *r.Ranks[0].Rank, r.Ranks[0].SegmentIndex, results}
	}

	gold, silver := 0, 1
	want := []row{
		// 1800 + 3000
		{"t2", 2, 4800, 1, &gold, []string{"AC", "FB"}},
		// accepted at 1200 after one rejection
		{"t1", 1, 2400, 2, &silver, []string{"FB", "?"}},
		{"t3", 0, 0, 3, nil, []string{"", ""}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	wantSegments := []SegmentInfo{
		{Title: "Gold", Count: 1, Style: "gold"},
		{Title: "Silver", Count: 1, Style: "silver"},
		{Title: "Bronze", Count: 0, Style: "bronze"},
	}
	if diff := cmp.Diff(wantSegments, doc.Series[0].Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	wantProblems := []StatisticsInfo{{Accepted: 2, Submitted: 3}, {Accepted: 1, Submitted: 2}}
	for i, p := range doc.Problems {
		if p.Statistics != wantProblems[i] {
			t.Errorf("problem %s statistics = %+v, want %+v", p.Alias, p.Statistics, wantProblems[i])
		}
	}
}

func TestRankingDocumentJSONShape(t *testing.T) {
	b := NewBoard(testContest(), testRegistry(t))
	mustFold(t, b, sub(1, "t1", "A", VerdictAccepted, 61*time.Second))
	standings, err := ComputeStandings(b.Entries(), []SeriesDefinition{
		{Title: "Overall"},
		{Title: "Female", Rule: SeriesRule{Marker: "female"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	doc := BuildRankingDocument(b, standings, testStart.Add(time.Hour), DocumentOptions{IncludeSolutions: true})
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	contest := decoded["contest"].(map[string]any)
	if diff := cmp.Diff([]any{5.0, "h"}, contest["duration"]); diff != "" {
		t.Errorf("duration mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{1.0, "h"}, contest["frozenDuration"]); diff != "" {
		t.Errorf("frozenDuration mismatch (-want +got):\n%s", diff)
	}
	if contest["startAt"] != "2025-10-12T09:00:00Z" {
		t.Errorf("startAt = %v", contest["startAt"])
	}

	sorter := decoded["sorter"].(map[string]any)
	config := sorter["config"].(map[string]any)
	if diff := cmp.Diff([]any{"FB", "AC", "?", "CE", "UKE", nil}, config["noPenaltyResults"]); diff != "" {
		t.Errorf("noPenaltyResults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{20.0, "min"}, config["penalty"]); diff != "" {
		t.Errorf("penalty mismatch (-want +got):\n%s", diff)
	}

	first := decoded["rows"].([]any)[0].(map[string]any)
	user := first["user"].(map[string]any)
	if user["id"] != "t1" {
		t.Fatalf("first row = %v, want t1", user["id"])
	}
	members := user["teamMembers"].([]any)
	if last := members[len(members)-1].(map[string]any); last["name"] != "ca (coach)" {
		t.Errorf("coach member = %v", last["name"])
	}

	ranks := first["ranks"].([]any)
	if diff := cmp.Diff(map[string]any{"rank": nil, "segmentIndex": nil}, ranks[1]); diff != "" {
		t.Errorf("excluded series rank mismatch (-want +got):\n%s", diff)
	}

	status := first["statuses"].([]any)[0].(map[string]any)
	want := map[string]any{
		"result":    "FB",
		"time":      []any{60.0, "s"},
		"tries":     1.0,
		"solutions": []any{map[string]any{"result": "AC", "time": []any{61.0, "s"}}},
	}
	if diff := cmp.Diff(want, status); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}

	untried := first["statuses"].([]any)[1].(map[string]any)
	if diff := cmp.Diff(map[string]any{"result": nil, "tries": 0.0}, untried); diff != "" {
		t.Errorf("untried status mismatch (-want +got):\n%s", diff)
	}
}

func TestScrollDocumentJSON(t *testing.T) {
	now := testStart.Add(time.Hour)
	doc := BuildScrollDocument([]ScrollRow{{
		SubmissionID: 9,
		Team:         Team{ID: "t1", Name: "Alpha", Organization: "North"},
		ProblemAlias: "A",
		Result:       "WA",
		Solved:       2,
	}}, now)

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"updatedAt":1760263200,"rows":[{"problem":{"alias":"A"},"score":{"value":2},"result":"WA","user":{"id":"t1","name":"Alpha","organization":"North"}}]}`
	if string(raw) != want {
		t.Errorf("scroll json =\n%s\nwant\n%s", raw, want)
	}
}

func TestQuantityRoundTrip(t *testing.T) {
	var q Quantity
	if err := json.Unmarshal([]byte(`[4.5,"h"]`), &q); err != nil {
		t.Fatal(err)
	}
	if q != (Quantity{Value: 4.5, Unit: "h"}) {
		t.Errorf("decoded %+v", q)
	}
	if err := json.Unmarshal([]byte(`[1]`), &q); err == nil {
		t.Error("expected an error for a one-element quantity")
	}
}
