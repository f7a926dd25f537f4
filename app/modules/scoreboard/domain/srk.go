package scoreboarddomain

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	RankingDocumentType    = "general"
	RankingDocumentVersion = "0.3.0"
)

// Quantity is a value tagged with its unit, encoded as [value, "unit"].
type Quantity struct {
	Value float64
	Unit  string
}

func Seconds(n int64) Quantity { return Quantity{Value: float64(n), Unit: "s"} }

func Hours(d time.Duration) Quantity { return Quantity{Value: d.Hours(), Unit: "h"} }

func Minutes(d time.Duration) Quantity { return Quantity{Value: d.Minutes(), Unit: "min"} }

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{q.Value, q.Unit})
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("quantity must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &q.Value); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &q.Unit)
}

type RankingDocument struct {
	Type     string        `json:"type"`
	Version  string        `json:"version"`
	Contest  ContestInfo   `json:"contest"`
	Problems []ProblemInfo `json:"problems"`
	Series   []SeriesInfo  `json:"series"`
	Markers  []MarkerInfo  `json:"markers"`
	Rows     []RowInfo     `json:"rows"`
	Sorter   SorterInfo    `json:"sorter"`
	Now      string        `json:"_now"`
}

type ContestInfo struct {
	Title          string   `json:"title"`
	StartAt        string   `json:"startAt"`
	Duration       Quantity `json:"duration"`
	FrozenDuration Quantity `json:"frozenDuration"`
}

type ProblemInfo struct {
	Alias      string         `json:"alias"`
	Statistics StatisticsInfo `json:"statistics"`
	Style      *ProblemStyle  `json:"style,omitempty"`
}

type StatisticsInfo struct {
	Accepted  int `json:"accepted"`
	Submitted int `json:"submitted"`
}

type SeriesInfo struct {
	Title    string          `json:"title"`
	Segments []SegmentInfo   `json:"segments,omitempty"`
	Rule     *SeriesRuleInfo `json:"rule,omitempty"`
}

type SegmentInfo struct {
	Title string `json:"title"`
	Count int    `json:"count"`
	Style string `json:"style"`
}

type SeriesRuleInfo struct {
	Preset  string         `json:"preset"`
	Options map[string]any `json:"options,omitempty"`
}

type MarkerInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Style string `json:"style"`
}

type RowInfo struct {
	User     UserInfo     `json:"user"`
	Score    ScoreInfo    `json:"score"`
	Ranks    []RankInfo   `json:"ranks,omitempty"`
	Statuses []StatusInfo `json:"statuses"`
}

type UserInfo struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Organization string       `json:"organization"`
	TeamMembers  []MemberInfo `json:"teamMembers"`
	Official     bool         `json:"official"`
	Markers      []string     `json:"markers,omitempty"`
}

type MemberInfo struct {
	Name string `json:"name"`
}

type ScoreInfo struct {
	Value int      `json:"value"`
	Time  Quantity `json:"time"`
}

// RankInfo has null fields for teams outside the series or without a medal.
type RankInfo struct {
	Rank         *int `json:"rank"`
	SegmentIndex *int `json:"segmentIndex"`
}

type StatusInfo struct {
	Result    *string        `json:"result"`
	Time      *Quantity      `json:"time,omitempty"`
	Tries     int            `json:"tries"`
	Solutions []SolutionInfo `json:"solutions,omitempty"`
}

type SolutionInfo struct {
	Result string   `json:"result"`
	Time   Quantity `json:"time"`
}

type SorterInfo struct {
	Algorithm string       `json:"algorithm"`
	Config    SorterConfig `json:"config"`
}

type SorterConfig struct {
	Penalty          Quantity  `json:"penalty"`
	NoPenaltyResults []*string `json:"noPenaltyResults"`
	TimePrecision    string    `json:"timePrecision"`
	TimeRounding     string    `json:"timeRounding"`
}

type ScrollDocument struct {
	UpdatedAt int64           `json:"updatedAt"`
	Rows      []ScrollRowInfo `json:"rows"`
}

type ScrollRowInfo struct {
	Problem ScrollProblem `json:"problem"`
	Score   ScrollScore   `json:"score"`
	Result  string        `json:"result"`
	User    ScrollUser    `json:"user"`
}

type ScrollProblem struct {
	Alias string `json:"alias"`
}

type ScrollScore struct {
	Value int `json:"value"`
}

type ScrollUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

// CoachSuffix marks the coach among team members.
const CoachSuffix = " (coach)"

// DocumentOptions tunes what the ranking document exposes.
type DocumentOptions struct {
	IncludeSolutions bool
}

func ptr[T any](v T) *T { return &v }

func noPenaltyResults() []*string {
	return []*string{
		ptr(ResultFirstBlood), ptr(ResultAccepted), ptr(ResultFrozen),
		ptr(VerdictCompileError.Code()), ptr(VerdictSystemError.Code()), nil,
	}
}

// BuildRankingDocument renders the board and its standings as an srk document.
func BuildRankingDocument(board *Board, standings Standings, now time.Time, opts DocumentOptions) RankingDocument {
	contest := board.Contest()
	registry := board.Registry()

	doc := RankingDocument{
		Type:    RankingDocumentType,
		Version: RankingDocumentVersion,
		Contest: ContestInfo{
			Title:          contest.Title,
			StartAt:        contest.StartAt.Format(time.RFC3339),
			Duration:       Hours(contest.Duration),
			FrozenDuration: Hours(contest.FrozenDuration),
		},
		Problems: make([]ProblemInfo, 0, len(registry.Problems())),
		Series:   make([]SeriesInfo, 0, len(standings.Series)),
		Markers:  make([]MarkerInfo, 0, len(registry.Markers())),
		Rows:     make([]RowInfo, 0, len(standings.Entries)),
		Sorter: SorterInfo{
			Algorithm: "ICPC",
			Config: SorterConfig{
				Penalty:          Minutes(time.Duration(contest.PenaltySeconds()) * time.Second),
				NoPenaltyResults: noPenaltyResults(),
				TimePrecision:    "min",
				TimeRounding:     "floor",
			},
		},
		Now: now.Format(time.RFC3339),
	}

	for _, st := range board.Statistics() {
		doc.Problems = append(doc.Problems, ProblemInfo{
			Alias:      st.Problem.Alias,
			Statistics: StatisticsInfo{Accepted: st.Accepted, Submitted: st.Submitted},
			Style:      st.Problem.Style,
		})
	}

	for _, s := range standings.Series {
		doc.Series = append(doc.Series, seriesInfo(s))
	}

	for _, m := range registry.Markers() {
		doc.Markers = append(doc.Markers, MarkerInfo{ID: string(m.ID), Label: m.Label, Style: m.Style})
	}

	for _, e := range standings.Entries {
		doc.Rows = append(doc.Rows, rowInfo(board, standings, e, opts))
	}
	return doc
}

func seriesInfo(s SeriesStanding) SeriesInfo {
	def := s.Definition
	info := SeriesInfo{Title: def.Title}

	if def.Medals != nil {
		counts := s.Medals.Counts()
		for k := range counts {
			info.Segments = append(info.Segments, SegmentInfo{
				Title: MedalTitles[k],
				Count: counts[k],
				Style: MedalStyles[k],
			})
		}
	}

	switch {
	case def.Rule.UniqueByOrganization:
		info.Rule = &SeriesRuleInfo{Preset: "UniqByUserField", Options: map[string]any{
			"field":               "organization",
			"includeOfficialOnly": def.Rule.OfficialOnly,
		}}
	case def.Medals != nil:
		counts := s.Medals.Counts()
		options := map[string]any{"count": map[string]any{"value": counts[:]}}
		if filter := ruleFilter(def.Rule); filter != nil {
			options["filter"] = filter
		}
		info.Rule = &SeriesRuleInfo{Preset: "ICPC", Options: options}
	case def.Rule.OfficialOnly || def.Rule.Marker != "":
		options := map[string]any{"includeOfficialOnly": def.Rule.OfficialOnly}
		if filter := ruleFilter(def.Rule); filter != nil {
			options["filter"] = filter
		}
		info.Rule = &SeriesRuleInfo{Preset: "Normal", Options: options}
	}
	return info
}

func ruleFilter(rule SeriesRule) map[string]any {
	filter := map[string]any{}
	if rule.OfficialOnly {
		filter["official"] = true
	}
	if rule.Marker != "" {
		filter["byMarker"] = string(rule.Marker)
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}

func rowInfo(board *Board, standings Standings, e ScoreboardEntry, opts DocumentOptions) RowInfo {
	team := e.Team
	row := RowInfo{
		User: UserInfo{
			ID:           string(team.ID),
			Name:         team.Name,
			Organization: team.Organization,
			TeamMembers:  make([]MemberInfo, 0, len(team.Members)+1),
			Official:     team.Official,
		},
		Score: ScoreInfo{Value: e.Solved, Time: Seconds(e.PenaltySeconds)},
	}
	for _, m := range team.Members {
		row.User.TeamMembers = append(row.User.TeamMembers, MemberInfo{Name: m})
	}
	if team.Coach != "" {
		row.User.TeamMembers = append(row.User.TeamMembers, MemberInfo{Name: team.Coach + CoachSuffix})
	}
	for _, m := range team.Markers {
		row.User.Markers = append(row.User.Markers, string(m))
	}

	for _, s := range standings.Series {
		var info RankInfo
		if rank, segment, ok := s.Rank(team.ID); ok {
			info.Rank = ptr(rank)
			if segment >= 0 {
				info.SegmentIndex = ptr(segment)
			}
		}
		row.Ranks = append(row.Ranks, info)
	}

	attempts := board.Attempts(team.ID)
	row.Statuses = make([]StatusInfo, 0, len(attempts))
	for i := range attempts {
		row.Statuses = append(row.Statuses, statusInfo(&attempts[i], opts))
	}
	return row
}

func statusInfo(a *ProblemAttempt, opts DocumentOptions) StatusInfo {
	status := StatusInfo{Tries: a.Tries}
	switch a.State() {
	case StateOpen:
		status.Result = ptr(ResultRejected)
	case StateFrozen:
		status.Result = ptr(ResultFrozen)
	case StateSolved:
		result := ResultAccepted
		if a.IsFirstBlood {
			result = ResultFirstBlood
		}
		status.Result = ptr(result)
		status.Time = ptr(Seconds(*a.AcceptedAtSeconds))
	}

	if opts.IncludeSolutions {
		for _, h := range a.History {
			if !h.Verdict.IsPenaltyBearing() {
				continue
			}
			result := h.Verdict.Code()
			if h.Frozen {
				result = ResultFrozen
			}
			status.Solutions = append(status.Solutions, SolutionInfo{Result: result, Time: Seconds(h.RelativeSeconds)})
		}
	}
	return status
}

// BuildScrollDocument renders ticker rows.
func BuildScrollDocument(rows []ScrollRow, now time.Time) ScrollDocument {
	doc := ScrollDocument{UpdatedAt: now.Unix(), Rows: make([]ScrollRowInfo, 0, len(rows))}
	for _, r := range rows {
		doc.Rows = append(doc.Rows, ScrollRowInfo{
			Problem: ScrollProblem{Alias: r.ProblemAlias},
			Score:   ScrollScore{Value: r.Solved},
			Result:  r.Result,
			User: ScrollUser{
				ID:           string(r.Team.ID),
				Name:         r.Team.Name,
				Organization: r.Team.Organization,
			},
		})
	}
	return doc
}
