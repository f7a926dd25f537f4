package scoreboardsources

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
)

// TimestampUnit says how a source encodes submission times.
type TimestampUnit string

const (
	TimestampSeconds TimestampUnit = "s"
	TimestampMillis  TimestampUnit = "ms"
	TimestampRFC3339 TimestampUnit = "rfc3339"
)

// FieldMapping names the JSON fields of one submission record.
type FieldMapping struct {
	ID        string `yaml:"id"`
	Team      string `yaml:"team"`
	Problem   string `yaml:"problem"`
	Status    string `yaml:"status"`
	Timestamp string `yaml:"timestamp"`
}

func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		ID:        "id",
		Team:      "team_id",
		Problem:   "problem_id",
		Status:    "status",
		Timestamp: "submitted_at",
	}
}

// withDefaults fills unset names from DefaultFieldMapping.
func (m FieldMapping) withDefaults() FieldMapping {
	d := DefaultFieldMapping()
	return FieldMapping{
		ID:        cmp.Or(m.ID, d.ID),
		Team:      cmp.Or(m.Team, d.Team),
		Problem:   cmp.Or(m.Problem, d.Problem),
		Status:    cmp.Or(m.Status, d.Status),
		Timestamp: cmp.Or(m.Timestamp, d.Timestamp),
	}
}

// Decoder turns upstream JSON into raw submissions.
type Decoder struct {
	fields FieldMapping
	unit   TimestampUnit
	loc    *time.Location
}

// NewDecoder validates unit. loc applies to RFC3339-like timestamps without a
// zone; nil means UTC.
func NewDecoder(fields FieldMapping, unit TimestampUnit, loc *time.Location) (Decoder, error) {
	switch unit {
	case "":
		unit = TimestampSeconds
	case TimestampSeconds, TimestampMillis, TimestampRFC3339:
	default:
		return Decoder{}, fmt.Errorf("unsupported timestamp unit %q", unit)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Decoder{fields: fields.withDefaults(), unit: unit, loc: loc}, nil
}

// DecodeBatch accepts a JSON array of records or an object wrapping one under
// "submissions". The result is ordered by id.
func (d Decoder) DecodeBatch(body []byte) ([]scoreboarddomain.RawSubmission, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}

	var records []json.RawMessage
	if body[0] == '{' {
		var wrapper struct {
			Submissions []json.RawMessage `json:"submissions"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode submission envelope: %w", err)
		}
		records = wrapper.Submissions
	} else if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode submission list: %w", err)
	}

	out := make([]scoreboarddomain.RawSubmission, 0, len(records))
	for i, rec := range records {
		sub, err := d.DecodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, sub)
	}
	sortByID(out)
	return out, nil
}

// DecodeRecord decodes one JSON object.
func (d Decoder) DecodeRecord(data []byte) (scoreboarddomain.RawSubmission, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return scoreboarddomain.RawSubmission{}, fmt.Errorf("failed to decode submission: %w", err)
	}

	var sub scoreboarddomain.RawSubmission

	idText, ok := scalar(fields[d.fields.ID])
	if !ok {
		return sub, fmt.Errorf("missing field %q", d.fields.ID)
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || id <= 0 {
		return sub, fmt.Errorf("field %q: invalid submission id %q", d.fields.ID, idText)
	}
	sub.ID = id

	if sub.TeamID, ok = scalar(fields[d.fields.Team]); !ok {
		return sub, fmt.Errorf("submission %d: missing field %q", id, d.fields.Team)
	}
	if sub.ProblemRef, ok = scalar(fields[d.fields.Problem]); !ok {
		return sub, fmt.Errorf("submission %d: missing field %q", id, d.fields.Problem)
	}
	// An absent status is kept empty and normalizes to unknown.
	sub.Status, _ = scalar(fields[d.fields.Status])

	tsText, ok := scalar(fields[d.fields.Timestamp])
	if !ok {
		return sub, fmt.Errorf("submission %d: missing field %q", id, d.fields.Timestamp)
	}
	if sub.Timestamp, err = d.parseTime(tsText); err != nil {
		return sub, fmt.Errorf("submission %d: %w", id, err)
	}
	return sub, nil
}

func (d Decoder) parseTime(text string) (time.Time, error) {
	if d.unit == TimestampRFC3339 {
		if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
			return t, nil
		}
		t, err := time.ParseInLocation("2006-01-02 15:04:05", text, d.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", text)
		}
		return t, nil
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", text)
	}
	if d.unit == TimestampMillis {
		return time.UnixMilli(int64(v)).UTC(), nil
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}

// scalar renders strings and numbers as text. Objects, arrays and nulls are
// not scalars.
func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func sortByID(subs []scoreboarddomain.RawSubmission) {
	slices.SortStableFunc(subs, func(a, b scoreboarddomain.RawSubmission) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

// after keeps submissions with id > afterID, at most limit of them.
func after(subs []scoreboarddomain.RawSubmission, afterID int64, limit int) []scoreboarddomain.RawSubmission {
	out := subs[:0:0]
	for _, s := range subs {
		if s.ID > afterID {
			out = append(out, s)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
