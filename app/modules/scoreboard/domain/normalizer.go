package scoreboarddomain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Vocabulary maps a source's status tokens onto canonical verdicts.
// Keys are stored upper-cased and trimmed.
type Vocabulary map[string]Verdict

// CanonicalVocabulary understands short codes and canonical names.
func CanonicalVocabulary() Vocabulary {
	v := Vocabulary{
		"SE":      VerdictSystemError,
		"RE":      VerdictRuntimeError,
		"PENDING": VerdictPending,
		"JUDGING": VerdictPending,
		"QUEUED":  VerdictPending,
	}
	for verdict, name := range verdictNames {
		if verdict == VerdictUnknown {
			continue
		}
		v[strings.ToUpper(name)] = verdict
	}
	for verdict, code := range verdictCodes {
		v[code] = verdict
	}
	return v
}

// PTAVocabulary covers the PTA (pintia) status strings.
func PTAVocabulary() Vocabulary {
	return Vocabulary{
		"ACCEPTED":              VerdictAccepted,
		"WRONG_ANSWER":          VerdictWrongAnswer,
		"PARTIAL_ACCEPTED":      VerdictWrongAnswer,
		"SAMPLE_ERROR":          VerdictWrongAnswer,
		"MULTIPLE_ERROR":        VerdictWrongAnswer,
		"NO_ANSWER":             VerdictWrongAnswer,
		"PRESENTATION_ERROR":    VerdictPresentationError,
		"TIME_LIMIT_EXCEEDED":   VerdictTimeLimitExceeded,
		"MEMORY_LIMIT_EXCEEDED": VerdictMemoryLimitExceeded,
		"OUTPUT_LIMIT_EXCEEDED": VerdictOutputLimitExceeded,
		"RUNTIME_ERROR":         VerdictRuntimeError,
		"SEGMENTATION_FAULT":    VerdictRuntimeError,
		"FLOAT_POINT_EXCEPTION": VerdictRuntimeError,
		"NON_ZERO_EXIT_CODE":    VerdictRuntimeError,
		"COMPILE_ERROR":         VerdictCompileError,
		"INTERNAL_ERROR":        VerdictSystemError,
		"WAITING":               VerdictPending,
		"JUDGING":               VerdictPending,
		"REJUDGING":             VerdictPending,
	}
}

// SDUTOJVocabulary covers the numeric result codes of SDUT OJ.
func SDUTOJVocabulary() Vocabulary {
	return Vocabulary{
		"0": VerdictPending,
		"1": VerdictAccepted,
		"2": VerdictTimeLimitExceeded,
		"3": VerdictMemoryLimitExceeded,
		"4": VerdictWrongAnswer,
		"5": VerdictRuntimeError,
		"6": VerdictOutputLimitExceeded,
		"7": VerdictCompileError,
		"8": VerdictPresentationError,
		"9": VerdictSystemError,
	}
}

// VocabularyPreset returns a built-in vocabulary by name.
func VocabularyPreset(name string) (Vocabulary, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "canonical":
		return CanonicalVocabulary(), nil
	case "pta", "pintia":
		return PTAVocabulary(), nil
	case "sdutoj", "sdut":
		return SDUTOJVocabulary(), nil
	default:
		return nil, fmt.Errorf("unknown vocabulary preset %q", name)
	}
}

func normalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// Normalizer maps raw tokens of one source. It is immutable once built.
type Normalizer struct {
	source string
	vocab  Vocabulary
}

// NewNormalizer copies base and applies overrides, which map a raw token to a
// canonical verdict name or code.
func NewNormalizer(source string, base Vocabulary, overrides map[string]string) (*Normalizer, error) {
	vocab := make(Vocabulary, len(base)+len(overrides))
	for token, verdict := range base {
		vocab[normalizeToken(token)] = verdict
	}
	for token, name := range overrides {
		verdict, ok := ParseVerdict(name)
		if !ok {
			return nil, fmt.Errorf("status override %q: unknown verdict %q", token, name)
		}
		vocab[normalizeToken(token)] = verdict
	}
	return &Normalizer{source: source, vocab: vocab}, nil
}

func (n *Normalizer) Source() string { return n.source }

// Normalize returns VerdictUnknown for tokens outside the vocabulary.
func (n *Normalizer) Normalize(token string) Verdict {
	if v, ok := n.vocab[normalizeToken(token)]; ok {
		return v
	}
	return VerdictUnknown
}

// UnknownStatusReport is one unmapped token as seen from one source.
type UnknownStatusReport struct {
	Source           string    `json:"source"`
	Token            string    `json:"token"`
	Occurrences      int       `json:"occurrences"`
	LastSubmissionID int64     `json:"last_submission_id"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
}

// UnknownStatuses accumulates unmapped tokens for one contest run.
// It is written by the cycle and read by the admin API.
type UnknownStatuses struct {
	mu       sync.RWMutex
	bySource map[string]map[string]*UnknownStatusReport
}

func NewUnknownStatuses() *UnknownStatuses {
	return &UnknownStatuses{bySource: make(map[string]map[string]*UnknownStatusReport)}
}

// Record counts one sighting. A stalled submission is re-offered every cycle,
// so Occurrences grows until the vocabulary is fixed.
func (u *UnknownStatuses) Record(source, token string, submissionID int64, at time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()

	tokens, ok := u.bySource[source]
	if !ok {
		tokens = make(map[string]*UnknownStatusReport)
		u.bySource[source] = tokens
	}
	report, ok := tokens[token]
	if !ok {
		report = &UnknownStatusReport{Source: source, Token: token, FirstSeen: at}
		tokens[token] = report
	}
	report.Occurrences++
	report.LastSubmissionID = submissionID
	report.LastSeen = at
}

// Report returns a copy sorted by source then token.
func (u *UnknownStatuses) Report() []UnknownStatusReport {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]UnknownStatusReport, 0)
	for _, source := range slices.Sorted(maps.Keys(u.bySource)) {
		tokens := u.bySource[source]
		for _, token := range slices.Sorted(maps.Keys(tokens)) {
			out = append(out, *tokens[token])
		}
	}
	return out
}
