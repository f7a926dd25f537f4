package scoreboarddomain

import "strings"

// Verdict is the canonical judge result every source status is mapped onto.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictPending
	VerdictAccepted
	VerdictWrongAnswer
	VerdictTimeLimitExceeded
	VerdictMemoryLimitExceeded
	VerdictOutputLimitExceeded
	VerdictPresentationError
	VerdictRuntimeError
	VerdictCompileError
	VerdictSystemError
)

// Result codes used in published documents beyond the plain verdict codes.
const (
	ResultFirstBlood = "FB"
	ResultAccepted   = "AC"
	ResultRejected   = "RJ"
	ResultFrozen     = "?"
)

var verdictNames = map[Verdict]string{
	VerdictUnknown:             "Unknown",
	VerdictPending:             "Pending",
	VerdictAccepted:            "Accepted",
	VerdictWrongAnswer:         "WrongAnswer",
	VerdictTimeLimitExceeded:   "TimeLimitExceeded",
	VerdictMemoryLimitExceeded: "MemoryLimitExceeded",
	VerdictOutputLimitExceeded: "OutputLimitExceeded",
	VerdictPresentationError:   "PresentationError",
	VerdictRuntimeError:        "RuntimeError",
	VerdictCompileError:        "CompileError",
	VerdictSystemError:         "SystemError",
}

var verdictCodes = map[Verdict]string{
	VerdictAccepted:            ResultAccepted,
	VerdictWrongAnswer:         "WA",
	VerdictTimeLimitExceeded:   "TLE",
	VerdictMemoryLimitExceeded: "MLE",
	VerdictOutputLimitExceeded: "OLE",
	VerdictPresentationError:   "PE",
	VerdictRuntimeError:        "RTE",
	VerdictCompileError:        "CE",
	VerdictSystemError:         "UKE",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return verdictNames[VerdictUnknown]
}

// Code is the short result code renderers understand. Pending and Unknown have none.
func (v Verdict) Code() string {
	return verdictCodes[v]
}

// IsResolved reports whether the judge has settled on a verdict we understand.
func (v Verdict) IsResolved() bool {
	return v != VerdictUnknown && v != VerdictPending
}

// IsPenaltyBearing reports whether the verdict counts as a try.
func (v Verdict) IsPenaltyBearing() bool {
	switch v {
	case VerdictAccepted, VerdictWrongAnswer, VerdictTimeLimitExceeded,
		VerdictMemoryLimitExceeded, VerdictOutputLimitExceeded,
		VerdictPresentationError, VerdictRuntimeError:
		return true
	default:
		return false
	}
}

// ParseVerdict accepts the canonical name or the short code, case-insensitively.
func ParseVerdict(s string) (Verdict, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for v, name := range verdictNames {
		if strings.ToUpper(name) == key {
			return v, true
		}
	}
	for v, code := range verdictCodes {
		if code == key {
			return v, true
		}
	}
	switch key {
	case "SE":
		return VerdictSystemError, true
	case "RE":
		return VerdictRuntimeError, true
	}
	return VerdictUnknown, false
}
