package assign

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// LabelKind distinguishes the three forms a district label can take.
type LabelKind int

const (
	// LabelUnassigned marks a member that no container covers.
	LabelUnassigned LabelKind = iota
	// LabelNumeric is a regular district identifier.
	LabelNumeric
	// LabelReserved is a non-numeric code some authorities use to mark
	// territory outside every district (e.g. "ZZZ"). It is preserved
	// verbatim: coercing it to an integer sentinel would collide with
	// legitimate identifiers downstream.
	LabelReserved
)

// Label is a tagged district identifier: a number, a reserved out-of-band
// code, or the explicit unassigned sentinel.
type Label struct {
	Kind   LabelKind
	Number int    // valid when Kind == LabelNumeric
	Code   string // valid when Kind == LabelReserved
}

// Unassigned is the label for members outside every container.
var Unassigned = Label{Kind: LabelUnassigned}

// Numeric builds a numeric district label.
func Numeric(n int) Label { return Label{Kind: LabelNumeric, Number: n} }

// Reserved builds a reserved-code label.
func Reserved(code string) Label { return Label{Kind: LabelReserved, Code: code} }

// ParseLabel interprets a raw label column value. Integer text (with
// surrounding whitespace and leading zeros tolerated, as in TIGER district
// codes like "07") parses as numeric; anything else is preserved as a
// reserved code.
func ParseLabel(raw string) Label {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return Numeric(n)
	}
	return Reserved(s)
}

// String renders the label for logs and reports.
func (l Label) String() string {
	switch l.Kind {
	case LabelNumeric:
		return strconv.Itoa(l.Number)
	case LabelReserved:
		return fmt.Sprintf("reserved(%s)", l.Code)
	default:
		return "unassigned"
	}
}

// MarshalJSON encodes numeric labels as JSON numbers, reserved codes as
// strings, and unassigned as null. This matches how assignment files
// represent district identifiers.
func (l Label) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LabelNumeric:
		return json.Marshal(l.Number)
	case LabelReserved:
		return json.Marshal(l.Code)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (l *Label) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*l = Unassigned
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*l = Numeric(n)
		return nil
	}
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("district label must be a number, string, or null: %s", s)
	}
	*l = Reserved(code)
	return nil
}

// less orders labels for stable report output: numeric ascending, then
// reserved codes alphabetically, unassigned last.
func (l Label) less(other Label) bool {
	if l.Kind != other.Kind {
		return labelRank(l.Kind) < labelRank(other.Kind)
	}
	switch l.Kind {
	case LabelNumeric:
		return l.Number < other.Number
	case LabelReserved:
		return l.Code < other.Code
	default:
		return false
	}
}

func labelRank(k LabelKind) int {
	switch k {
	case LabelNumeric:
		return 0
	case LabelReserved:
		return 1
	default:
		return 2
	}
}

// sortLabels orders a label slice with the report ordering.
func sortLabels(labels []Label) {
	sort.Slice(labels, func(i, j int) bool { return labels[i].less(labels[j]) })
}
