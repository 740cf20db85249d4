package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ROW CLASSIFICATION
// =============================================================================

// RowKind is the role of a worksheet row below the header.
type RowKind int

const (
	// KindData is an ordinary request row.
	KindData RowKind = iota

	// KindSkip is a label, total or blank row that never holds a request.
	KindSkip

	// KindSectionStart opens a new dated section.
	KindSectionStart
)

func (k RowKind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindSkip:
		return "skip"
	case KindSectionStart:
		return "section-start"
	default:
		return "unknown"
	}
}

// RowCells holds the cells classification looks at.
type RowCells struct {
	// Leading is column A: a section marker, a row label or blank.
	Leading string

	// Organization is column B.
	Organization string
}

// Classification is the result of Classify.
type Classification struct {
	Kind RowKind

	// Section fields, set for KindSectionStart.
	Key      string
	Date     string
	Sequence int

	// HasData is set for KindSectionStart rows whose organization cell is
	// filled: the marker row is also the first request row.
	HasData bool

	// Malformed is set when column A looks like a section marker but its date
	// could not be read. Such rows are skipped.
	Malformed bool
}

var sectionPattern = regexp.MustCompile(`(?i)^week\s+of\s+(.+?)(?:\s*#\s*(\d+))?$`)

// markerDateLayouts are the date spellings accepted after "Week of".
// Everything is normalized to ISO dates for section keys.
var markerDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Monday, January 2, 2006",
}

// skipLabels are column A values of non-request rows, lower-cased.
var skipLabels = []string{
	"subtotal",
	"remaining balance",
	"starting balance",
	"total",
	"grand total",
	"meeting date",
	"tracked individually",
}

// Classify decides what a worksheet row is.
//
// PARAMETERS:
//   - cells: the leading (column A) and organization (column B) cells
//
// RETURNS:
//   - Classification: KindSectionStart with the section key, KindSkip for
//     labels and blank rows, KindData otherwise
func Classify(cells RowCells) Classification {
	lead := strings.TrimSpace(cells.Leading)
	org := strings.TrimSpace(cells.Organization)

	if m := sectionPattern.FindStringSubmatch(lead); m != nil {
		date, err := parseMarkerDate(m[1])
		if err != nil {
			return Classification{Kind: KindSkip, Malformed: true}
		}
		seq := 1
		if m[2] != "" {
			if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
				seq = n
			}
		}
		return Classification{
			Kind:     KindSectionStart,
			Key:      SectionKey(date, seq),
			Date:     date.Format(isoDate),
			Sequence: seq,
			HasData:  org != "" && !strings.EqualFold(org, "Organization"),
		}
	}

	lower := strings.ToLower(lead)
	for _, label := range skipLabels {
		if lower == label || strings.HasPrefix(lower, label+" ") || strings.HasPrefix(lower, label+":") {
			return Classification{Kind: KindSkip}
		}
	}

	if org == "" || strings.EqualFold(org, "Organization") {
		return Classification{Kind: KindSkip}
	}

	return Classification{Kind: KindData}
}

// =============================================================================
// SECTION KEYS
// =============================================================================

const isoDate = "2006-01-02"

// SectionKey names the seq-th section on date: "2026-02-01" for the first,
// "2026-02-01 #2" for the second, and so on.
func SectionKey(date time.Time, seq int) string {
	if seq <= 1 {
		return date.Format(isoDate)
	}
	return fmt.Sprintf("%s #%d", date.Format(isoDate), seq)
}

// SectionMarker is the column A text that opens a section.
func SectionMarker(date time.Time, seq int) string {
	return sectionPrefix + SectionKey(date, seq)
}

// NormalizeKey turns user input such as "2/1/2026", "Week of 2026-02-01" or
// "2026-02-01 #2" into a section key.
func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if !sectionPattern.MatchString(key) {
		key = sectionPrefix + key
	}
	cls := Classify(RowCells{Leading: key})
	if cls.Kind != KindSectionStart {
		return "", fmt.Errorf("%w: cannot read date in %q", ErrSectionNotFound, key)
	}
	return cls.Key, nil
}

func parseMarkerDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range markerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
