// Package version parses and compares environment version tokens.
//
// A token is either a dotted decimal release such as "9", "15.4" or "0.11.13",
// or one of the sentinel spellings below. Sentinels order around the numeric
// range so that lookups fail safe toward requiring a shim:
//
//	AlwaysRequired < Numeric < Preview < Unreleased < AlwaysTrue
//
// AlwaysRequired (also "always false") is what every malformed token
// normalizes to. Used as a target version it is older than any release,
// so no feature is judged natively supported.
package version

import (
	"cmp"
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Kind classifies a version token.
type Kind int

const (
	// AlwaysRequired sorts below every release.
	AlwaysRequired Kind = iota
	// Numeric is a dotted decimal release.
	Numeric
	// Preview is a technology preview build (Safari "TP").
	Preview
	// Unreleased is a build newer than any shipped release.
	Unreleased
	// AlwaysTrue sorts above everything else.
	AlwaysTrue
)

var kindNames = [...]string{"always-required", "numeric", "preview", "unreleased", "always-true"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// numericPattern accepts what environment vendors actually ship: one to
// three dot-separated decimal components.
var numericPattern = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)

var sentinels = map[string]Kind{
	"tp":         Preview,
	"preview":    Preview,
	"next":       Unreleased,
	"nightly":    Unreleased,
	"unreleased": Unreleased,
	"true":       AlwaysTrue,
	"always":     AlwaysTrue,
	"false":      AlwaysRequired,
	"never":      AlwaysRequired,
}

// Version is a parsed token. The zero value is AlwaysRequired.
type Version struct {
	kind Kind
	raw  string
	num  *semver.Version
}

// Kind returns the token classification.
func (v Version) Kind() Kind { return v.kind }

// IsNumeric reports whether v is a release number.
func (v Version) IsNumeric() bool { return v.kind == Numeric }

// String returns the token as it was written. Normalized malformed tokens
// render as "false".
func (v Version) String() string {
	if v.raw == "" && v.kind == AlwaysRequired {
		return "false"
	}
	return v.raw
}

// ErrMalformed matches every *ParseError.
var ErrMalformed = errors.New("malformed version")

// ParseError reports a token that is neither numeric nor a known sentinel.
type ParseError struct {
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	return "malformed version " + `"` + e.Token + `": ` + e.Message
}

// Is makes errors.Is(err, ErrMalformed) hold.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformed
}

// Parse classifies a token, returning a *ParseError for anything that is not
// a release number or a known sentinel.
func Parse(token string) (Version, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return Version{}, &ParseError{Token: token, Message: "empty token"}
	}
	if kind, ok := sentinels[strings.ToLower(s)]; ok {
		return Version{kind: kind, raw: s}, nil
	}
	if !numericPattern.MatchString(s) {
		return Version{}, &ParseError{Token: token, Message: "expected dotted decimal or sentinel"}
	}
	n, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, &ParseError{Token: token, Message: err.Error()}
	}
	return Version{kind: Numeric, raw: s, num: n}, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(token string) Version {
	v, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return v
}

// Normalize never fails: malformed tokens become AlwaysRequired.
func Normalize(token string) Version {
	v, err := Parse(token)
	if err != nil {
		return Version{kind: AlwaysRequired, raw: strings.TrimSpace(token)}
	}
	return v
}

// Compare returns -1 if a < b, 0 if a == b, 1 if a > b.
func Compare(a, b Version) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	if a.kind != Numeric {
		return 0
	}
	return a.num.Compare(b.num)
}

// CompareTokens normalizes both tokens and compares them.
func CompareTokens(a, b string) int {
	return Compare(Normalize(a), Normalize(b))
}

// Less reports whether a sorts before b.
func Less(a, b Version) bool {
	return Compare(a, b) < 0
}

// AtLeast reports whether have satisfies a minimum of want.
func AtLeast(have, want Version) bool {
	return Compare(have, want) >= 0
}

// Max returns the higher of two versions, preferring a on ties.
func Max(a, b Version) Version {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}

// Min returns the lower of two versions, preferring a on ties.
func Min(a, b Version) Version {
	if Compare(a, b) <= 0 {
		return a
	}
	return b
}

// Sort sorts versions in ascending order.
func Sort(versions []Version) {
	slices.SortStableFunc(versions, Compare)
}
