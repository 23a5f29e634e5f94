package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JamesPrial/scene-namer/pkg/errors"
)

// placeholderPattern matches {n}, {n:03d}, {n:3d} and the {num...} spellings
var placeholderPattern = regexp.MustCompile(`\{(?:n|num)(?::(0?)(\d*)d)?\}`)

// SuffixPolicy formats the counter appended to a duplicate's base name
type SuffixPolicy struct {
	template string
	prefix   string
	suffix   string
	width    int
	zeroPad  bool
}

// ParseSuffix compiles a template such as " {n:03d}", "-{n:03d}" or ".{n}".
// The template must contain exactly one counter placeholder.
func ParseSuffix(template string) (SuffixPolicy, error) {
	locs := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	if len(locs) != 1 {
		return SuffixPolicy{}, errors.Newf(errors.ErrCodeValidationFormat,
			"suffix template %q must contain exactly one counter placeholder", template)
	}
	loc := locs[0]

	policy := SuffixPolicy{
		template: template,
		prefix:   template[:loc[0]],
		suffix:   template[loc[1]:],
	}
	if loc[2] >= 0 {
		policy.zeroPad = template[loc[2]:loc[3]] == "0"
	}
	if loc[4] >= 0 && loc[5] > loc[4] {
		width, err := strconv.Atoi(template[loc[4]:loc[5]])
		if err != nil {
			return SuffixPolicy{}, errors.Wrapf(err, errors.ErrCodeValidationFormat, "invalid width in suffix template %q", template)
		}
		policy.width = width
	}
	if strings.ContainsAny(policy.prefix+policy.suffix, "{}") {
		return SuffixPolicy{}, errors.Newf(errors.ErrCodeValidationFormat,
			"suffix template %q contains an unrecognized placeholder", template)
	}
	return policy, nil
}

// MustParseSuffix is like ParseSuffix but panics on error
func MustParseSuffix(template string) SuffixPolicy {
	policy, err := ParseSuffix(template)
	if err != nil {
		panic(err)
	}
	return policy
}

// Format returns the suffix for counter n
func (p SuffixPolicy) Format(n int) string {
	var num string
	switch {
	case p.zeroPad && p.width > 0:
		num = fmt.Sprintf("%0*d", p.width, n)
	case p.width > 0:
		num = fmt.Sprintf("%*d", p.width, n)
	default:
		num = strconv.Itoa(n)
	}
	return p.prefix + num + p.suffix
}

// Candidate appends the suffix for counter n to base
func (p SuffixPolicy) Candidate(base string, n int) string {
	return base + p.Format(n)
}

// String returns the template the policy was parsed from
func (p SuffixPolicy) String() string {
	return p.template
}
