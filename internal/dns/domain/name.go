// Package domain defines the value types of the zone engine: domain
// names, record data variants, RRsets, immutable zones and answers.
// Everything in this package is immutable after construction and safe
// to share across goroutines without locking.
package domain

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

const (
	maxLabelLength = 63
	maxNameLength  = 255

	// WildcardLabel is the literal leftmost label of a wildcard owner name.
	WildcardLabel = "*"
)

// idnaProfile maps non-ASCII labels to Punycode per UTS #46.
var idnaProfile = idna.New(
	idna.MapForLookup(),
	idna.StrictDomainName(true),
	idna.Transitional(true),
)

// Name is a fully-qualified domain name stored as an ordered sequence
// of labels, least-significant label first. The root name has zero
// labels. Case is preserved but all comparisons fold ASCII case, per
// DNS convention. A Name is immutable once constructed.
type Name struct {
	labels []string
}

// Root is the zero-label root name.
var Root = Name{}

// NewName builds a Name from raw labels, least-significant first.
// Labels are validated but not re-mapped through IDNA; callers that
// accept human input should use ParseName instead.
func NewName(labels []string) (Name, error) {
	out := make([]string, len(labels))
	encoded := 1 // trailing root byte
	for i, l := range labels {
		if l == "" {
			return Name{}, fmt.Errorf("%w: empty label", ErrMalformedName)
		}
		if len(l) > maxLabelLength {
			return Name{}, fmt.Errorf("%w: label %q exceeds %d octets", ErrMalformedName, l, maxLabelLength)
		}
		encoded += 1 + len(l)
		out[i] = l
	}
	if encoded > maxNameLength {
		return Name{}, fmt.Errorf("%w: encoded name exceeds %d octets", ErrMalformedName, maxNameLength)
	}
	return Name{labels: out}, nil
}

// ParseName parses a dotted domain name. A trailing dot is accepted and
// ignored; "" and "." both parse to the root. Non-ASCII labels are
// mapped to Punycode via UTS #46, matching how authoritative data is
// normalized everywhere else in the engine.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return Root, nil
	}
	parts := strings.Split(s, ".")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		l, err := parseLabel(p)
		if err != nil {
			return Name{}, err
		}
		labels = append(labels, l)
	}
	return NewName(labels)
}

// MustParseName is ParseName for static names; it panics on error.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// parseLabel validates one label, passing non-ASCII input through IDNA.
// The wildcard label and service labels with a leading underscore are
// accepted as-is.
func parseLabel(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty label", ErrMalformedName)
	}
	if s == WildcardLabel {
		return s, nil
	}
	if isPlainLabel(s) {
		if len(s) > maxLabelLength {
			return "", fmt.Errorf("%w: label %q exceeds %d octets", ErrMalformedName, s, maxLabelLength)
		}
		return s, nil
	}
	mapped, err := idnaProfile.ToASCII(s)
	if err != nil {
		return "", fmt.Errorf("%w: label %q: %v", ErrMalformedName, s, err)
	}
	if mapped == "" || len(mapped) > maxLabelLength {
		return "", fmt.Errorf("%w: label %q maps to invalid length", ErrMalformedName, s)
	}
	return mapped, nil
}

// isPlainLabel reports whether s is plain LDH (letter-digit-hyphen),
// optionally with a leading underscore for service labels.
func isPlainLabel(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '-':
		case b == '_' && i == 0:
		default:
			return false
		}
	}
	return true
}

// Labels returns the name's labels, least-significant first. The
// returned slice must not be modified.
func (n Name) Labels() []string {
	return n.labels
}

// LabelCount returns the number of labels; zero for the root.
func (n Name) LabelCount() int {
	return len(n.labels)
}

// IsRoot reports whether the name is the DNS root.
func (n Name) IsRoot() bool {
	return len(n.labels) == 0
}

// IsWildcard reports whether the leftmost label is the wildcard label.
func (n Name) IsWildcard() bool {
	return len(n.labels) > 0 && n.labels[0] == WildcardLabel
}

// Parent returns the name with its leftmost label removed. The parent
// of the root is the root.
func (n Name) Parent() Name {
	if len(n.labels) == 0 {
		return Root
	}
	return Name{labels: n.labels[1:]}
}

// WildcardParent returns the suffix a wildcard owner matches under,
// i.e. the owner name with the wildcard label stripped.
func (n Name) WildcardParent() Name {
	return n.Parent()
}

// Within reports whether n equals suffix or is one of its descendants.
// Every name is within the root.
func (n Name) Within(suffix Name) bool {
	d := len(n.labels) - len(suffix.labels)
	if d < 0 {
		return false
	}
	for i, l := range suffix.labels {
		if !labelEqualFold(n.labels[d+i], l) {
			return false
		}
	}
	return true
}

// Equal reports case-insensitive equality.
func (n Name) Equal(other Name) bool {
	if len(n.labels) != len(other.labels) {
		return false
	}
	for i := range n.labels {
		if !labelEqualFold(n.labels[i], other.labels[i]) {
			return false
		}
	}
	return true
}

// Compare orders names canonically: most-significant label first,
// case-folded, with a shorter name sorting before its descendants.
// Owner tables are encoded in this order so wildcard-suffix lookups
// scan a contiguous range.
func (n Name) Compare(other Name) int {
	i, j := len(n.labels)-1, len(other.labels)-1
	for i >= 0 && j >= 0 {
		if c := strings.Compare(foldLabel(n.labels[i]), foldLabel(other.labels[j])); c != 0 {
			return c
		}
		i--
		j--
	}
	switch {
	case i >= 0:
		return 1
	case j >= 0:
		return -1
	default:
		return 0
	}
}

// Key returns the case-folded dotted form, suitable as a map key.
func (n Name) Key() string {
	if len(n.labels) == 0 {
		return "."
	}
	folded := make([]string, len(n.labels))
	for i, l := range n.labels {
		folded[i] = foldLabel(l)
	}
	return strings.Join(folded, ".")
}

// EncodedLen returns the number of octets the name occupies in
// uncompressed wire form, including the terminating root byte.
func (n Name) EncodedLen() int {
	total := 1
	for _, l := range n.labels {
		total += 1 + len(l)
	}
	return total
}

// String returns the dotted form with original case; "." for the root.
func (n Name) String() string {
	if len(n.labels) == 0 {
		return "."
	}
	return strings.Join(n.labels, ".")
}

// labelEqualFold compares two labels ignoring ASCII case.
func labelEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if foldByte(a[i]) != foldByte(b[i]) {
			return false
		}
	}
	return true
}

// foldLabel lowercases ASCII letters in a label.
func foldLabel(l string) string {
	for i := 0; i < len(l); i++ {
		if l[i] >= 'A' && l[i] <= 'Z' {
			return strings.ToLower(l)
		}
	}
	return l
}

func foldByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}
