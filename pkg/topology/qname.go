package topology

import (
	"fmt"
	"strings"
)

// QName is a namespaced name, written as "{namespace}local".
type QName struct {
	Namespace string
	Local     string
}

// NewQName creates a QName.
func NewQName(namespace, local string) QName {
	return QName{Namespace: namespace, Local: local}
}

// ParseQName parses "{namespace}local" or a bare "local".
func ParseQName(s string) (QName, error) {
	if s == "" {
		return QName{}, nil
	}
	if !strings.HasPrefix(s, "{") {
		return QName{Local: s}, nil
	}
	end := strings.IndexByte(s, '}')
	if end < 0 || end == len(s)-1 {
		return QName{}, fmt.Errorf("%w: %q", ErrInvalidQName, s)
	}
	return QName{Namespace: s[1:end], Local: s[end+1:]}, nil
}

// MustParseQName is ParseQName for literals; it panics on malformed input.
func MustParseQName(s string) QName {
	q, err := ParseQName(s)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the "{namespace}local" form.
func (q QName) String() string {
	if q.Namespace == "" {
		return q.Local
	}
	return "{" + q.Namespace + "}" + q.Local
}

// IsZero reports whether q is unset.
func (q QName) IsZero() bool {
	return q.Namespace == "" && q.Local == ""
}

// MarshalText writes the "{namespace}local" form, so QNames work as YAML
// scalars and JSON map keys.
func (q QName) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText parses the "{namespace}local" form.
func (q *QName) UnmarshalText(text []byte) error {
	parsed, err := ParseQName(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
