// Package routing provides the condition tree used to classify records
// against pipeline stage boundaries.
//
// A Condition is a closed, immutable, recursive predicate over a record:
// record-type equality, metadata existence/equality/regex, and the boolean
// combinators And/Or/Not plus the Always/Never constants. Evaluation is
// total — no condition ever panics or returns an error, even for a
// syntactically invalid regex pattern.
package routing

// Kind identifies which variant of the closed Condition set a node is.
// Implementers should avoid open polymorphism here: the set is closed to
// these nine kinds.
type Kind int

const (
	KindRecordType Kind = iota
	KindMetadataMatch
	KindMetadataExists
	KindMetadataEquals
	KindAnd
	KindOr
	KindNot
	KindAlways
	KindNever
)

// Condition is an immutable node in the predicate tree. Only the fields
// relevant to Kind are populated; zero values elsewhere are ignored.
type Condition struct {
	Kind Kind

	// RecordType / MetadataExists / MetadataMatch.Key / MetadataEquals.Key
	RecordType string
	Key        string
	Value      string // MetadataEquals value, or MetadataMatch pattern
	Children   []*Condition
	Child      *Condition // Not
}

// RecordType matches when the record's type tag equals t exactly.
func RecordType(t string) *Condition {
	return &Condition{Kind: KindRecordType, RecordType: t}
}

// MetadataExists matches when key is present in the record's metadata.
func MetadataExists(key string) *Condition {
	return &Condition{Kind: KindMetadataExists, Key: key}
}

// MetadataEquals matches when key is present and its value equals v exactly.
func MetadataEquals(key, v string) *Condition {
	return &Condition{Kind: KindMetadataEquals, Key: key, Value: v}
}

// MetadataMatch matches when key is present and its value contains a
// substring match (not anchored) for the regex pattern.
func MetadataMatch(key, pattern string) *Condition {
	return &Condition{Kind: KindMetadataMatch, Key: key, Value: pattern}
}

// And matches when every child matches. And() with no children is true.
func And(children ...*Condition) *Condition {
	return &Condition{Kind: KindAnd, Children: children}
}

// Or matches when any child matches. Or() with no children is false.
func Or(children ...*Condition) *Condition {
	return &Condition{Kind: KindOr, Children: children}
}

// Not inverts its child.
func Not(child *Condition) *Condition {
	return &Condition{Kind: KindNot, Child: child}
}

// Always never fails to match.
var Always = &Condition{Kind: KindAlways}

// Never never matches.
var Never = &Condition{Kind: KindNever}
