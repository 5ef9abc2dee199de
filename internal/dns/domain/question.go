package domain

import "fmt"

// Question is one entry of the question section. The (name, type, class)
// triple identifies a cache entry.
type Question struct {
	Name  Name
	Type  RRType
	Class RRClass
}

// QuestionKey is the comparable form of a Question used as a map key. Names
// are folded to lower case, so "Example.COM" and "example.com" share a key.
type QuestionKey struct {
	Name  string
	Type  RRType
	Class RRClass
}

// NewQuestion parses a presentation-format name into a Question.
func NewQuestion(name string, rrtype RRType, class RRClass) (Question, error) {
	n, err := ParseName(name)
	if err != nil {
		return Question{}, fmt.Errorf("invalid question name: %w", err)
	}
	return Question{Name: n, Type: rrtype, Class: class}, nil
}

// Key returns the cache key for q.
func (q Question) Key() QuestionKey {
	return QuestionKey{Name: q.Name.Lower().Key(), Type: q.Type, Class: q.Class}
}

// Equal reports whether two questions are structurally identical.
func (q Question) Equal(o Question) bool {
	return q.Type == o.Type && q.Class == o.Class && q.Name.Equal(o.Name)
}

func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", q.Name, q.Class, q.Type)
}
