package entities

import (
	"fmt"
	"regexp"
)

// StrategyKind identifies how a SelectorStrategy finds candidates
type StrategyKind string

const (
	StrategyRole        StrategyKind = "role"
	StrategyPlaceholder StrategyKind = "placeholder"
	StrategyLabel       StrategyKind = "label"
	StrategyText        StrategyKind = "text"
	StrategyStructure   StrategyKind = "structure"
)

// SelectorStrategy is one heuristic for finding an element through user-facing attributes.
// Pattern is used by every kind except structure, which uses Selector.
// Index picks the Nth visible candidate this strategy resolves to.
type SelectorStrategy struct {
	Kind     StrategyKind   `json:"kind"`
	Role     string         `json:"role,omitempty"`
	Pattern  *regexp.Regexp `json:"-"`
	Selector string         `json:"selector,omitempty"`
	Index    int            `json:"index,omitempty"`
}

// ByRole matches elements with the given ARIA role whose accessible name matches pattern.
func ByRole(role, pattern string) SelectorStrategy {
	return SelectorStrategy{Kind: StrategyRole, Role: role, Pattern: caseInsensitive(pattern)}
}

// ByPlaceholder matches inputs whose placeholder matches pattern.
func ByPlaceholder(pattern string) SelectorStrategy {
	return SelectorStrategy{Kind: StrategyPlaceholder, Pattern: caseInsensitive(pattern)}
}

// ByLabel matches form controls whose label matches pattern.
func ByLabel(pattern string) SelectorStrategy {
	return SelectorStrategy{Kind: StrategyLabel, Pattern: caseInsensitive(pattern)}
}

// ByText matches elements whose visible text matches pattern.
func ByText(pattern string) SelectorStrategy {
	return SelectorStrategy{Kind: StrategyText, Pattern: caseInsensitive(pattern)}
}

// ByStructure matches a raw CSS selector. Last resort only.
func ByStructure(selector string) SelectorStrategy {
	return SelectorStrategy{Kind: StrategyStructure, Selector: selector}
}

// Nth returns a copy of the strategy selecting its nth visible candidate.
func (s SelectorStrategy) Nth(n int) SelectorStrategy {
	s.Index = n
	return s
}

// Matches reports whether s satisfies the strategy's pattern. A nil pattern matches anything.
func (s SelectorStrategy) Matches(v string) bool {
	if s.Pattern == nil {
		return true
	}
	return s.Pattern.MatchString(v)
}

func (s SelectorStrategy) String() string {
	var desc string
	switch s.Kind {
	case StrategyStructure:
		desc = fmt.Sprintf("structure(%s)", s.Selector)
	case StrategyRole:
		desc = fmt.Sprintf("role(%s, %s)", s.Role, patternString(s.Pattern))
	default:
		desc = fmt.Sprintf("%s(%s)", s.Kind, patternString(s.Pattern))
	}
	if s.Index > 0 {
		desc += fmt.Sprintf(".nth(%d)", s.Index)
	}
	return desc
}

// FieldDescriptor names a logical field and the ordered strategies that can find it.
type FieldDescriptor struct {
	Name       string             `json:"name"`
	Strategies []SelectorStrategy `json:"strategies"`
}

// Field builds a descriptor using the first visible candidate.
func Field(name string, strategies ...SelectorStrategy) FieldDescriptor {
	return FieldDescriptor{Name: name, Strategies: strategies}
}

// Nth returns a copy of the descriptor where every strategy selects its nth visible candidate.
func (f FieldDescriptor) Nth(n int) FieldDescriptor {
	strategies := make([]SelectorStrategy, len(f.Strategies))
	for i, s := range f.Strategies {
		strategies[i] = s.Nth(n)
	}
	f.Strategies = strategies
	return f
}

// Validate checks the descriptor invariant.
func (f FieldDescriptor) Validate() error {
	if len(f.Strategies) == 0 {
		return fmt.Errorf("field %q has no selector strategies", f.Name)
	}
	for _, s := range f.Strategies {
		if s.Index < 0 {
			return fmt.Errorf("field %q has negative index %d for %s", f.Name, s.Index, s)
		}
	}
	return nil
}

func caseInsensitive(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + pattern)
}

func patternString(re *regexp.Regexp) string {
	if re == nil {
		return "*"
	}
	return re.String()
}
