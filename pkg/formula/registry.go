// Package formula evaluates calculated P&L rows, each defined as arithmetic
// over raw ledger rows or other calculated rows, against one period.
package formula

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycle is returned when formulas depend on each other in a loop.
	ErrCycle = errors.New("formula dependency cycle")

	// ErrUnknownFormula is returned when a name is not a registered formula.
	ErrUnknownFormula = errors.New("unknown formula")
)

// Op is the arithmetic a formula applies to its terms.
type Op int

const (
	// OpSum adds its signed terms: A−B, A+B+C+D, ...
	OpSum Op = iota
	// OpPercent is terms[0] / terms[1] × 100.
	OpPercent
	// OpPerUnit is terms[0] / terms[1].
	OpPerUnit
)

func (o Op) String() string {
	switch o {
	case OpSum:
		return "sum"
	case OpPercent:
		return "percent"
	case OpPerUnit:
		return "per-unit"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Term references a raw row or another formula. Sign only applies to OpSum,
// where it must be 1 or -1.
type Term struct {
	Row  string
	Sign float64
}

// Plus adds row.
func Plus(row string) Term { return Term{Row: row, Sign: 1} }

// Minus subtracts row.
func Minus(row string) Term { return Term{Row: row, Sign: -1} }

// Formula is a named calculated row.
type Formula struct {
	Name  string
	Op    Op
	Terms []Term
}

// Sum defines name as the signed sum of terms.
func Sum(name string, terms ...Term) Formula {
	return Formula{Name: name, Op: OpSum, Terms: terms}
}

// Percent defines name as numerator as a percentage of denominator.
func Percent(name, numerator, denominator string) Formula {
	return Formula{Name: name, Op: OpPercent, Terms: []Term{Plus(numerator), Plus(denominator)}}
}

// PerUnit defines name as value divided by unit.
func PerUnit(name, value, unit string) Formula {
	return Formula{Name: name, Op: OpPerUnit, Terms: []Term{Plus(value), Plus(unit)}}
}

// Inputs returns the rows f reads.
func (f Formula) Inputs() []string {
	inputs := make([]string, len(f.Terms))
	for i, term := range f.Terms {
		inputs[i] = term.Row
	}
	return inputs
}

// Registry is an immutable, validated set of formulas.
type Registry struct {
	formulas map[string]Formula
	order    []string
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewRegistry validates formulas and orders them so every formula comes after
// the formulas it depends on. Names are matched case-insensitively.
func NewRegistry(formulas ...Formula) (*Registry, error) {
	r := &Registry{formulas: make(map[string]Formula, len(formulas))}
	for _, f := range formulas {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("formula with empty name")
		}
		if _, dup := r.formulas[key(f.Name)]; dup {
			return nil, fmt.Errorf("duplicate formula %q", f.Name)
		}
		switch f.Op {
		case OpSum:
			if len(f.Terms) == 0 {
				return nil, fmt.Errorf("formula %q has no terms", f.Name)
			}
		case OpPercent, OpPerUnit:
			if len(f.Terms) != 2 {
				return nil, fmt.Errorf("formula %q: %s needs exactly 2 terms, got %d", f.Name, f.Op, len(f.Terms))
			}
		default:
			return nil, fmt.Errorf("formula %q: unsupported %s", f.Name, f.Op)
		}
		for _, term := range f.Terms {
			if strings.TrimSpace(term.Row) == "" {
				return nil, fmt.Errorf("formula %q has a term with an empty row", f.Name)
			}
			if f.Op == OpSum && term.Sign != 1 && term.Sign != -1 {
				return nil, fmt.Errorf("formula %q: term %q has sign %v, expected 1 or -1", f.Name, term.Row, term.Sign)
			}
		}
		r.formulas[key(f.Name)] = f
	}

	order, err := r.topologicalOrder(formulas)
	if err != nil {
		return nil, err
	}
	r.order = order
	return r, nil
}

const (
	unvisited = iota
	visiting
	done
)

func (r *Registry) topologicalOrder(formulas []Formula) ([]string, error) {
	state := make(map[string]int, len(formulas))
	order := make([]string, 0, len(formulas))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		k := key(name)
		f, ok := r.formulas[k]
		if !ok {
			return nil // raw row
		}
		switch state[k] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(path, f.Name), " -> "))
		}
		state[k] = visiting
		next := append(append([]string(nil), path...), f.Name)
		for _, input := range f.Inputs() {
			if err := visit(input, next); err != nil {
				return err
			}
		}
		state[k] = done
		order = append(order, f.Name)
		return nil
	}

	for _, f := range formulas {
		if err := visit(f.Name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Lookup returns the formula called name.
func (r *Registry) Lookup(name string) (Formula, bool) {
	f, ok := r.formulas[key(name)]
	return f, ok
}

// IsFormula reports whether name is a calculated row.
func (r *Registry) IsFormula(name string) bool {
	_, ok := r.formulas[key(name)]
	return ok
}

// Names returns formula names in dependency order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// RawInputs returns the raw rows (non-formulas) read by any formula, in
// dependency order of first use.
func (r *Registry) RawInputs() []string {
	seen := make(map[string]bool)
	var raw []string
	for _, name := range r.order {
		for _, input := range r.formulas[key(name)].Inputs() {
			if r.IsFormula(input) || seen[key(input)] {
				continue
			}
			seen[key(input)] = true
			raw = append(raw, input)
		}
	}
	return raw
}

// Dependents returns every formula that reads row directly or transitively,
// in dependency order.
func (r *Registry) Dependents(row string) []string {
	affected := map[string]bool{key(row): true}
	var out []string
	for _, name := range r.order {
		for _, input := range r.formulas[key(name)].Inputs() {
			if affected[key(input)] {
				affected[key(name)] = true
				out = append(out, name)
				break
			}
		}
	}
	return out
}
