package formula

import (
	"fmt"

	"github.com/iwvelando/finance-dashboard/pkg/period"
	"github.com/iwvelando/finance-dashboard/pkg/ratio"
	"github.com/iwvelando/finance-dashboard/pkg/table"
	"go.uber.org/zap"
)

// Result is the value of a row for one period.
//
// Raw rows without data contribute 0 to formula arithmetic; Missing names the
// raw rows that had no data so callers can tell an understated figure from a
// real one. Undefined is set when a ratio in the chain had a zero
// denominator (its value is then 0).
type Result struct {
	Value     float64
	Missing   []string
	Undefined bool
}

// Complete reports whether every raw input had data and every ratio was defined.
func (r Result) Complete() bool {
	return len(r.Missing) == 0 && !r.Undefined
}

// Evaluator computes rows for one table and period. Each row is computed at
// most once per Evaluator; create a new Evaluator for each request.
type Evaluator struct {
	logger   *zap.Logger
	registry *Registry
	table    *table.Table
	spec     period.Spec
	memo     map[string]Result
	computed int
}

// NewEvaluator returns an Evaluator over tbl for spec. A nil logger is
// replaced by a no-op logger and a nil registry by DefaultRegistry.
func NewEvaluator(logger *zap.Logger, registry *Registry, tbl *table.Table, spec period.Spec) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Evaluator{
		logger:   logger,
		registry: registry,
		table:    tbl,
		spec:     spec,
		memo:     make(map[string]Result),
	}
}

// Evaluate computes the calculated row called name.
func (e *Evaluator) Evaluate(name string) (Result, error) {
	if !e.registry.IsFormula(name) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFormula, name)
	}
	return e.Row(name)
}

// Row computes name whether it is a calculated or a raw row.
func (e *Evaluator) Row(name string) (Result, error) {
	k := key(name)
	if r, ok := e.memo[k]; ok {
		return r, nil
	}

	f, isFormula := e.registry.Lookup(name)
	if !isFormula {
		sum, err := table.SumEntity(e.table, name, e.spec)
		if err != nil {
			return Result{}, fmt.Errorf("failed to sum row %q: %w", name, err)
		}
		r := Result{Value: sum.Value}
		if !sum.Found {
			r.Missing = []string{name}
		}
		e.memo[k] = r
		return r, nil
	}

	r, err := e.compute(f)
	if err != nil {
		return Result{}, err
	}
	e.computed++
	e.memo[k] = r
	e.logger.Debug("formula evaluated",
		zap.String("op", "formula.Evaluate"),
		zap.String("formula", f.Name),
		zap.String("period", period.DisplayName(e.spec)),
		zap.Float64("value", r.Value),
		zap.Strings("missing", r.Missing),
	)
	return r, nil
}

func (e *Evaluator) compute(f Formula) (Result, error) {
	values := make([]float64, len(f.Terms))
	var out Result
	for i, term := range f.Terms {
		in, err := e.Row(term.Row)
		if err != nil {
			return Result{}, fmt.Errorf("formula %q: %w", f.Name, err)
		}
		values[i] = in.Value
		out.Missing = mergeMissing(out.Missing, in.Missing)
		out.Undefined = out.Undefined || in.Undefined
	}

	switch f.Op {
	case OpSum:
		for i, term := range f.Terms {
			out.Value += term.Sign * values[i]
		}
	case OpPercent:
		v, ok := ratio.PercentOfBase(values[0], values[1])
		out.Value = v
		out.Undefined = out.Undefined || !ok
	case OpPerUnit:
		v, ok := ratio.PerUnit(values[0], values[1])
		out.Value = v
		out.Undefined = out.Undefined || !ok
	}
	return out, nil
}

func mergeMissing(into, from []string) []string {
	for _, name := range from {
		dup := false
		for _, existing := range into {
			if key(existing) == key(name) {
				dup = true
				break
			}
		}
		if !dup {
			into = append(into, name)
		}
	}
	return into
}

// Computations returns how many formulas this Evaluator has computed.
func (e *Evaluator) Computations() int {
	return e.computed
}

// Evaluate computes the calculated row name of registry over tbl for spec.
func Evaluate(registry *Registry, name string, tbl *table.Table, spec period.Spec) (float64, error) {
	r, err := NewEvaluator(nil, registry, tbl, spec).Evaluate(name)
	if err != nil {
		return 0, err
	}
	return r.Value, nil
}
