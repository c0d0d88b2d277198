package types

import "github.com/dynscript/corec/pkg/ast"

// BinaryOpEntry is one entry of the binary-operator table (spec.md §3.1):
// (Kind, LeftType, RightType) -> (FuncName, ResultType, CanThrow).
type BinaryOpEntry struct {
	Op         ast.BinaryOp
	Left       *Type
	Right      *Type
	FuncName   string
	ResultType *Type
	CanThrow   bool
	soft       bool // true if either declared operand type is a SoftX type
}

func (r *Registry) installBinaryOperators() {
	t := r.builtins
	add := func(op ast.BinaryOp, l, rt Kind, fn string, result Kind, canThrow bool) {
		e := &BinaryOpEntry{
			Op: op, Left: t[l.String()], Right: t[rt.String()],
			FuncName: fn, ResultType: t[result.String()], CanThrow: canThrow,
			soft: l == KSoftInt || rt == KSoftInt || l == KSoftBool || rt == KSoftBool || l == KSoftString || rt == KSoftString,
		}
		r.binops = append(r.binops, e)
	}
	for _, arith := range []struct {
		op ast.BinaryOp
		fn string
	}{
		{ast.BinAdd, "add"}, {ast.BinSub, "sub"}, {ast.BinMul, "mul"}, {ast.BinDiv, "div"}, {ast.BinMod, "mod"},
	} {
		add(arith.op, KInt, KInt, "int"+arith.fn, KInt, arith.op == ast.BinDiv || arith.op == ast.BinMod)
		add(arith.op, KSoftInt, KSoftInt, "softInt"+arith.fn, KSoftInt, arith.op == ast.BinDiv || arith.op == ast.BinMod)
		add(arith.op, KFloat, KFloat, "float"+arith.fn, KFloat, false)
	}
	// String concatenation via '+': allocates a new heap string, so the
	// operator can throw (spec.md §8 Scenario 3).
	add(ast.BinAdd, KString, KString, "stringConcat", KString, true)
	add(ast.BinAdd, KSoftString, KSoftString, "softStringConcat", KSoftString, true)
	// Comparisons, typed and generic.
	for _, cmp := range []struct {
		op ast.BinaryOp
		fn string
	}{
		{ast.BinEq, "eq"}, {ast.BinNotEq, "ne"}, {ast.BinLess, "lt"}, {ast.BinLessEq, "le"}, {ast.BinGreater, "gt"}, {ast.BinGreaterEq, "ge"},
	} {
		add(cmp.op, KInt, KInt, "int"+cmp.fn, KBool, false)
		add(cmp.op, KFloat, KFloat, "float"+cmp.fn, KBool, false)
		add(cmp.op, KString, KString, "string"+cmp.fn, KBool, false)
		// Generic Any+Any dispatcher: a concrete entry whose function
		// performs runtime tag dispatch (spec.md §4.1 design note); it is
		// indistinguishable from a typed operator at IR level.
		add(cmp.op, KAny, KAny, "any"+cmp.fn, KBool, true)
	}
	add(ast.BinAdd, KAny, KAny, "anyAdd", KAny, true)
	add(ast.BinSub, KAny, KAny, "anySub", KAny, true)
	add(ast.BinMul, KAny, KAny, "anyMul", KAny, true)
	add(ast.BinDiv, KAny, KAny, "anyDiv", KAny, true)
}

// ambiguity is a diagnostic-carrying sentinel distinguishing "no operator"
// from "more than one equally-ranked operator".
type FindResult int

const (
	FindOK FindResult = iota
	FindNotFound
	FindAmbiguous
)

// opCandidate is one operator entry that accepts (left, right) after
// implicit conversions, ranked by FindBinaryOperator's tie-break rules.
type opCandidate struct {
	entry     *BinaryOpEntry
	leftConv  bool
	rightConv bool
	numConv   int
	nonSoft   bool
}

// FindBinaryOperator implements spec.md §4.1 findBinaryOperator, including
// the SPEC_FULL §4.1 rule (d): a tie remaining after rules (a)-(c) is an
// ambiguity diagnostic, never a silent pick.
func (r *Registry) FindBinaryOperator(op ast.BinaryOp, left, right *Type) (FindResult, *BinaryOpEntry) {
	var candidates []opCandidate
	for _, e := range r.binops {
		if e.Op != op {
			continue
		}
		lRes, _ := r.FindConversion(left, e.Left)
		if lRes == ConvFail {
			continue
		}
		rRes, _ := r.FindConversion(right, e.Right)
		if rRes == ConvFail {
			continue
		}
		n := 0
		if lRes == ConvFound {
			n++
		}
		if rRes == ConvFound {
			n++
		}
		candidates = append(candidates, opCandidate{
			entry:     e,
			leftConv:  lRes == ConvFound,
			rightConv: rRes == ConvFound,
			numConv:   n,
			nonSoft:   !e.soft,
		})
	}
	if len(candidates) == 0 {
		return FindNotFound, nil
	}
	if len(candidates) == 1 {
		return FindOK, candidates[0].entry
	}
	// (a) no conversions on either side preferred over one side converted.
	best := filterMinCandidates(candidates)
	if len(best) == 1 {
		return FindOK, best[0].entry
	}
	// (c) tighter (non-soft) parameter types preferred.
	tight := make([]opCandidate, 0, len(best))
	for _, c := range best {
		if c.nonSoft {
			tight = append(tight, c)
		}
	}
	if len(tight) == 1 {
		return FindOK, tight[0].entry
	}
	if len(tight) > 1 {
		best = tight
	}
	if len(best) == 1 {
		return FindOK, best[0].entry
	}
	// (d) still tied: ambiguous, diagnosed by the caller.
	return FindAmbiguous, nil
}

// filterMinCandidates keeps only the candidates with the fewest implicit
// conversions (spec.md §4.1 rules (a)/(b)).
func filterMinCandidates(cs []opCandidate) []opCandidate {
	min := -1
	for _, c := range cs {
		if min == -1 || c.numConv < min {
			min = c.numConv
		}
	}
	out := make([]opCandidate, 0, len(cs))
	for _, c := range cs {
		if c.numConv == min {
			out = append(out, c)
		}
	}
	return out
}
