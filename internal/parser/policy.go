package parser

import (
	"strings"

	"github.com/nlstn/go-cql/internal/diag"
)

// BoolKind is the semantic kind of a boolean operator.
type BoolKind int

const (
	BoolAnd BoolKind = iota
	BoolOr
	BoolNot
	BoolProx
)

func (k BoolKind) String() string {
	switch k {
	case BoolAnd:
		return "AND"
	case BoolOr:
		return "OR"
	case BoolNot:
		return "NOT"
	case BoolProx:
		return "PROX"
	}
	return "UNKNOWN"
}

// PolicyKind selects how a relation or boolean operator treats modifiers.
type PolicyKind int

const (
	// PolicyUnsupported rejects every use of the operator.
	PolicyUnsupported PolicyKind = iota
	// PolicyNoModifiers accepts the operator without modifiers.
	PolicyNoModifiers
	// PolicyFlagsOnly accepts flag modifiers from Allowed, at most one when Exclusive is set.
	PolicyFlagsOnly
	// PolicyCustom delegates to Check.
	PolicyCustom
)

// Policy validates the use of a relation or boolean operator with a set of modifiers.
type Policy struct {
	Kind      PolicyKind
	Allowed   []string
	Exclusive bool
	// Check returns a diagnostic without position, or nil to accept.
	Check func(Modifiers) *diag.Error
}

// BooleanOp describes a boolean operator: its semantic kind and modifier policy.
type BooleanOp struct {
	Kind   BoolKind
	Policy Policy
}

// Unsupported is the policy of operators that are recognised but never accepted.
var Unsupported = Policy{Kind: PolicyUnsupported}

// NoModifiers is the policy of operators that accept no modifiers.
var NoModifiers = Policy{Kind: PolicyNoModifiers}

// FlagsOnly returns a policy accepting the named flag modifiers.
func FlagsOnly(exclusive bool, allowed ...string) Policy {
	return Policy{Kind: PolicyFlagsOnly, Allowed: allowed, Exclusive: exclusive}
}

// Custom returns a policy delegating to check.
func Custom(check func(Modifiers) *diag.Error) Policy {
	return Policy{Kind: PolicyCustom, Check: check}
}

// policyCodes are the diagnostics a policy reports in one operator context.
type policyCodes struct {
	unsupported diag.Code
	modifier    diag.Code
	combination diag.Code
}

var (
	relationCodes = policyCodes{
		unsupported: diag.UnsupportedRelation,
		modifier:    diag.UnsupportedRelationModifier,
		combination: diag.UnsupportedCombinationOfRelationModifiers,
	}
	booleanCodes = policyCodes{
		unsupported: diag.UnsupportedBooleanOperator,
		modifier:    diag.UnsupportedBooleanModifier,
		combination: diag.UnsupportedBooleanModifier,
	}
)

// validate applies the policy to op used with mods. Returned errors carry no position.
func (p Policy) validate(op string, mods Modifiers, codes policyCodes) *diag.Error {
	switch p.Kind {
	case PolicyUnsupported:
		return diag.New(codes.unsupported, 0, "%s", op)
	case PolicyNoModifiers:
		if len(mods) > 0 {
			return diag.New(codes.modifier, 0, "%s is not supported for %s", mods.Names()[0], op)
		}
		return nil
	case PolicyFlagsOnly:
		for _, name := range mods.Names() {
			if !containsFold(p.Allowed, name) {
				return diag.New(codes.modifier, 0, "%s is not supported for %s", name, op)
			}
			if !mods[name].IsFlag() {
				return diag.New(codes.modifier, 0, "%s does not take a value", name)
			}
		}
		if p.Exclusive && len(mods) > 1 {
			return diag.New(codes.combination, 0, "%s cannot be combined for %s", strings.Join(mods.Names(), ", "), op)
		}
		return nil
	case PolicyCustom:
		if p.Check == nil {
			return nil
		}
		return p.Check(mods)
	}
	return diag.New(codes.unsupported, 0, "%s", op)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// DefaultRelations returns the relation table used when the caller supplies none.
func DefaultRelations() map[string]Policy {
	return map[string]Policy{
		"adj":      NoModifiers,
		"any":      NoModifiers,
		"all":      NoModifiers,
		"=":        FlagsOnly(true, "word", "string"),
		">":        NoModifiers,
		"<":        NoModifiers,
		">=":       NoModifiers,
		"<=":       NoModifiers,
		"<>":       Unsupported,
		"==":       Unsupported,
		"prox":     Unsupported,
		"encloses": Unsupported,
		"within":   Unsupported,
	}
}

// DefaultBooleans returns the boolean operator table used when the caller supplies none.
func DefaultBooleans() map[string]BooleanOp {
	return map[string]BooleanOp{
		"and":  {Kind: BoolAnd, Policy: NoModifiers},
		"or":   {Kind: BoolOr, Policy: NoModifiers},
		"not":  {Kind: BoolNot, Policy: NoModifiers},
		"prox": {Kind: BoolProx, Policy: Unsupported},
	}
}
