package wire

import (
	"errors"
	"fmt"
)

// LiteralKind tags which variant of a Literal is populated. The tag is
// authoritative: decoders must not inspect the other fields.
type LiteralKind uint32

const (
	LiteralInt64 LiteralKind = iota
	LiteralFloat64
	LiteralString
	LiteralBool
)

// ErrUnknownLiteralKind is returned when a literal carries a kind tag
// outside the closed enumeration.
var ErrUnknownLiteralKind = errors.New("unknown literal kind")

// String returns the string representation of a literal kind.
func (k LiteralKind) String() string {
	switch k {
	case LiteralInt64:
		return "int64"
	case LiteralFloat64:
		return "float64"
	case LiteralString:
		return "string"
	case LiteralBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Literal is the tagged scalar union carried by OpExprLiteral.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// IntLit, FloatLit, StringLit, and BoolLit construct tagged literals.
func IntLit(v int64) Literal     { return Literal{Kind: LiteralInt64, Int: v} }
func FloatLit(v float64) Literal { return Literal{Kind: LiteralFloat64, Float: v} }
func StringLit(v string) Literal { return Literal{Kind: LiteralString, Str: v} }
func BoolLit(v bool) Literal     { return Literal{Kind: LiteralBool, Bool: v} }

// Value decodes the literal into its Go representation, selecting the
// variant named by the kind tag.
func (l Literal) Value() (any, error) {
	switch l.Kind {
	case LiteralInt64:
		return l.Int, nil
	case LiteralFloat64:
		return l.Float, nil
	case LiteralString:
		return l.Str, nil
	case LiteralBool:
		return l.Bool, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownLiteralKind, l.Kind)
	}
}

// String renders the literal for diagnostics.
func (l Literal) String() string {
	v, err := l.Value()
	if err != nil {
		return fmt.Sprintf("literal(kind=%d)", l.Kind)
	}
	return fmt.Sprintf("%v", v)
}

// TypeFamily is the high-order half of a ColumnType code.
type TypeFamily uint16

const (
	FamilyInt TypeFamily = iota
	FamilyFloat
	FamilyString
	FamilyTemporal
	FamilyBool
)

// ColumnType is a bit-packed scalar type code: the high 16 bits select the
// family and the low 16 bits the variant (bit width for numerics).
type ColumnType uint32

const (
	TypeInt64   = ColumnType(uint32(FamilyInt)<<16 | 64)
	TypeFloat64 = ColumnType(uint32(FamilyFloat)<<16 | 64)
	TypeString  = ColumnType(uint32(FamilyString) << 16)
	TypeBool    = ColumnType(uint32(FamilyBool) << 16)
)

// ErrUnknownColumnType is returned for codes outside the closed family set.
var ErrUnknownColumnType = errors.New("unknown column type")

// Family extracts the type family from the packed code.
func (t ColumnType) Family() TypeFamily {
	return TypeFamily(t >> 16)
}

// Variant extracts the low-order variant bits (bit width for numerics).
func (t ColumnType) Variant() uint16 {
	return uint16(t & 0xFFFF)
}

// Validate rejects codes whose family is not part of the enumeration.
func (t ColumnType) Validate() error {
	switch t.Family() {
	case FamilyInt, FamilyFloat, FamilyString, FamilyTemporal, FamilyBool:
		return nil
	default:
		return fmt.Errorf("%w: family %d", ErrUnknownColumnType, t.Family())
	}
}

// String returns the string representation of a column type.
func (t ColumnType) String() string {
	switch t.Family() {
	case FamilyInt:
		return fmt.Sprintf("int%d", t.Variant())
	case FamilyFloat:
		return fmt.Sprintf("float%d", t.Variant())
	case FamilyString:
		return "string"
	case FamilyTemporal:
		return "temporal"
	case FamilyBool:
		return "bool"
	default:
		return fmt.Sprintf("type(0x%08x)", uint32(t))
	}
}
