package exec

import (
	"fmt"

	"github.com/framewire/framewire/pkg/engine"
	"github.com/framewire/framewire/pkg/wire"
)

// exprStack assembles postfix expression operations into trees. Leaf
// opcodes push one node, unary opcodes pop one and push one, binary opcodes
// pop two (right operand first) and push one.
type exprStack struct {
	nodes []*engine.Expr
}

func (s *exprStack) push(e *engine.Expr) {
	s.nodes = append(s.nodes, e)
}

func (s *exprStack) pop(op wire.Opcode, need int) (*engine.Expr, error) {
	if len(s.nodes) == 0 {
		return nil, fmt.Errorf("%w: not enough operands for %s: need %d, have %d",
			ErrStackImbalance, op, need, len(s.nodes))
	}
	e := s.nodes[len(s.nodes)-1]
	s.nodes = s.nodes[:len(s.nodes)-1]
	return e, nil
}

func (s *exprStack) depth() int {
	return len(s.nodes)
}

// takeOne finishes one expression sequence: exactly one tree must be on the
// stack.
func (s *exprStack) takeOne() (*engine.Expr, error) {
	if len(s.nodes) != 1 {
		return nil, fmt.Errorf("%w: expression left %d values on the stack, expected exactly one",
			ErrStackImbalance, len(s.nodes))
	}
	e := s.nodes[0]
	s.nodes = s.nodes[:0]
	return e, nil
}

// takeAll drains the stack, returning the finished trees in push order.
func (s *exprStack) takeAll() []*engine.Expr {
	out := s.nodes
	s.nodes = nil
	return out
}

// apply executes one expression opcode against the stack.
func (s *exprStack) apply(op wire.Operation) error {
	switch op.Opcode {
	case wire.OpExprColumn:
		args, err := wire.ArgsAs[wire.ColumnArgs](op)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Name: args.Name})
		return nil

	case wire.OpExprLiteral:
		args, err := wire.ArgsAs[wire.LiteralArgs](op)
		if err != nil {
			return err
		}
		// Reject unknown kind tags before the literal reaches the engine.
		if _, err := args.Literal.Value(); err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Lit: args.Literal})
		return nil

	case wire.OpExprRank, wire.OpExprDenseRank, wire.OpExprRowNumber:
		s.push(&engine.Expr{Op: op.Opcode})
		return nil

	case wire.OpExprAdd, wire.OpExprSub, wire.OpExprMul, wire.OpExprDiv,
		wire.OpExprGt, wire.OpExprLt, wire.OpExprEq,
		wire.OpExprAnd, wire.OpExprOr:
		right, err := s.pop(op.Opcode, 2)
		if err != nil {
			return err
		}
		left, err := s.pop(op.Opcode, 2)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: left, Right: right})
		return nil

	case wire.OpExprNot, wire.OpExprIsNull, wire.OpExprIsNotNull,
		wire.OpExprSum, wire.OpExprMean, wire.OpExprMin, wire.OpExprMax,
		wire.OpExprMedian, wire.OpExprFirst, wire.OpExprLast,
		wire.OpExprNUnique, wire.OpExprCount, wire.OpExprCountNulls,
		wire.OpExprStrLen, wire.OpExprStrToLower, wire.OpExprStrToUpper:
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in})
		return nil

	case wire.OpExprStd, wire.OpExprVar:
		args, err := wire.ArgsAs[wire.AggStdArgs](op)
		if err != nil {
			return err
		}
		if args.DDOF > 1 {
			return fmt.Errorf("%w: ddof must be 0 (population) or 1 (sample)", wire.ErrBadArgs)
		}
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in, DDOF: args.DDOF})
		return nil

	case wire.OpExprAlias:
		args, err := wire.ArgsAs[wire.AliasArgs](op)
		if err != nil {
			return err
		}
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in, Name: args.Name})
		return nil

	case wire.OpExprStrContains, wire.OpExprStrStartsWith, wire.OpExprStrEndsWith:
		args, err := wire.ArgsAs[wire.PatternArgs](op)
		if err != nil {
			return err
		}
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in, Pattern: args.Pattern})
		return nil

	case wire.OpExprStrReplace:
		args, err := wire.ArgsAs[wire.ReplaceArgs](op)
		if err != nil {
			return err
		}
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in, OldStr: args.Old, NewStr: args.New})
		return nil

	case wire.OpExprCast:
		args, err := wire.ArgsAs[wire.CastArgs](op)
		if err != nil {
			return err
		}
		if err := args.Type.Validate(); err != nil {
			return err
		}
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in, Type: args.Type})
		return nil

	case wire.OpExprOver:
		args, err := wire.ArgsAs[wire.WindowArgs](op)
		if err != nil {
			return err
		}
		if len(args.Partition) == 0 {
			return fmt.Errorf("%w: Over() requires at least one partition column", wire.ErrBadArgs)
		}
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in, Partition: args.Partition, Order: args.Order})
		return nil

	case wire.OpExprLag, wire.OpExprLead:
		args, err := wire.ArgsAs[wire.OffsetArgs](op)
		if err != nil {
			return err
		}
		in, err := s.pop(op.Opcode, 1)
		if err != nil {
			return err
		}
		s.push(&engine.Expr{Op: op.Opcode, Left: in, Offset: args.Offset})
		return nil

	default:
		return fmt.Errorf("%w: expression opcode %d", ErrUnknownOpcode, op.Opcode)
	}
}
