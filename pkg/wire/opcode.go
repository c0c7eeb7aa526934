// Package wire defines the operation encoding shared by hosts and the
// runtime: opcodes, per-opcode argument records, literal values, and the
// expression builders that produce flat postfix operation sequences.
package wire

// Opcode identifies one boundary operation.
//
// Dataframe opcodes occupy [1, 100), expression opcodes [100, 999).
// OpError is reserved for host-side construction failures that must be
// reported with a frame index at execute time.
type Opcode uint32

const (
	// ===== DataFrame operations (1-99) =====
	OpNewEmpty    Opcode = 1  // fresh empty table
	OpReadCSV     Opcode = 2  // load CSV file(s) (ReadCSVArgs)
	OpReadParquet Opcode = 3  // load Parquet file(s) (ReadParquetArgs)
	OpSelect      Opcode = 4  // project named columns (SelectArgs)
	OpSelectExpr  Opcode = 5  // project one evaluated expression
	OpCount       Opcode = 6  // one-row "count" table (CountArgs)
	OpConcat      Opcode = 7  // vertical concat, consumes handles (ConcatArgs)
	OpWithColumn  Opcode = 8  // add/replace one evaluated column
	OpFilterExpr  Opcode = 9  // keep rows where the expression is true
	OpGroupBy     Opcode = 10 // table -> grouped context (SelectArgs keys)
	OpAddNullRow  Opcode = 11 // append an all-null row
	OpCollect     Opcode = 12 // materialization marker
	OpAgg         Opcode = 13 // grouped -> table via pending aggregations (AggArgs)
	OpSort        Opcode = 14 // stable multi-key sort (SortArgs)
	OpLimit       Opcode = 15 // first n rows (LimitArgs)
	OpJoin        Opcode = 17 // join against another handle (JoinArgs)
	OpReadJSON    Opcode = 18 // load a JSON records file (ReadJSONArgs)

	// ===== Expression operations (100-139) =====
	OpExprColumn  Opcode = 100 // push column reference (ColumnArgs)
	OpExprLiteral Opcode = 101 // push literal (LiteralArgs)
	OpExprAdd     Opcode = 102
	OpExprSub     Opcode = 103
	OpExprMul     Opcode = 104
	OpExprDiv     Opcode = 105
	OpExprGt      Opcode = 106
	OpExprLt      Opcode = 107
	OpExprEq      Opcode = 108
	OpExprAnd     Opcode = 109
	OpExprOr      Opcode = 110
	OpExprNot     Opcode = 111
	OpExprSum     Opcode = 112
	OpExprMean    Opcode = 113
	OpExprMin     Opcode = 114
	OpExprMax     Opcode = 115
	OpExprStd     Opcode = 116 // AggStdArgs carries ddof
	OpExprVar     Opcode = 117 // AggStdArgs carries ddof
	OpExprMedian  Opcode = 118
	OpExprFirst   Opcode = 119
	OpExprLast    Opcode = 120
	OpExprNUnique Opcode = 121
	OpExprCount   Opcode = 122
	OpExprCountNulls Opcode = 123
	OpExprIsNull     Opcode = 124
	OpExprIsNotNull  Opcode = 125
	OpExprAlias      Opcode = 126 // AliasArgs
	OpExprStrLen     Opcode = 127
	OpExprStrContains   Opcode = 128 // PatternArgs
	OpExprStrStartsWith Opcode = 129 // PatternArgs
	OpExprStrEndsWith   Opcode = 130 // PatternArgs
	OpExprStrToLower    Opcode = 131
	OpExprStrToUpper    Opcode = 132
	OpExprStrReplace    Opcode = 134 // ReplaceArgs; 133 is retired
	OpExprCast          Opcode = 135 // CastArgs

	// ===== Window operations (140-145) =====
	OpExprOver      Opcode = 140 // apply window context to previous expression (WindowArgs)
	OpExprRank      Opcode = 141
	OpExprDenseRank Opcode = 142
	OpExprRowNumber Opcode = 143
	OpExprLag       Opcode = 144 // OffsetArgs
	OpExprLead      Opcode = 145 // OffsetArgs

	// OpError marks a host-side construction failure. It is never
	// executed; the runtime reports it as a decode error at its frame.
	OpError Opcode = 999
)

// IsExpression reports whether o belongs to the expression opcode range.
func (o Opcode) IsExpression() bool {
	return o >= 100 && o < OpError
}

// IsDataFrame reports whether o operates on the working table directly.
func (o Opcode) IsDataFrame() bool {
	return o >= 1 && o < 100
}

// String returns the string representation of an opcode.
func (o Opcode) String() string {
	switch o {
	// DataFrame operations
	case OpNewEmpty:
		return "NEW_EMPTY"
	case OpReadCSV:
		return "READ_CSV"
	case OpReadParquet:
		return "READ_PARQUET"
	case OpSelect:
		return "SELECT"
	case OpSelectExpr:
		return "SELECT_EXPR"
	case OpCount:
		return "COUNT"
	case OpConcat:
		return "CONCAT"
	case OpWithColumn:
		return "WITH_COLUMN"
	case OpFilterExpr:
		return "FILTER_EXPR"
	case OpGroupBy:
		return "GROUP_BY"
	case OpAddNullRow:
		return "ADD_NULL_ROW"
	case OpCollect:
		return "COLLECT"
	case OpAgg:
		return "AGG"
	case OpSort:
		return "SORT"
	case OpLimit:
		return "LIMIT"
	case OpJoin:
		return "JOIN"
	case OpReadJSON:
		return "READ_JSON"

	// Expression operations
	case OpExprColumn:
		return "EXPR_COLUMN"
	case OpExprLiteral:
		return "EXPR_LITERAL"
	case OpExprAdd:
		return "EXPR_ADD"
	case OpExprSub:
		return "EXPR_SUB"
	case OpExprMul:
		return "EXPR_MUL"
	case OpExprDiv:
		return "EXPR_DIV"
	case OpExprGt:
		return "EXPR_GT"
	case OpExprLt:
		return "EXPR_LT"
	case OpExprEq:
		return "EXPR_EQ"
	case OpExprAnd:
		return "EXPR_AND"
	case OpExprOr:
		return "EXPR_OR"
	case OpExprNot:
		return "EXPR_NOT"
	case OpExprSum:
		return "EXPR_SUM"
	case OpExprMean:
		return "EXPR_MEAN"
	case OpExprMin:
		return "EXPR_MIN"
	case OpExprMax:
		return "EXPR_MAX"
	case OpExprStd:
		return "EXPR_STD"
	case OpExprVar:
		return "EXPR_VAR"
	case OpExprMedian:
		return "EXPR_MEDIAN"
	case OpExprFirst:
		return "EXPR_FIRST"
	case OpExprLast:
		return "EXPR_LAST"
	case OpExprNUnique:
		return "EXPR_N_UNIQUE"
	case OpExprCount:
		return "EXPR_COUNT"
	case OpExprCountNulls:
		return "EXPR_COUNT_NULLS"
	case OpExprIsNull:
		return "EXPR_IS_NULL"
	case OpExprIsNotNull:
		return "EXPR_IS_NOT_NULL"
	case OpExprAlias:
		return "EXPR_ALIAS"
	case OpExprStrLen:
		return "EXPR_STR_LEN"
	case OpExprStrContains:
		return "EXPR_STR_CONTAINS"
	case OpExprStrStartsWith:
		return "EXPR_STR_STARTS_WITH"
	case OpExprStrEndsWith:
		return "EXPR_STR_ENDS_WITH"
	case OpExprStrToLower:
		return "EXPR_STR_TO_LOWER"
	case OpExprStrToUpper:
		return "EXPR_STR_TO_UPPER"
	case OpExprStrReplace:
		return "EXPR_STR_REPLACE"
	case OpExprCast:
		return "EXPR_CAST"

	// Window operations
	case OpExprOver:
		return "EXPR_OVER"
	case OpExprRank:
		return "EXPR_RANK"
	case OpExprDenseRank:
		return "EXPR_DENSE_RANK"
	case OpExprRowNumber:
		return "EXPR_ROW_NUMBER"
	case OpExprLag:
		return "EXPR_LAG"
	case OpExprLead:
		return "EXPR_LEAD"

	case OpError:
		return "ERROR"

	default:
		return "UNKNOWN"
	}
}
