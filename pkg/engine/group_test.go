package engine

import (
	"errors"
	"testing"

	"github.com/framewire/framewire/internal/testutil"
	"github.com/framewire/framewire/pkg/wire"
)

func TestGroup_FirstSeenOrder(t *testing.T) {
	df := testutil.MakePeopleFrame()

	g, err := Group(df, []string{"department"})
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if len(g.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(g.Groups))
	}
	// Engineering appears first in the data, then Marketing, then Sales.
	if rows := g.Groups[0]; len(rows) != 3 || rows[0] != 0 {
		t.Errorf("first group rows = %v", rows)
	}
	if rows := g.Groups[1]; len(rows) != 2 || rows[0] != 1 {
		t.Errorf("second group rows = %v", rows)
	}
}

func TestGroup_MultiKey(t *testing.T) {
	df := testutil.MakePeopleFrame()
	g, err := Group(df, []string{"department", "age"})
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	// Every (department, age) pair is distinct in the fixture.
	if len(g.Groups) != 7 {
		t.Errorf("expected 7 groups, got %d", len(g.Groups))
	}
}

func TestGroup_RequiresColumns(t *testing.T) {
	df := testutil.MakePeopleFrame()
	if _, err := Group(df, nil); err == nil {
		t.Error("Group with no keys should fail")
	}
	if _, err := Group(df, []string{"missing"}); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestGroup_NullsFormTheirOwnGroup(t *testing.T) {
	df := FromColumns(
		newStringSeries("k", []any{"a", nil, "a", nil}),
		newInt64Series("v", []any{int64(1), int64(2), int64(3), int64(4)}),
	)
	g, err := Group(df, []string{"k"})
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if len(g.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(g.Groups))
	}
	if rows := g.Groups[1]; len(rows) != 2 || rows[0] != 1 || rows[1] != 3 {
		t.Errorf("null group rows = %v", rows)
	}
}

func TestAggregate_MeanPerGroup(t *testing.T) {
	df := testutil.MakePeopleFrame()
	g, err := Group(df, []string{"department"})
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	out, err := g.Aggregate([]*Expr{
		{Op: wire.OpExprAlias, Name: "avg_salary", Left: unE(wire.OpExprMean, colE("salary"))},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if NumRows(out) != 3 {
		t.Fatalf("expected 3 rows, got %d", NumRows(out))
	}
	keys, _ := column(out, "department")
	means, _ := column(out, "avg_salary")
	want := map[string]float64{
		"Engineering": 61666.666667,
		"Marketing":   59000,
		"Sales":       53500,
	}
	for i := 0; i < 3; i++ {
		dept, _ := stringAt(keys, i)
		mean, _ := float64At(means, i)
		testutil.AssertFloat64Near(t, want[dept], mean, 0.001)
	}
}

func TestAggregate_MultipleExpressions(t *testing.T) {
	df := testutil.MakePeopleFrame()
	g, err := Group(df, []string{"department"})
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	out, err := g.Aggregate([]*Expr{
		unE(wire.OpExprCount, colE("name")),
		{Op: wire.OpExprAlias, Name: "top", Left: unE(wire.OpExprMax, colE("salary"))},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	names := ColumnNames(out)
	if len(names) != 3 || names[0] != "department" || names[1] != "name" || names[2] != "top" {
		t.Errorf("column layout = %v", names)
	}
	counts, _ := column(out, "name")
	if counts.Value(0) != int64(3) {
		t.Errorf("engineering count = %v", counts.Value(0))
	}
	tops, _ := column(out, "top")
	if tops.Value(0) != int64(70000) {
		t.Errorf("engineering max salary = %v", tops.Value(0))
	}
}

func TestAggregate_RejectsNonAggregations(t *testing.T) {
	df := testutil.MakePeopleFrame()
	g, err := Group(df, []string{"department"})
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	if _, err := g.Aggregate([]*Expr{colE("salary")}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := g.Aggregate(nil); err == nil {
		t.Error("Aggregate with no expressions should fail")
	}
}
