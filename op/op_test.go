package op

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nickyhof/relq/core"
	"github.com/nickyhof/relq/ql"
)

func mustRelation(t testing.TB, line string) *core.Relation {
	t.Helper()
	relation, err := ql.ParseRelation(line)
	if err != nil {
		t.Fatalf("Failed to parse relation: %v", err)
	}
	return relation
}

func mustCondition(t testing.TB, source string) *ql.Condition {
	t.Helper()
	condition, err := ql.ParseCondition(source)
	if err != nil {
		t.Fatalf("Failed to parse condition: %v", err)
	}
	return condition
}

func assertData(t *testing.T, relation *core.Relation, expected [][]string) {
	t.Helper()
	data := relation.Data()
	if len(data) == 0 && len(expected) == 0 {
		return
	}
	if !reflect.DeepEqual(data, expected) {
		t.Errorf("Expected %v, got %v", expected, data)
	}
}

const empDefinition = "Emp(id, name, age) = {1, Alice, 30; 2, Bob, 25}"

func TestSelect(t *testing.T) {
	emp := mustRelation(t, empDefinition)

	result, err := Select(emp, mustCondition(t, "age > 27"))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	assertData(t, result, [][]string{{"1", "Alice", "30"}})
	if !reflect.DeepEqual(result.ColumnNames(), emp.ColumnNames()) {
		t.Errorf("Selection must keep columns, got %v", result.ColumnNames())
	}
	if emp.Len() != 2 {
		t.Errorf("Select must not modify its operand")
	}
}

func TestSelectSubset(t *testing.T) {
	emp := mustRelation(t, empDefinition)
	conditions := []string{"age > 0", "age > 100", "name == 'Bob'", "id in [1, 2]", "false"}

	for _, source := range conditions {
		t.Run(source, func(t *testing.T) {
			result, err := Select(emp, mustCondition(t, source))
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			keys := emp.Keys()
			for _, row := range result.Rows {
				if _, ok := keys[row.Key()]; !ok {
					t.Errorf("Row %v is not a row of the operand", row)
				}
			}
		})
	}
}

func TestSelectErrors(t *testing.T) {
	emp := mustRelation(t, empDefinition)

	_, err := Select(emp, mustCondition(t, "salary > 1"))
	var notFound *core.ColumnNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Expected ColumnNotFoundError, got %v", err)
	}

	_, err = Select(emp, mustCondition(t, "name > 1"))
	var condErr *core.ConditionError
	if !errors.As(err, &condErr) {
		t.Errorf("Expected ConditionError, got %v", err)
	}
}

func TestSelectRowFunc(t *testing.T) {
	emp := mustRelation(t, empDefinition)
	result, err := Select(emp, RowFunc(func(row core.Row) bool { return row[1].Text == "Bob" }))
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	assertData(t, result, [][]string{{"2", "Bob", "25"}})
}

func TestProject(t *testing.T) {
	emp := mustRelation(t, empDefinition)
	result, err := Project(emp, []string{"name"})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	assertData(t, result, [][]string{{"Alice"}, {"Bob"}})

	reordered, err := Project(emp, []string{"age", "id"})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if !reflect.DeepEqual(reordered.ColumnNames(), []string{"age", "id"}) {
		t.Errorf("Expected columns [age id], got %v", reordered.ColumnNames())
	}
	if reordered.Columns[0].Type != core.IntType {
		t.Errorf("Projection must keep column types")
	}
}

func TestProjectDeduplicates(t *testing.T) {
	r := mustRelation(t, "R(a, b) = {1, x; 2, x; 3, y}")
	result, err := Project(r, []string{"b"})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	assertData(t, result, [][]string{{"x"}, {"y"}})
}

func TestProjectIdempotent(t *testing.T) {
	r := mustRelation(t, "R(a, b, c) = {1, x, 1.5; 2, x, 1.5; 3, y, 2}")
	once, err := Project(r, []string{"b", "c"})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	twice, err := Project(once, []string{"b", "c"})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if !once.Equal(twice) {
		t.Errorf("Projection is not idempotent: %v vs %v", once.Data(), twice.Data())
	}
}

func TestProjectErrors(t *testing.T) {
	emp := mustRelation(t, empDefinition)

	_, err := Project(emp, []string{"name", "salary"})
	var notFound *core.ColumnNotFoundError
	if !errors.As(err, &notFound) || notFound.Column != "salary" {
		t.Errorf("Expected ColumnNotFoundError for salary, got %v", err)
	}
	if _, err := Project(emp, []string{"name", "name"}); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("Expected ErrDuplicateColumn, got %v", err)
	}
	if _, err := Project(emp, nil); !errors.Is(err, ErrNoColumns) {
		t.Errorf("Expected ErrNoColumns, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	r := mustRelation(t, "R(a, b) = {1, x; 2, y}")
	s := mustRelation(t, "S(b, c) = {x, 10; y, 20; z, 30}")

	result, err := Join(r, s, "b")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !reflect.DeepEqual(result.ColumnNames(), []string{"a", "b", "c"}) {
		t.Errorf("Expected columns [a b c], got %v", result.ColumnNames())
	}
	assertData(t, result, [][]string{{"1", "x", "10"}, {"2", "y", "20"}})
}

func TestJoinRowCount(t *testing.T) {
	r := mustRelation(t, "R(k, a) = {1, p; 1, q; 2, r; 3, s}")
	s := mustRelation(t, "S(k, b) = {1, u; 1, v; 2, w; 4, x}")

	result, err := Join(r, s, "k")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	// k=1: 2x2 pairs, k=2: 1x1 pair
	if result.Len() != 5 {
		t.Errorf("Expected 5 rows, got %d: %v", result.Len(), result.Data())
	}
}

func TestJoinNumericMatch(t *testing.T) {
	r := mustRelation(t, "R(k, a) = {1, p; 2, q}")
	s := mustRelation(t, "S(k, b) = {1.0, u; 2.5, v}")

	result, err := Join(r, s, "k")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	assertData(t, result, [][]string{{"1", "p", "u"}})

	text := mustRelation(t, "T(k, c) = {one, w; two, x}")
	for _, pair := range [][2]*core.Relation{{r, text}, {text, r}} {
		_, err := Join(pair[0], pair[1], "k")
		var notFound *core.ColumnNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("Expected ColumnNotFoundError joining %s with %s, got %v", pair[0].Name, pair[1].Name, err)
		}
		if notFound.Column != "k" || notFound.Reason == "" {
			t.Errorf("Expected a type clash on k, got %+v", notFound)
		}
	}
}

func TestJoinNameCollision(t *testing.T) {
	r := mustRelation(t, "R(k, v) = {1, a}")
	s := mustRelation(t, "S(k, v) = {1, b}")

	result, err := Join(r, s, "k")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !reflect.DeepEqual(result.ColumnNames(), []string{"k", "v", "v_y"}) {
		t.Errorf("Expected columns [k v v_y], got %v", result.ColumnNames())
	}
	assertData(t, result, [][]string{{"1", "a", "b"}})
}

func TestJoinMissingColumn(t *testing.T) {
	r := mustRelation(t, "R(a, b) = {1, x}")
	s := mustRelation(t, "S(c, d) = {x, 10}")

	_, err := Join(r, s, "b")
	var notFound *core.ColumnNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ColumnNotFoundError, got %v", err)
	}
	if notFound.Relation != "S" {
		t.Errorf("Expected missing column in S, got %s", notFound.Relation)
	}
}

func TestSetOperators(t *testing.T) {
	a := mustRelation(t, "A(x, y) = {1, 2; 3, 4}")
	b := mustRelation(t, "B(x, y) = {3, 4; 5, 6}")

	union, err := Union(a, b)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	assertData(t, union, [][]string{{"1", "2"}, {"3", "4"}, {"5", "6"}})

	intersect, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect failed: %v", err)
	}
	assertData(t, intersect, [][]string{{"3", "4"}})

	difference, err := Difference(a, b)
	if err != nil {
		t.Fatalf("Difference failed: %v", err)
	}
	assertData(t, difference, [][]string{{"1", "2"}})

	if union.Name != "union(A, B)" {
		t.Errorf("Unexpected result name %q", union.Name)
	}
}

func TestSetOperatorProperties(t *testing.T) {
	pairs := [][2]string{
		{"A(x, y) = {1, 2; 3, 4}", "B(x, y) = {3, 4; 5, 6}"},
		{"A(x, y) = {1, a; 2, b; 3, c}", "B(x, y) = {3, c; 1.0, a}"},
		{"A(x, y) = {}", "B(x, y) = {1, 2}"},
		{"A(x, y) = {1, 2}", "B(x, y) = {1, 2}"},
	}

	for _, pair := range pairs {
		t.Run(pair[0]+" / "+pair[1], func(t *testing.T) {
			r, s := mustRelation(t, pair[0]), mustRelation(t, pair[1])

			rs, _ := Union(r, s)
			sr, _ := Union(s, r)
			if !rs.Equal(sr) {
				t.Errorf("Union is not commutative: %v vs %v", rs.Data(), sr.Data())
			}

			irs, _ := Intersect(r, s)
			isr, _ := Intersect(s, r)
			if !irs.Equal(isr) {
				t.Errorf("Intersect is not commutative: %v vs %v", irs.Data(), isr.Data())
			}

			// difference(R, S) and intersect(R, S) partition R
			diff, _ := Difference(r, s)
			if diff.Len()+irs.Len() != r.Len() {
				t.Errorf("Expected |R - S| + |R & S| = %d, got %d + %d", r.Len(), diff.Len(), irs.Len())
			}
			rest, _ := Union(diff, irs)
			if !rest.Equal(r) {
				t.Errorf("Difference and intersection do not cover R: %v", rest.Data())
			}

			// difference(R, S) and difference(S, R) partition union - intersect
			dsr, _ := Difference(s, r)
			symmetric, _ := Difference(rs, irs)
			if diff.Len()+dsr.Len() != symmetric.Len() {
				t.Errorf("Expected %d rows outside the intersection, got %d + %d", symmetric.Len(), diff.Len(), dsr.Len())
			}
			if overlap, _ := Intersect(diff, dsr); overlap.Len() != 0 {
				t.Errorf("Differences overlap: %v", overlap.Data())
			}
			both, _ := Union(diff, dsr)
			if !both.Equal(symmetric) {
				t.Errorf("Differences do not cover union - intersect: %v vs %v", both.Data(), symmetric.Data())
			}
		})
	}
}

func TestUnionTypes(t *testing.T) {
	a := mustRelation(t, "A(x) = {1; 2}")
	b := mustRelation(t, "B(x) = {2.0; 3.5}")

	union, err := Union(a, b)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if union.Columns[0].Type != core.FloatType {
		t.Errorf("Expected float column, got %s", union.Columns[0].Type)
	}
	assertData(t, union, [][]string{{"1.0"}, {"2.0"}, {"3.5"}})

	text := mustRelation(t, "C(x) = {one; 1; 2.0}")
	mixed, err := Union(a, text)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if mixed.Columns[0].Type != core.TextType {
		t.Errorf("Expected text column, got %s", mixed.Columns[0].Type)
	}
	assertData(t, mixed, [][]string{{"1"}, {"2"}, {"one"}, {"2.0"}})
	for i, row := range mixed.Rows {
		if row[0].Type != core.TextType {
			t.Errorf("Row %d holds a %s value in a text column", i, row[0].Type)
		}
	}
}

func TestSetOperatorSchemaMismatch(t *testing.T) {
	r := mustRelation(t, "R(a, b) = {1, 2}")
	tests := []struct {
		name string
		s    string
	}{
		{"different names", "S(a, c) = {1, 2}"},
		{"different order", "S(b, a) = {2, 1}"},
		{"different arity", "S(a) = {1}"},
	}
	operators := map[string]func(r, s *core.Relation) (*core.Relation, error){
		"union":      Union,
		"intersect":  Intersect,
		"difference": Difference,
	}

	for _, tt := range tests {
		s := mustRelation(t, tt.s)
		for name, operator := range operators {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				_, err := operator(r, s)
				var mismatch *core.SchemaMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("Expected SchemaMismatchError, got %v", err)
				}
				if mismatch.Operation != name {
					t.Errorf("Expected operation %s, got %s", name, mismatch.Operation)
				}
			})
		}
	}
}

func TestRelationOpScan(t *testing.T) {
	emp := mustRelation(t, empDefinition)
	relationOp := Wrap(emp)
	if relationOp.Count() != 2 {
		t.Errorf("Expected count 2, got %d", relationOp.Count())
	}

	n := 0
	for range relationOp.Scan() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("Scan must stop when the consumer stops")
	}

	filter, err := mustCondition(t, "age < 28").Compile(emp)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	var names []string
	for row, err := range relationOp.ScanWithFilter(filter) {
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		names = append(names, row[1].Text)
	}
	if !reflect.DeepEqual(names, []string{"Bob"}) {
		t.Errorf("Expected [Bob], got %v", names)
	}

	projected, err := relationOp.Project([]string{"id"})
	if err != nil || projected.Len() != 2 {
		t.Errorf("Project through RelationOp failed: %v", err)
	}
}
