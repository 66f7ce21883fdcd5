package value_test

import (
	"testing"

	"github.com/kr/pretty"

	"luagen/internal/value"
)

func TestTableGetSetMissingIsNil(t *testing.T) {
	tbl := value.NewTable()
	if got := tbl.Get(value.StringValue("x")); !got.IsNil() {
		t.Fatalf("missing key: got %v, want Nil", got)
	}
	tbl.Set(value.StringValue("x"), value.IntValue(7))
	if got := tbl.Get(value.StringValue("x")); got.Int != 7 || got.Kind != value.Integer {
		t.Fatalf("got %v, want Integer(7)", got)
	}
}

func TestTableSetNilDeletes(t *testing.T) {
	tbl := value.NewTable()
	tbl.Set(value.StringValue("x"), value.IntValue(1))
	tbl.Set(value.StringValue("x"), value.NilValue())
	if tbl.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after deleting the only entry", tbl.Len())
	}
}

func TestTableIntegerAndRealKeysCollide(t *testing.T) {
	tbl := value.NewTable()
	tbl.Set(value.IntValue(3), value.StringValue("three"))
	got := tbl.Get(value.RealValue(3.0))
	if got.Kind != value.String || got.Str != "three" {
		t.Fatalf("Real(3.0) lookup = %v, want the value stored under Integer(3)", got)
	}
}

func TestTableSlotAliasesLiveEntry(t *testing.T) {
	tbl := value.NewTable()
	slot := tbl.Slot(value.StringValue("x"))
	*slot = value.IntValue(42)
	if got := tbl.Get(value.StringValue("x")); got.Int != 42 {
		t.Fatalf("Get() = %v after writing through Slot, want Integer(42)", got)
	}
}

func TestTableSortedLabelsAreDeterministic(t *testing.T) {
	tbl := value.NewTable()
	tbl.Set(value.StringValue("z"), value.IntValue(1))
	tbl.Set(value.StringValue("a"), value.IntValue(2))
	tbl.Set(value.IntValue(3), value.IntValue(3))
	got := tbl.SortedLabels()
	want := []string{"3", "a", "z"}
	if len(got) != len(want) {
		t.Fatalf("SortedLabels() = %# v, want %# v", pretty.Formatter(got), pretty.Formatter(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedLabels() = %# v, want %# v", pretty.Formatter(got), pretty.Formatter(want))
		}
	}
}

func TestScopeStackRootNamesSortedAndBottomOfStack(t *testing.T) {
	s := value.NewStack()
	s.Push()
	s.Innermost().SetOrInsert("b", value.IntValue(1))
	s.Innermost().SetOrInsert("a", value.IntValue(2))
	s.Push()
	s.Innermost().SetOrInsert("inner", value.IntValue(3))
	got := s.RootNames()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("RootNames() = %v, want [a b]", got)
	}
}

func TestScopeStackResolveWalksOutward(t *testing.T) {
	s := value.NewStack()
	s.Push()
	s.Innermost().SetOrInsert("x", value.IntValue(1))
	s.Push()
	if v := s.Resolve("x"); v == nil || v.Value.Int != 1 {
		t.Fatalf("Resolve(x) from inner scope = %v, want the outer binding", v)
	}
	s.Innermost().SetOrInsert("x", value.IntValue(2))
	if v := s.Resolve("x"); v.Value.Int != 2 {
		t.Fatalf("Resolve(x) after inner shadow = %v, want 2", v.Value.Int)
	}
}

func TestScopeStackResolveOrCreateBindsInnermost(t *testing.T) {
	s := value.NewStack()
	s.Push()
	s.Push()
	v := s.ResolveOrCreate("y")
	if !v.Value.IsNil() {
		t.Fatalf("fresh ResolveOrCreate binding = %v, want Nil", v.Value)
	}
	if s.Innermost().Get("y") == nil {
		t.Fatal("ResolveOrCreate did not bind in the innermost scope")
	}
}
