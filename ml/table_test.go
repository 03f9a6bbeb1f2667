package ml

import (
	"encoding/json"
	"math"
	"testing"
)

func TestTableColumnUnionKeepsFirstSeenOrder(t *testing.T) {
	table := NewTable()
	table.AppendRow([]string{"timestamp", "analog_value"}, []Value{Int(1), Float(2)})
	table.AppendRow([]string{"client_id", "timestamp"}, []Value{String("T1"), Int(3)})

	cols := table.Columns()
	want := []string{"timestamp", "analog_value", "client_id"}
	if len(cols) != len(want) {
		t.Fatalf("expected %v, got %v", want, cols)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cols)
		}
	}
	if !table.Get(0, "client_id").IsMissing() {
		t.Fatal("expected first row client_id to be missing")
	}
	if !table.Get(1, "analog_value").IsMissing() {
		t.Fatal("expected second row analog_value to be missing")
	}
	if v, _ := table.Get(1, "timestamp").Int64(); v != 3 {
		t.Fatalf("unexpected timestamp: %d", v)
	}
}

func TestTableFilterPreservesOrder(t *testing.T) {
	table := NewTable("n")
	for i := 0; i < 5; i++ {
		table.AppendRow([]string{"n"}, []Value{Int(int64(i))})
	}
	odd := table.Filter(func(row int) bool { return row%2 == 1 })
	if odd.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", odd.Len())
	}
	if v, _ := odd.Get(1, "n").Int64(); v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
}

func TestTableFingerprint(t *testing.T) {
	build := func(v Value) *Table {
		table := NewTable()
		table.AppendRow([]string{"timestamp", "analog_value"}, []Value{Int(1), v})
		return table
	}
	if build(Float(2)).Fingerprint() != build(Float(2)).Fingerprint() {
		t.Fatal("equal tables should share a fingerprint")
	}
	if build(Float(2)).Fingerprint() == build(Int(2)).Fingerprint() {
		t.Fatal("cell kind should be part of the fingerprint")
	}
	if build(String("a")).Fingerprint() == build(String("b")).Fingerprint() {
		t.Fatal("different strings should not collide")
	}
}

func TestValueToNumeric(t *testing.T) {
	cases := []struct {
		in      Value
		missing bool
		want    float64
	}{
		{in: Int(7), want: 7},
		{in: Float(1.5), want: 1.5},
		{in: String(" 1700000000000 "), want: 1700000000000},
		{in: String("1.5e3"), want: 1500},
		{in: String("abc"), missing: true},
		{in: String(""), missing: true},
		{in: String("nan"), missing: true},
		{in: Bool(true), want: 1},
		{in: Missing(), missing: true},
		{in: Composite(`{"a":1}`), missing: true},
	}
	for _, tc := range cases {
		got := tc.in.ToNumeric()
		if got.IsMissing() != tc.missing {
			t.Fatalf("%v: expected missing=%v, got %v", tc.in.Text(), tc.missing, got.Kind())
		}
		if tc.missing {
			continue
		}
		if f, _ := got.Float64(); f != tc.want {
			t.Fatalf("%v: expected %v, got %v", tc.in.Text(), tc.want, f)
		}
	}

	if inf := String("inf").ToNumeric(); !inf.IsInf() {
		t.Fatalf("expected +Inf, got %v", inf.Text())
	}
}

func TestFromJSON(t *testing.T) {
	if v := FromJSON(json.Number("1700000000123")); v.Kind() != KindInt {
		t.Fatalf("expected int, got %s", v.Kind())
	}
	if v := FromJSON(json.Number("2.5")); v.Kind() != KindFloat {
		t.Fatalf("expected float, got %s", v.Kind())
	}
	if v := FromJSON(json.Number("1e400")); !v.IsInf() {
		t.Fatalf("expected +Inf, got %v", v.Text())
	}
	if v := FromJSON(nil); !v.IsMissing() {
		t.Fatalf("expected missing, got %s", v.Kind())
	}
	if v := FromJSON([]any{1.0}); v.Kind() != KindComposite {
		t.Fatalf("expected composite, got %s", v.Kind())
	}
	if f, _ := FromJSON(math.Pi).Float64(); f != math.Pi {
		t.Fatalf("unexpected float: %v", f)
	}
}

func TestLabelsName(t *testing.T) {
	labels := DefaultLabels()
	if labels.Name(0) != "luz solar intensa" {
		t.Fatalf("unexpected label: %s", labels.Name(0))
	}
	if labels.Name(3) != "sombra" {
		t.Fatalf("unexpected label: %s", labels.Name(3))
	}
	if labels.Name(9) != UnknownLabel || labels.Name(1.5) != UnknownLabel {
		t.Fatal("expected unknown label")
	}
}
