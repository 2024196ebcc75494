package sync

import (
	"reflect"
	"testing"
)

func TestReconcileConvergence(t *testing.T) {
	d := Reconcile([]string{"A", "B", "C"}, []string{"B", "C", "D"})

	if !reflect.DeepEqual(d.ToAdd, []string{"D"}) {
		t.Errorf("ToAdd = %v, want [D]", d.ToAdd)
	}
	if !reflect.DeepEqual(d.ToRemove, []string{"A"}) {
		t.Errorf("ToRemove = %v, want [A]", d.ToRemove)
	}
}

func TestReconcileEqualSets(t *testing.T) {
	d := Reconcile([]string{"x", "y"}, []string{"y", "x"})
	if !d.Empty() {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestReconcileEmptyLocal(t *testing.T) {
	d := Reconcile(nil, []string{"a", "b"})
	if !reflect.DeepEqual(d.ToAdd, []string{"a", "b"}) {
		t.Errorf("ToAdd = %v, want [a b]", d.ToAdd)
	}
	if len(d.ToRemove) != 0 {
		t.Errorf("ToRemove = %v, want empty", d.ToRemove)
	}
}

func TestReconcileEmptyRemote(t *testing.T) {
	d := Reconcile([]string{"a", "b"}, nil)
	if len(d.ToAdd) != 0 {
		t.Errorf("ToAdd = %v, want empty", d.ToAdd)
	}
	if !reflect.DeepEqual(d.ToRemove, []string{"a", "b"}) {
		t.Errorf("ToRemove = %v, want [a b]", d.ToRemove)
	}
}

func TestReconcileDeterministicOrder(t *testing.T) {
	first := Reconcile([]string{"c", "a", "b"}, []string{"z", "x", "y"})
	second := Reconcile([]string{"b", "c", "a"}, []string{"y", "z", "x"})

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same sets produced different diffs: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(first.ToAdd, []string{"x", "y", "z"}) {
		t.Errorf("ToAdd not sorted: %v", first.ToAdd)
	}
}

func TestReconcileDuplicateInputs(t *testing.T) {
	d := Reconcile([]string{"a", "a"}, []string{"a", "b", "b"})
	if !reflect.DeepEqual(d.ToAdd, []string{"b"}) {
		t.Errorf("ToAdd = %v, want [b]", d.ToAdd)
	}
	if len(d.ToRemove) != 0 {
		t.Errorf("ToRemove = %v, want empty", d.ToRemove)
	}
}
