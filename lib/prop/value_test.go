package prop

import "testing"

// TestEmptyValues tests the empty representation of every type
func TestEmptyValues(t *testing.T) {
	released := 0
	empty := []Value{
		{},
		String(""),
		Int(0),
		Float(0),
		Ref(Nothing),
		LockValue(nil),
		LockValue(&testLock{released: &released}),
	}
	for _, v := range empty {
		if !v.IsEmpty() {
			t.Errorf("Expected %s value %q to be empty", v.Type(), v.Format())
		}
	}

	full := []Value{
		String("x"),
		Int(-1),
		Float(0.5),
		Ref(0),
		LockValue(&testLock{text: "#3", released: &released}),
	}
	for _, v := range full {
		if v.IsEmpty() {
			t.Errorf("Expected %s value %q not to be empty", v.Type(), v.Format())
		}
	}
}

// TestTypedAccessors tests that accessors return zero values for other types
func TestTypedAccessors(t *testing.T) {
	v := Int(7)
	if v.Str() != "" || v.Float() != 0 || v.Ref() != Nothing || v.Lock() != nil {
		t.Errorf("Expected zero values for mismatching accessors")
	}
	if v.Int() != 7 {
		t.Errorf("Expected 7, got %d", v.Int())
	}
}

// TestParseValue tests building values from text
func TestParseValue(t *testing.T) {
	v, err := ParseValue(TypeRef, "#42", nil)
	if err != nil || v.Ref() != 42 {
		t.Errorf("Expected #42, got %v (%v)", v.Ref(), err)
	}

	v, err = ParseValue(TypeFloat, "0.1", nil)
	if err != nil || v.Float() != 0.1 {
		t.Errorf("Expected 0.1, got %v (%v)", v.Float(), err)
	}

	if _, err := ParseValue(TypeInt, "abc", nil); err == nil {
		t.Errorf("Expected an error for an invalid integer")
	}

	if _, err := ParseValue(TypeLock, "#1", nil); err == nil {
		t.Errorf("Expected an error without a lock parser")
	}

	if ty, err := ParseType("dbref"); err != nil || ty != TypeRef {
		t.Errorf("Expected dbref to map to ref")
	}
}

// TestFlags tests that paging bits are kept separate from public flags
func TestFlags(t *testing.T) {
	n := &Node{}
	n.MarkUnloaded(TypeString, 10)
	n.SetFlags(FlagBlessed | FlagUnloaded)

	if !n.Flags().Has(FlagUnloaded) {
		t.Errorf("SetFlags must not clear paging bits")
	}

	if n.Flags().Public() != FlagBlessed {
		t.Errorf("Expected only the blessed bit to be public, got %b", n.Flags().Public())
	}

	if n.Type() != TypeString {
		t.Errorf("Expected an unloaded node to keep its type tag")
	}

	n.SetLoadedValue(String("hello"))
	if _, ok := n.ValuePos(); ok {
		t.Errorf("Expected the value to be resident")
	}
	if !n.Flags().Has(FlagBlessed) {
		t.Errorf("Loading the value must keep the blessed bit")
	}
}
