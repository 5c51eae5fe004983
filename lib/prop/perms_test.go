package prop

import "testing"

// TestReadable tests read permissions of the sigils
func TestReadable(t *testing.T) {
	cases := []struct {
		path string
		a    Access
		want bool
	}{
		{"color", AccessMortal, true},
		{"@secret/value", AccessMortal, false},
		{"@secret/value", AccessOwner, false},
		{"@secret/value", AccessWizard, true},
		{"dir/.private", AccessMortal, false},
		{"dir/.private", AccessOwner, true},
		{"~seen", AccessMortal, true},
		{"_ro/x", AccessMortal, true},
		{"@__sys__/internal", AccessWizard, false},
		{"a/@__sys__x/b", AccessWizard, false},
	}
	for _, c := range cases {
		if got := Readable(c.path, c.a); got != c.want {
			t.Errorf("Readable(%q, %s): expected %v, got %v", c.path, c.a, c.want, got)
		}
	}
}

// TestWritable tests write permissions of the sigils
func TestWritable(t *testing.T) {
	cases := []struct {
		path string
		a    Access
		want bool
	}{
		{"color", AccessMortal, false},
		{"color", AccessOwner, true},
		{"~seen", AccessOwner, false},
		{"~seen", AccessWizard, true},
		{"_ro/x", AccessOwner, true},
		{"%ro", AccessOwner, true},
		{"@hidden", AccessOwner, false},
		{"@__sys__/x", AccessWizard, false},
	}
	for _, c := range cases {
		if got := Writable(c.path, c.a); got != c.want {
			t.Errorf("Writable(%q, %s): expected %v, got %v", c.path, c.a, c.want, got)
		}
	}
}
