package types

import "testing"

func TestFallback(t *testing.T) {
	blank := "   "
	name := " Tomatoes "
	cases := []struct {
		in   *string
		want string
	}{
		{in: nil, want: FallbackProductName},
		{in: &blank, want: FallbackProductName},
		{in: &name, want: "Tomatoes"},
	}
	for _, tc := range cases {
		if got := Fallback(tc.in, FallbackProductName); got != tc.want {
			t.Fatalf("expected %q got %q", tc.want, got)
		}
	}
}

func TestOptionalAndDeref(t *testing.T) {
	if Optional("  ") != nil {
		t.Fatal("blank input should become nil")
	}
	v := Optional(" kg ")
	if v == nil || *v != "kg" {
		t.Fatalf("unexpected optional %v", v)
	}
	if Deref(nil) != "" || Deref(v) != "kg" {
		t.Fatal("deref mismatch")
	}
}
