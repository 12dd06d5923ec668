package version

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		wantKind Kind
		wantErr  bool
	}{
		{"9", Numeric, false},
		{"15.4", Numeric, false},
		{"0.11.13", Numeric, false},
		{" 10 ", Numeric, false},
		{"TP", Preview, false},
		{"tp", Preview, false},
		{"preview", Preview, false},
		{"next", Unreleased, false},
		{"nightly", Unreleased, false},
		{"true", AlwaysTrue, false},
		{"always", AlwaysTrue, false},
		{"false", AlwaysRequired, false},
		{"never", AlwaysRequired, false},

		{"", AlwaysRequired, true},
		{"1.2.3.4", AlwaysRequired, true},
		{"1.0.0-beta", AlwaysRequired, true},
		{"v10", AlwaysRequired, true},
		{"latest", AlwaysRequired, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("Parse(%q) error does not match ErrMalformed", tt.input)
				}
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("Parse(%q) error type = %T, want *ParseError", tt.input, err)
				}
				return
			}
			if v.Kind() != tt.wantKind {
				t.Errorf("Parse(%q).Kind() = %v, want %v", tt.input, v.Kind(), tt.wantKind)
			}
		})
	}
}

func TestNormalize_MalformedIsAlwaysRequired(t *testing.T) {
	for _, token := range []string{"", "garbage", "1.x", "1.0.0-rc.1"} {
		if got := Normalize(token).Kind(); got != AlwaysRequired {
			t.Errorf("Normalize(%q).Kind() = %v, want AlwaysRequired", token, got)
		}
	}
}

func TestCompareTokens(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		// Numeric, not lexical
		{"11", "9", 1},
		{"9", "11", -1},
		{"10", "10", 0},
		{"10", "10.0", 0},
		{"15.4", "15.10", -1},
		{"0.11.13", "0.12", -1},

		// Sentinels around the numeric range
		{"TP", "999", 1},
		{"next", "TP", 1},
		{"true", "next", 1},
		{"false", "0", -1},
		{"garbage", "0", -1},
		{"garbage", "false", 0},
		{"TP", "preview", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := CompareTokens(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareTokens(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := CompareTokens(tt.b, tt.a); got != -tt.want {
				t.Errorf("CompareTokens(%q, %q) = %d, want %d (symmetry)", tt.b, tt.a, got, -tt.want)
			}
		})
	}
}

func TestSort(t *testing.T) {
	versions := []Version{
		MustParse("TP"), MustParse("11"), Normalize("bogus"), MustParse("9"), MustParse("true"), MustParse("10.1"),
	}
	Sort(versions)

	want := []string{"bogus", "9", "10.1", "11", "TP", "true"}
	for i, v := range versions {
		if v.String() != want[i] {
			t.Errorf("Sort result[%d] = %q, want %q", i, v.String(), want[i])
		}
	}
}

func TestMaxMin(t *testing.T) {
	a, b := MustParse("49"), MustParse("100")
	if got := Max(a, b); got.String() != "100" {
		t.Errorf("Max = %q, want 100", got)
	}
	if got := Min(a, b); got.String() != "49" {
		t.Errorf("Min = %q, want 49", got)
	}
	if !AtLeast(b, a) || AtLeast(a, b) {
		t.Error("AtLeast mismatch")
	}
}

func TestString_ZeroValue(t *testing.T) {
	var v Version
	if v.String() != "false" {
		t.Errorf("zero Version.String() = %q, want false", v.String())
	}
	if v.Kind() != AlwaysRequired {
		t.Errorf("zero Version.Kind() = %v, want AlwaysRequired", v.Kind())
	}
}
