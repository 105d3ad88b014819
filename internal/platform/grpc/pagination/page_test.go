package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	t.Parallel()

	cfg := PageSizeConfig{Default: 100, Max: 1000}
	cases := []struct {
		value int
		want  int
	}{
		{value: 0, want: 100},
		{value: -5, want: 100},
		{value: 25, want: 25},
		{value: 5000, want: 1000},
	}
	for _, tc := range cases {
		if got := ClampPageSize(tc.value, cfg); got != tc.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.value, got, tc.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("ClampPageSize with empty config = %d, want 1", got)
	}
}
