package core

import (
	"slices"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emsdk/internal/types"
)

// ---------------------------------------------------------------------------
// VersionKey / CompareVersions
// ---------------------------------------------------------------------------

func TestVersionKeySplitsOnAllSeparators(t *testing.T) {
	key, err := VersionKey("1.38_20-3")
	require.NoError(t, err)
	if diff := cmp.Diff([]int{1, 38, 20, 3}, key); diff != "" {
		t.Fatalf("unexpected key (-want +got):\n%s", diff)
	}
}

func TestVersionKeyRejectsNonNumeric(t *testing.T) {
	_, err := VersionKey("1.38.x")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestCompareVersionsNumericNotLexical(t *testing.T) {
	cmpResult, err := CompareVersions("1.9.4", "1.10.0")
	require.NoError(t, err)
	assert.Negative(t, cmpResult)

	cmpResult, err = CompareVersions("1.38.33", "1.38.33")
	require.NoError(t, err)
	assert.Zero(t, cmpResult)

	cmpResult, err = CompareVersions("1.39", "1.38.99")
	require.NoError(t, err)
	assert.Positive(t, cmpResult)
}

func TestCompareOp(t *testing.T) {
	cases := []struct {
		version string
		op      types.FilterOp
		ref     string
		want    bool
	}{
		{"1.38.20", types.FilterOpLte, "1.38.33", true},
		{"1.39.0", types.FilterOpLte, "1.38.33", false},
		{"1.38.33", types.FilterOpLt, "1.38.33", false},
		{"1.39.0", types.FilterOpGte, "1.39.0", true},
		{"1.39.0", types.FilterOpGt, "1.38.33", true},
		{"1.39.0", types.FilterOpEq, "1.39.0", true},
		{"1.39.0", types.FilterOpNe, "1.39.0", false},
	}
	for _, tc := range cases {
		got, err := CompareOp(tc.version, tc.op, tc.ref)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.version, tc.op, tc.ref)
	}
}

func TestCompareOpUnknownOperator(t *testing.T) {
	_, err := CompareOp("1.0.0", types.FilterOp("~="), "1.0.0")
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

// ---------------------------------------------------------------------------
// SortTags
// ---------------------------------------------------------------------------

func TestSortTagsNumeric(t *testing.T) {
	got := SortTags([]string{"1.10.0", "1.9.4", "1.38.33", "1.9.10"})
	if diff := cmp.Diff([]string{"1.9.4", "1.9.10", "1.10.0", "1.38.33"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestSortTagsMixedFallsBackDeterministically(t *testing.T) {
	input := []string{"1.2.0~rc1", "1.2.0", "1.1.0"}
	got := SortTags(input)
	if diff := cmp.Diff([]string{"1.1.0", "1.2.0~rc1", "1.2.0"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1.2.0~rc1", "1.2.0", "1.1.0"}, input); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestSortTagsMixedKindsIgnoresInputOrder(t *testing.T) {
	tags := []string{"1.38.10", "fc5562126762", "1_40", "1.9.4", "abc", "1_5"}
	want := SortTags(tags)

	var permute func(prefix []string, rest []string)
	permute = func(prefix []string, rest []string) {
		if len(rest) == 0 {
			if diff := cmp.Diff(want, SortTags(prefix)); diff != "" {
				t.Fatalf("order depends on input %v (-want +got):\n%s", prefix, diff)
			}
			return
		}
		for i := range rest {
			next := append(append([]string(nil), rest[:i]...), rest[i+1:]...)
			permute(append(append([]string(nil), prefix...), rest[i]), next)
		}
	}
	permute(nil, tags)

	assert.Less(t, slices.Index(want, "1.9.4"), slices.Index(want, "1.38.10"))
	assert.Less(t, slices.Index(want, "1.38.10"), slices.Index(want, "abc"))
}

func TestCompareTagsMatchesSortTags(t *testing.T) {
	assert.Negative(t, CompareTags("1.9.4", "1.10.0"))
	assert.Positive(t, CompareTags("2.0.14", "2.0.9"))
	assert.Zero(t, CompareTags("3.1.0", "3.1.0"))
}
