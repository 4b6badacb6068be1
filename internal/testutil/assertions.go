package testutil

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mch-analysis/pkg/model"
	"github.com/mch-analysis/pkg/nbt"
)

// AssertJSONEqual asserts that two JSON documents are semantically equal.
func AssertJSONEqual(t testing.TB, expected, actual string) {
	t.Helper()

	var expectedJSON, actualJSON interface{}

	if err := json.Unmarshal([]byte(expected), &expectedJSON); err != nil {
		t.Fatalf("failed to parse expected JSON: %v", err)
	}

	if err := json.Unmarshal([]byte(actual), &actualJSON); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}

	if diff := cmp.Diff(expectedJSON, actualJSON); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

// AssertResultsEqual compares two parsed dumps through their JSON form, which
// covers every field and the order of both trees.
func AssertResultsEqual(t testing.TB, want, got *model.ProfilerResults) {
	t.Helper()
	AssertJSONEqual(t, mustJSON(t, want), mustJSON(t, got))
}

// AssertTagEqual asserts that two tag trees are equal, printing a JSON diff
// when they are not.
func AssertTagEqual(t testing.TB, want, got nbt.Tag) {
	t.Helper()
	if nbt.Equal(want, got) {
		return
	}
	if diff := cmp.Diff(mustJSON(t, want), mustJSON(t, got)); diff != "" {
		t.Errorf("tag mismatch (-want +got):\n%s", diff)
		return
	}
	t.Errorf("tag mismatch: %s and %s differ only in numeric widths", want.Type(), got.Type())
}

func mustJSON(t testing.TB, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal %T: %v", v, err)
	}
	return string(data)
}
