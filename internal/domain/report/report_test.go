package report

import (
	"testing"

	"github.com/kailas-cloud/fedsearch/internal/domain/store"
)

func TestFailed(t *testing.T) {
	r := Report{
		Stores: map[store.ID]StoreSummary{
			"a": {Succeeded: true, Count: 2},
			"b": {Succeeded: false, Error: "boom"},
			"c": {Succeeded: false, Error: "down"},
		},
		Order: []store.ID{"c", "a", "b"},
	}

	got := r.Failed()
	if len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Errorf("Failed() = %v, want [c b]", got)
	}
}

func TestFailed_None(t *testing.T) {
	r := Report{
		Stores: map[store.ID]StoreSummary{"a": {Succeeded: true}},
		Order:  []store.ID{"a"},
	}
	if got := r.Failed(); len(got) != 0 {
		t.Errorf("Failed() = %v, want empty", got)
	}
}
