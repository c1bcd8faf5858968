package result

import "testing"

func TestNew(t *testing.T) {
	tags := map[string]string{"lang": "go"}

	r := New("doc-1", 0.95, "Intro", "hello", tags)

	if r.ID() != "doc-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Score() != 0.95 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Title() != "Intro" {
		t.Errorf("Title() = %q", r.Title())
	}
	if r.Content() != "hello" {
		t.Errorf("Content() = %q", r.Content())
	}
	if r.Tags()["lang"] != "go" {
		t.Errorf("Tags() = %v", r.Tags())
	}
}

func TestWithScore(t *testing.T) {
	r := New("doc-1", 0.5, "", "hello", nil)
	r2 := r.WithScore(0.9)
	if r2.Score() != 0.9 || r.Score() != 0.5 {
		t.Errorf("WithScore: got %f / original %f", r2.Score(), r.Score())
	}
	if r2.ID() != "doc-1" {
		t.Errorf("ID() = %q", r2.ID())
	}
}

func TestRow(t *testing.T) {
	r := New("doc-1", 1.5, "Intro", "hello", map[string]string{"lang": "go"})
	row := r.Row("primary")

	if row[KeyID] != "doc-1" || row[KeyScore] != 1.5 || row[KeyContent] != "hello" {
		t.Errorf("Row() = %v", row)
	}
	if row[KeySource] != "primary" {
		t.Errorf("source = %v", row[KeySource])
	}
	if row[KeyTitle] != "Intro" {
		t.Errorf("title = %v", row[KeyTitle])
	}
	if _, ok := row[KeyTags]; !ok {
		t.Error("tags missing")
	}
}

func TestRow_OmitsEmpty(t *testing.T) {
	r := New("doc-1", 0, "", "hello", nil)
	row := r.Row("primary")
	if _, ok := row[KeyTitle]; ok {
		t.Error("empty title should be omitted")
	}
	if _, ok := row[KeyTags]; ok {
		t.Error("empty tags should be omitted")
	}
}

func TestRows_PreservesOrder(t *testing.T) {
	rows := Rows("s", []Result{New("a", 2, "", "x", nil), New("b", 1, "", "y", nil)})
	if len(rows) != 2 || rows[0][KeyID] != "a" || rows[1][KeyID] != "b" {
		t.Errorf("Rows() = %v", rows)
	}
	if empty := Rows("s", nil); empty == nil || len(empty) != 0 {
		t.Errorf("Rows(nil) = %v, want empty slice", empty)
	}
}
