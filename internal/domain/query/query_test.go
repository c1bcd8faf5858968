package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/fedsearch/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	q, err := New("  golang channels ", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "golang channels" {
		t.Errorf("Text() = %q, want trimmed", q.Text())
	}
}

func TestNew_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := New(text, 0)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("New(%q) err = %v, want ErrInvalidQuery", text, err)
		}
	}
}

func TestNew_TooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", 11), 10)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
	if _, err := New(strings.Repeat("я", 10), 10); err != nil {
		t.Errorf("length is counted in runes, got %v", err)
	}
}

func TestNew_DefaultMaxLength(t *testing.T) {
	if _, err := New(strings.Repeat("a", DefaultMaxLength), -1); err != nil {
		t.Errorf("unexpected error at limit: %v", err)
	}
	if _, err := New(strings.Repeat("a", DefaultMaxLength+1), -1); err == nil {
		t.Error("expected error above default limit")
	}
}

func TestTerms(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Hello, World", []string{"hello", "world"}},
		{"go-lang go  GO", []string{"go", "lang"}},
		{"v2 release 2024", []string{"v2", "release", "2024"}},
		{"!!!", []string{}},
		{"привет мир", []string{"привет", "мир"}},
	}
	for _, tt := range tests {
		got := Terms(tt.text)
		if len(got) != len(tt.want) {
			t.Errorf("Terms(%q) = %v, want %v", tt.text, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Terms(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
			}
		}
	}
}
