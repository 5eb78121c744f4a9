package search

import (
	"errors"
	"testing"
)

func TestParseQueryRejectsShortInput(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", " ", "a", "  a  ", "\tb\n"} {
		if _, err := parseQuery(raw); !errors.Is(err, ErrShortQuery) {
			t.Fatalf("expected ErrShortQuery for %q, got %v", raw, err)
		}
	}
}

func TestParseQueryStripsUsernamePrefix(t *testing.T) {
	t.Parallel()

	q, err := parseQuery("  @acme ")
	if err != nil {
		t.Fatalf("parseQuery error: %v", err)
	}
	if !q.usernameIntent {
		t.Fatalf("expected username intent for @-prefixed query")
	}
	if q.exact != "acme" {
		t.Fatalf("expected exact term 'acme', got %q", q.exact)
	}
	if len(q.terms) != 2 || q.terms[0] != "@acme" || q.terms[1] != "acme" {
		t.Fatalf("unexpected terms: %v", q.terms)
	}
}

func TestParseQueryDeduplicatesTerms(t *testing.T) {
	t.Parallel()

	q, err := parseQuery("acme")
	if err != nil {
		t.Fatalf("parseQuery error: %v", err)
	}
	if q.usernameIntent {
		t.Fatalf("plain query must not carry username intent")
	}
	if len(q.terms) != 1 || q.terms[0] != "acme" {
		t.Fatalf("expected single deduplicated term, got %v", q.terms)
	}
}
