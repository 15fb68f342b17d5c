package recipe

import (
	"strings"
	"testing"
)

func TestPostprocess(t *testing.T) {
	raw := []string{
		"<pad> title: pasta<section>ingredients: egg<sep> flour<section>directions: mix<sep> boil</s>",
		"plain text",
	}

	got := Postprocess(raw, DefaultSpecialTokens)

	if len(got) != len(raw) {
		t.Fatalf("expected %d outputs, got %d", len(raw), len(got))
	}
	want := " title: pasta\ningredients: egg-- flour\ndirections: mix-- boil"
	if got[0] != want {
		t.Errorf("Postprocess()[0] = %q, want %q", got[0], want)
	}
	if got[1] != "plain text" {
		t.Errorf("Postprocess()[1] = %q, want unchanged input", got[1])
	}
}

func TestPostprocess_Idempotent(t *testing.T) {
	inputs := []string{
		"title: soup<section>ingredients: a<sep>b",
		"<pad>title: x</s>",
		"",
		"no markers at all",
	}

	for _, in := range inputs {
		once := PostprocessText(in, DefaultSpecialTokens)
		twice := PostprocessText(once, DefaultSpecialTokens)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestPostprocess_EmptyBatch(t *testing.T) {
	got := Postprocess(nil, DefaultSpecialTokens)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRemoveSpecialTokens_IgnoresEmptyToken(t *testing.T) {
	if got := RemoveSpecialTokens("a<pad>b", []string{"", "<pad>"}); got != "ab" {
		t.Errorf("RemoveSpecialTokens() = %q, want %q", got, "ab")
	}
}

func TestTokenRulesDoNotOverlap(t *testing.T) {
	var rules []string
	rules = append(rules, DefaultSpecialTokens...)
	for _, r := range TokenMap {
		rules = append(rules, r.Token)
	}

	for i, a := range rules {
		for j, b := range rules {
			if i != j && strings.Contains(a, b) {
				t.Errorf("token %q contains token %q", a, b)
			}
		}
	}

	// Replacement values must not reintroduce a token.
	for _, r := range TokenMap {
		for _, token := range rules {
			if strings.Contains(r.Value, token) {
				t.Errorf("replacement %q contains token %q", r.Value, token)
			}
		}
	}
}
