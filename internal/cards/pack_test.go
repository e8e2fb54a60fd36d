package cards

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
)

func TestDefaultPackLoads(t *testing.T) {
	pack := DefaultPack()
	if len(pack.Questions) == 0 || len(pack.Answers) < 60 {
		t.Fatalf("expected a playable default pack, got %d questions and %d answers", len(pack.Questions), len(pack.Answers))
	}
	twoCard := 0
	for _, q := range pack.Questions {
		if q.NumAnswers == 2 {
			twoCard++
		}
	}
	if twoCard == 0 {
		t.Fatalf("expected at least one two-answer question")
	}
}

func TestParsePackDefaultsNumAnswers(t *testing.T) {
	pack, err := ParsePack([]byte("questions:\n  - text: Why?\nanswers:\n  - because\n  - \"  \"\n"))
	if err != nil {
		t.Fatalf("parse pack: %v", err)
	}
	if pack.Questions[0].NumAnswers != 1 {
		t.Fatalf("expected default of one answer, got %d", pack.Questions[0].NumAnswers)
	}
	if len(pack.Answers) != 1 {
		t.Fatalf("expected blank answers dropped, got %v", pack.Answers)
	}
}

func TestParsePackRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad answers": "questions:\n  - text: Why?\n    answers: 3\nanswers:\n  - a\n",
		"empty":       "name: nothing\n",
		"not yaml":    "questions: [",
	}
	for name, raw := range cases {
		if _, err := ParsePack([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestShufflePermutes(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	Shuffle(items, rand.New(rand.NewPCG(1, 2)))
	seen := map[int]bool{}
	for _, v := range items {
		seen[v] = true
	}
	if len(seen) != 10 {
		t.Fatalf("expected a permutation, got %v", items)
	}
	Shuffle([]int{}, nil)
}

func TestPackSupplierSamples(t *testing.T) {
	supplier := NewPackSupplier(DefaultPack(), rand.New(rand.NewPCG(3, 4)))
	answers, err := supplier.Answers(context.Background(), 12)
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if len(answers) != 12 {
		t.Fatalf("expected 12 answers, got %d", len(answers))
	}
	ids := map[string]bool{}
	for _, card := range answers {
		if !strings.HasPrefix(card.ID, "a") || ids[card.ID] {
			t.Fatalf("unexpected or duplicate id %q", card.ID)
		}
		ids[card.ID] = true
	}
	questions, err := supplier.Questions(context.Background(), 0)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != len(DefaultPack().Questions) {
		t.Fatalf("expected every question for n=0, got %d", len(questions))
	}
}

func TestPackSupplierHonoursContext(t *testing.T) {
	supplier := NewPackSupplier(DefaultPack(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := supplier.Questions(ctx, 1); err == nil {
		t.Fatalf("expected cancelled context error")
	}
}
