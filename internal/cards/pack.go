package cards

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_pack.yaml
var defaultPack []byte

type Pack struct {
	Name      string         `yaml:"name"`
	Questions []PackQuestion `yaml:"questions"`
	Answers   []string       `yaml:"answers"`
}

type PackQuestion struct {
	Text       string `yaml:"text"`
	NumAnswers int    `yaml:"answers"`
}

// ParsePack decodes a YAML card pack and validates it.
func ParsePack(data []byte) (Pack, error) {
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return Pack{}, fmt.Errorf("parse card pack: %w", err)
	}
	for i := range pack.Questions {
		q := &pack.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.NumAnswers == 0 {
			q.NumAnswers = 1
		}
		if q.Text == "" {
			return Pack{}, fmt.Errorf("question %d: empty text", i)
		}
		if q.NumAnswers != 1 && q.NumAnswers != 2 {
			return Pack{}, fmt.Errorf("question %d: answers must be 1 or 2, got %d", i, q.NumAnswers)
		}
	}
	answers := pack.Answers[:0]
	for _, text := range pack.Answers {
		if text = strings.TrimSpace(text); text != "" {
			answers = append(answers, text)
		}
	}
	pack.Answers = answers
	if len(pack.Questions) == 0 || len(pack.Answers) == 0 {
		return Pack{}, errors.New("card pack needs at least one question and one answer")
	}
	return pack, nil
}

// ReadPack loads a pack from disk.
func ReadPack(path string) (Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("read card pack: %w", err)
	}
	return ParsePack(data)
}

// DefaultPack returns the pack compiled into the binary.
func DefaultPack() Pack {
	pack, err := ParsePack(defaultPack)
	if err != nil {
		panic(err)
	}
	return pack
}

// PackSupplier serves random samples of an in-memory pack. Card ids are
// stable positions within the pack.
type PackSupplier struct {
	mu        sync.Mutex
	rng       *rand.Rand
	questions []Question
	answers   []Card
}

func NewPackSupplier(pack Pack, rng *rand.Rand) *PackSupplier {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &PackSupplier{rng: rng}
	for i, q := range pack.Questions {
		s.questions = append(s.questions, Question{
			ID:         fmt.Sprintf("q%d", i+1),
			Text:       q.Text,
			NumAnswers: q.NumAnswers,
		})
	}
	for i, text := range pack.Answers {
		s.answers = append(s.answers, Card{ID: fmt.Sprintf("a%d", i+1), Text: text})
	}
	return s
}

func (s *PackSupplier) Questions(ctx context.Context, n int) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sample(s.questions, n, s.rng), nil
}

func (s *PackSupplier) Answers(ctx context.Context, n int) ([]Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sample(s.answers, n, s.rng), nil
}

// sample returns up to n items in random order; n <= 0 means all.
func sample[T any](items []T, n int, rng *rand.Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	Shuffle(out, rng)
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
