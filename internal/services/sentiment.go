package services

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"
)

// Score is a polarity in [-1,1] and a subjectivity in [0,1].
type Score struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

func (s Score) clamped() Score {
	return Score{
		Polarity:     clamp(s.Polarity, -1, 1),
		Subjectivity: clamp(s.Subjectivity, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return 0
	}
	return max(lo, min(hi, v))
}

// Scorer estimates polarity and subjectivity for cleaned text.
type Scorer interface {
	Score(ctx context.Context, text string) (Score, error)
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(ctx context.Context, text string) (Score, error)

func (f ScorerFunc) Score(ctx context.Context, text string) (Score, error) { return f(ctx, text) }

//go:embed lexicon.tsv
var lexiconTSV []byte

// LexiconScorer takes polarity from VADER and subjectivity from an embedded
// English word list. VADER handles boosters, negation and punctuation
// emphasis; it has no notion of subjectivity.
type LexiconScorer struct {
	vader        *govader.SentimentIntensityAnalyzer
	subjectivity map[string]float64
}

var (
	intensifiers = map[string]float64{
		"very": 1.3, "really": 1.3, "so": 1.2, "extremely": 1.5, "super": 1.4,
		"too": 1.2, "totally": 1.3, "absolutely": 1.4, "incredibly": 1.5, "highly": 1.3,
		"truly": 1.2, "pretty": 1.1, "quite": 1.1, "most": 1.2, "much": 1.1,
	}
	// hedges mark lukewarm comments ("ok i guess"); VADER scores the
	// sentiment word alone and overstates them.
	hedges = map[string]bool{
		"guess": true, "suppose": true, "kinda": true, "sorta": true, "maybe": true, "probably": true,
	}
)

const hedgeFactor = 0.3

func NewLexiconScorer() (*LexiconScorer, error) {
	words := make(map[string]float64, 512)
	sc := bufio.NewScanner(bytes.NewReader(lexiconTSV))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("lexicon line %d: expected 2 fields, got %d", line, len(fields))
		}
		s, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		words[fields[0]] = s
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return &LexiconScorer{vader: govader.NewSentimentIntensityAnalyzer(), subjectivity: words}, nil
}

func (l *LexiconScorer) Score(_ context.Context, text string) (Score, error) {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	polarity := l.vader.PolarityScores(text).Compound
	if slices.ContainsFunc(tokens, func(t string) bool { return hedges[t] }) {
		polarity *= hedgeFactor
	}

	var sum float64
	matched := 0
	for i, tok := range tokens {
		s, ok := l.subjectivity[tok]
		if !ok {
			continue
		}
		if i > 0 {
			if f, ok := intensifiers[tokens[i-1]]; ok {
				s *= f
			}
		}
		sum += s
		matched++
	}
	var subjectivity float64
	if matched > 0 {
		subjectivity = sum / float64(matched)
	}
	return Score{Polarity: polarity, Subjectivity: subjectivity}.clamped(), nil
}
