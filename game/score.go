package game

import (
	"math"
	"strings"
	"unicode"

	"github.com/HemantKumar822/doodle-party/words"
)

// NormalizeGuess lowercases, trims, and strips internal whitespace so
// "  Red Panda " and "redpanda" compare equal.
func NormalizeGuess(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsCorrect is strict exact matching after normalization. A fuzzy
// edit-distance matcher exists in the words package but is deliberately
// not wired in here.
func IsCorrect(guess, target string) bool {
	return NormalizeGuess(guess) == NormalizeGuess(target)
}

// RankMultiplier rewards the first solvers: full points for first,
// three quarters for second, half for everyone after.
func RankMultiplier(rank int) float64 {
	switch {
	case rank <= 1:
		return 1.0
	case rank == 2:
		return 0.75
	default:
		return 0.5
	}
}

// GuesserPoints decays linearly from 1000 to a floor of 100 over the
// elapsed drawing time, scaled by the solve rank and then by the game
// mode's points multiplier (floor rounding on the mode step).
func GuesserPoints(elapsedSeconds float64, rank int, mode ModeParams) int {
	base := math.Max(1000-12.5*elapsedSeconds, 100)
	ranked := math.Round(base * RankMultiplier(rank))
	return int(math.Floor(ranked * mode.PointsMultiplier))
}

// DrawerBonus is the flat per-word-difficulty award, fixed at word
// selection time regardless of how many guessers solve the word.
func DrawerBonus(d words.Difficulty) int {
	switch d {
	case words.Easy:
		return 25
	case words.Medium:
		return 50
	case words.Hard:
		return 100
	}
	return 25
}
