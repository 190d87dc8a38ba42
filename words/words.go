package words

import (
	"math/rand"
	"sync"
)

type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return "unknown"
}

type Word struct {
	Text       string
	Difficulty Difficulty
}

var tiers = []Difficulty{Easy, Medium, Hard}

// DifficultyOf reports the tier a pool word belongs to. Words selected
// through an exhausted-pool fallback may still be found here; words not
// in any pool report false.
func DifficultyOf(text string) (Difficulty, bool) {
	for _, tier := range tiers {
		for _, w := range pools[tier] {
			if w == text {
				return tier, true
			}
		}
	}
	return Easy, false
}

// Picker draws candidate words for one room session. It remembers every
// word it has handed out so repeats within a session are excluded until
// a tier runs dry.
type Picker struct {
	rng    *rand.Rand
	locker sync.Mutex
	used   map[string]struct{}
}

func NewPicker(seed int64) *Picker {
	return &Picker{
		rng:  rand.New(rand.NewSource(seed)),
		used: make(map[string]struct{}),
	}
}

func (p *Picker) MarkUsed(text string) {
	p.locker.Lock()
	p.used[text] = struct{}{}
	p.locker.Unlock()
}

// Choices returns n candidate words. For n >= 3 at least one word from
// each difficulty tier is offered; remaining slots are filled from
// random tiers. Used words are excluded unless a tier is exhausted, in
// which case that tier falls back to an unfiltered draw. When n exceeds
// the number of distinct pool words the result is capped at the pool
// size.
func (p *Picker) Choices(n int) []Word {
	p.locker.Lock()
	defer p.locker.Unlock()

	if n <= 0 {
		return nil
	}

	out := make([]Word, 0, n)
	seen := make(map[string]struct{}, n)

	pick := func(tier Difficulty) {
		candidates := make([]string, 0, len(pools[tier]))
		for _, w := range pools[tier] {
			_, used := p.used[w]
			_, dup := seen[w]
			if !used && !dup {
				candidates = append(candidates, w)
			}
		}
		if len(candidates) == 0 {
			// Tier exhausted for this session; draw unfiltered.
			for _, w := range pools[tier] {
				if _, dup := seen[w]; !dup {
					candidates = append(candidates, w)
				}
			}
		}
		if len(candidates) == 0 {
			return
		}
		w := candidates[p.rng.Intn(len(candidates))]
		seen[w] = struct{}{}
		out = append(out, Word{Text: w, Difficulty: tier})
	}

	if n >= len(tiers) {
		for _, tier := range tiers {
			pick(tier)
		}
	}
	for len(out) < n {
		// One pass over every tier from a random start; when a full
		// pass adds nothing the distinct pool is exhausted.
		before := len(out)
		offset := p.rng.Intn(len(tiers))
		for i := 0; i < len(tiers) && len(out) < n; i++ {
			pick(tiers[(offset+i)%len(tiers)])
		}
		if len(out) == before {
			break
		}
	}

	return out
}

// Lowest returns the lowest-difficulty word among choices; used for
// auto-selection when the selection deadline elapses.
func Lowest(choices []Word) (Word, bool) {
	if len(choices) == 0 {
		return Word{}, false
	}
	best := choices[0]
	for _, c := range choices[1:] {
		if c.Difficulty < best.Difficulty {
			best = c
		}
	}
	return best, true
}
