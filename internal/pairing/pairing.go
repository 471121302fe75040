// Package pairing builds the pairings of a tournament round.
//
// Generate is a best-effort filler, not a round-robin scheduler: students are
// shuffled and paired off repeatedly until fewer than two of them have
// capacity left under the per-player cap. Randomisation is the only fairness
// mechanism; rematches are allowed and strength is ignored.
package pairing

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/mauv0809/chess-club/internal/club"
)

// ErrInvalidMaxMatches is returned for a cap outside the accepted range.
var ErrInvalidMaxMatches = fmt.Errorf("%w: max_matches must be between %d and %d",
	club.ErrValidation, club.MinMaxMatches, club.MaxMatchesLimit)

// Pair is one unordered pairing of two distinct students.
type Pair struct {
	Student1ID string `json:"student1_id" msgpack:"student1_id"`
	Student2ID string `json:"student2_id" msgpack:"student2_id"`
}

// Result holds the pairs of a round and how many matches each eligible
// student received.
type Result struct {
	Pairs  []Pair
	Counts map[string]int
}

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// ValidateMaxMatches checks the per-player cap.
func ValidateMaxMatches(maxMatches int) error {
	if maxMatches < club.MinMaxMatches || maxMatches > club.MaxMatchesLimit {
		return fmt.Errorf("%w (got %d)", ErrInvalidMaxMatches, maxMatches)
	}
	return nil
}

// Generate pairs the eligible students so that nobody exceeds maxMatches.
// Duplicate ids are collapsed. The input slice is not modified. A nil rng
// falls back to a time-seeded source.
func Generate(eligible []string, maxMatches int, rng *rand.Rand) (Result, error) {
	if err := ValidateMaxMatches(maxMatches); err != nil {
		return Result{}, err
	}
	if rng == nil {
		rng = NewRand(uint64(time.Now().UnixNano()))
	}

	students := make([]string, 0, len(eligible))
	counts := make(map[string]int, len(eligible))
	for _, id := range eligible {
		if strings.TrimSpace(id) == "" {
			return Result{}, fmt.Errorf("%w: blank student id", club.ErrValidation)
		}
		if _, seen := counts[id]; seen {
			continue
		}
		counts[id] = 0
		students = append(students, id)
	}

	pairs := make([]Pair, 0)
	for {
		available := make([]string, 0, len(students))
		for _, id := range students {
			if counts[id] < maxMatches {
				available = append(available, id)
			}
		}
		if len(available) < 2 {
			break
		}

		rng.Shuffle(len(available), func(i, j int) {
			available[i], available[j] = available[j], available[i]
		})
		// An odd student out is reconsidered on the next pass.
		for i := 0; i+1 < len(available); i += 2 {
			s1, s2 := available[i], available[i+1]
			if counts[s1] < maxMatches && counts[s2] < maxMatches {
				pairs = append(pairs, Pair{Student1ID: s1, Student2ID: s2})
				counts[s1]++
				counts[s2]++
			}
		}
	}

	return Result{Pairs: pairs, Counts: counts}, nil
}
