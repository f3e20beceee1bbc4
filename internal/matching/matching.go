// Package matching scores text segments against skill embeddings and ranks the best match per skill.
package matching

import (
	"fmt"
	"sort"

	"github.com/formbricks/skillmatch/internal/apperrors"
	"github.com/formbricks/skillmatch/pkg/embeddings"
)

// DefaultMaxResults caps the ranked list regardless of threshold.
const DefaultMaxResults = 50

// Result is the best match for one skill.
type Result struct {
	Skill   string  `json:"skill"`
	Score   float64 `json:"score"`
	Example string  `json:"example"`
}

// Options controls filtering and truncation.
type Options struct {
	// Threshold is the minimum cosine similarity for a segment to count as evidence of a skill.
	Threshold float64
	// MaxResults caps the ranked list. Non-positive means DefaultMaxResults.
	MaxResults int
}

// Output is the ranked list plus the number of qualifying skills cut by MaxResults.
type Output struct {
	Results []Result
	Dropped int
}

// Input pairs each segment and skill with its vector. Segments[i] was embedded as SegmentVectors[i];
// Skills[j] as SkillVectors[j].
type Input struct {
	Segments       []string
	SegmentVectors [][]float32
	Skills         []string
	SkillVectors   [][]float32
}

type candidate struct {
	index int
	score float64
	from  int
}

// Match compares every segment with every skill, keeps the highest similarity per skill among
// those at or above the threshold, and returns results sorted by descending score.
// On equal scores the first segment seen is kept as the example, and skills keep catalog order.
// Reported scores are clamped to [0, 1].
func Match(in Input, opts Options) (Output, error) {
	if err := validate(in); err != nil {
		return Output{}, err
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	best := make(map[int]*candidate, len(in.Skills))

	for i, segVec := range in.SegmentVectors {
		for j, skillVec := range in.SkillVectors {
			sim := embeddings.Cosine(segVec, skillVec)
			if sim < opts.Threshold {
				continue
			}

			if cur, ok := best[j]; !ok || sim > cur.score {
				best[j] = &candidate{index: j, score: sim, from: i}
			}
		}
	}

	ranked := make([]*candidate, 0, len(best))
	for _, c := range best {
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}

		return ranked[a].index < ranked[b].index
	})

	out := Output{}
	if len(ranked) > maxResults {
		out.Dropped = len(ranked) - maxResults
		ranked = ranked[:maxResults]
	}

	out.Results = make([]Result, len(ranked))
	for k, c := range ranked {
		out.Results[k] = Result{
			Skill:   in.Skills[c.index],
			Score:   clamp01(c.score),
			Example: in.Segments[c.from],
		}
	}

	return out, nil
}

// validate checks index correspondence and a single dimensionality across all vectors.
func validate(in Input) error {
	if len(in.Segments) != len(in.SegmentVectors) {
		return apperrors.NewProviderResponseShapeError("",
			fmt.Sprintf("got %d segment vectors for %d segments", len(in.SegmentVectors), len(in.Segments)))
	}

	if len(in.Skills) != len(in.SkillVectors) {
		return apperrors.NewProviderResponseShapeError("",
			fmt.Sprintf("got %d skill vectors for %d skills", len(in.SkillVectors), len(in.Skills)))
	}

	dim := -1

	check := func(kind string, idx int, v []float32) error {
		if len(v) == 0 {
			return apperrors.NewProviderResponseShapeError("", fmt.Sprintf("%s vector %d is empty", kind, idx))
		}

		if dim == -1 {
			dim = len(v)

			return nil
		}

		if len(v) != dim {
			return apperrors.NewProviderResponseShapeError("",
				fmt.Sprintf("%s vector %d has dimension %d, want %d", kind, idx, len(v), dim))
		}

		return nil
	}

	for j, v := range in.SkillVectors {
		if err := check("skill", j, v); err != nil {
			return err
		}
	}

	for i, v := range in.SegmentVectors {
		if err := check("segment", i, v); err != nil {
			return err
		}
	}

	return nil
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
