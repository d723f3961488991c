package game

import (
	"context"
	"fmt"

	"github.com/talgya/rookery/internal/catalog"
)

// milestoneCounts tallies achieved milestone rewards across every
// researcher track.
type milestoneCounts struct {
	gardenSpace  int
	prayerBonus  int
	nestCapacity int
}

func (e *Engine) milestones(tx Tx) (*milestoneCounts, error) {
	points, err := tx.AllResearch()
	if err != nil {
		return nil, err
	}
	counts := &milestoneCounts{}
	for _, r := range e.catalog.Researchers {
		pts := points[r.Name]
		for _, m := range r.Milestones {
			if pts < m.Points {
				continue
			}
			switch m.Reward {
			case catalog.RewardGardenSpace:
				counts.gardenSpace++
			case catalog.RewardPrayerBonus:
				counts.prayerBonus++
			case catalog.RewardNestCapacity:
				counts.nestCapacity++
			}
		}
	}
	return counts, nil
}

// prayerExponent compounds with every prayer-bonus milestone achieved.
func (e *Engine) prayerExponent(tx Tx) (float64, error) {
	counts, err := e.milestones(tx)
	if err != nil {
		return 1, err
	}
	return 1 + 0.01*float64(counts.prayerBonus), nil
}

// maxGardenSize is the global garden ceiling including research bonus.
func (e *Engine) maxGardenSize(tx Tx) (int, error) {
	counts, err := e.milestones(tx)
	if err != nil {
		return MaxGardenSize, err
	}
	return MaxGardenSize + counts.gardenSpace, nil
}

// maxBirds is the per-nest bird ceiling including research bonus.
func (e *Engine) maxBirds(tx Tx) (int, error) {
	counts, err := e.milestones(tx)
	if err != nil {
		return MaxBirdsPerNest, err
	}
	return MaxBirdsPerNest + counts.nestCapacity, nil
}

// Quote is one study prompt with its author hidden among options.
type Quote struct {
	Text    string
	Author  string
	Options []string
}

type pendingStudy struct {
	quote   Quote
	actions int
}

// StudyResult reports the outcome of an answered study session.
type StudyResult struct {
	Correct       bool
	Author        string
	PointsAwarded int
	TotalPoints   int
	NewMilestones []string
}

// StartStudy charges n study actions and returns a researcher quote.
// The guess is resolved by AnswerStudy; an unanswered session is
// replaced by the next StartStudy.
func (e *Engine) StartStudy(ctx context.Context, playerID string, n int) (*Quote, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if len(e.catalog.Researchers) == 0 {
		return nil, fmt.Errorf("%w: no researchers in catalog", ErrInternal)
	}
	var quote Quote
	err := e.store.WithTx(ctx, func(tx Tx) error {
		day := e.clock.Today()
		fx, err := e.effectsFor(tx, playerID)
		if err != nil {
			return err
		}
		first, err := e.isFirstOfType(tx, playerID, day, ActionStudy)
		if err != nil {
			return err
		}
		if err := e.spend(tx, playerID, day, n, ActionStudy); err != nil {
			return err
		}
		if first {
			if _, err := e.applyFirstOfDay(tx, playerID, fx, ActionStudy); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r := e.catalog.Researchers[e.rng.Intn(len(e.catalog.Researchers))]
	quote.Author = r.Name
	quote.Text = r.Quotes[e.rng.Intn(len(r.Quotes))]
	for _, other := range e.catalog.Researchers {
		quote.Options = append(quote.Options, other.Name)
	}

	e.mu.Lock()
	e.studies[playerID] = &pendingStudy{quote: quote, actions: n}
	e.mu.Unlock()
	return &quote, nil
}

// AnswerStudy resolves the player's pending quote. A correct author
// yields double points.
func (e *Engine) AnswerStudy(ctx context.Context, playerID, author string) (*StudyResult, error) {
	e.mu.Lock()
	pending, ok := e.studies[playerID]
	if ok {
		delete(e.studies, playerID)
	}
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no study session open", ErrStateViolation)
	}

	res := &StudyResult{Author: pending.quote.Author}
	res.Correct = author == pending.quote.Author
	res.PointsAwarded = pending.actions
	if res.Correct {
		res.PointsAwarded = 2 * pending.actions
	}

	err := e.store.WithTx(ctx, func(tx Tx) error {
		before, err := e.achievedRewards(tx, pending.quote.Author)
		if err != nil {
			return err
		}
		pts, err := tx.ResearchPoints(pending.quote.Author)
		if err != nil {
			return err
		}
		res.TotalPoints = pts + res.PointsAwarded
		if err := tx.SetResearchPoints(pending.quote.Author, res.TotalPoints); err != nil {
			return err
		}
		after, err := e.achievedRewards(tx, pending.quote.Author)
		if err != nil {
			return err
		}
		res.NewMilestones = after[len(before):]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) achievedRewards(tx Tx, author string) ([]string, error) {
	r := e.catalog.ResearcherByName(author)
	if r == nil {
		return nil, nil
	}
	pts, err := tx.ResearchPoints(author)
	if err != nil {
		return nil, err
	}
	var rewards []string
	for _, m := range r.Milestones {
		if pts >= m.Points {
			rewards = append(rewards, m.Reward)
		}
	}
	return rewards, nil
}
