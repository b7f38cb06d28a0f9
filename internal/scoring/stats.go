package scoring

import (
	"math"
	"sort"

	"github.com/forecastlab/econcast/internal/domain"
)

// UserStats computes one user's derived statistics from a snapshot of
// questions and forecast history records. Records belonging to other users
// are ignored, so callers may pass an unfiltered snapshot.
//
// Two different denominators are in play, deliberately: QuestionsAnswered
// counts every distinct question the user has ever forecast on, while
// BrierScore and Accuracy average only over the resolved subset. The
// headline count and the accuracy base intentionally diverge.
func UserStats(userID string, questions []domain.Question, records []domain.ForecastRecord) domain.UserStat {
	byQuestion := groupByQuestion(userID, records)

	var (
		scoreSum      float64
		resolvedCount int
		correctCount  int
	)

	for _, q := range questions {
		history, ok := byQuestion[q.ID]
		if !ok || !q.Resolved {
			continue
		}

		resolvedCount++
		scoreSum += TimeWeightedScore(history, q)

		if lastForecastCorrect(history, q) {
			correctCount++
		}
	}

	stat := domain.UserStat{
		QuestionsAnswered: len(byQuestion),
	}
	if resolvedCount > 0 {
		stat.BrierScore = round(scoreSum/float64(resolvedCount), 3)
		stat.Accuracy = round(100*float64(correctCount)/float64(resolvedCount), 1)
	}
	return stat
}

// Leaderboard ranks every user by ascending BrierScore (lower is better).
// The sort is stable: users with equal scores keep their input order, so
// ties break by snapshot order rather than randomly. Users with no resolved
// answered questions carry the sentinel score 0 and therefore sort ahead of
// genuinely scored forecasters; the webapp has always rendered them that
// way, and changing it would reorder the historical board.
func Leaderboard(users []domain.User, questions []domain.Question, records []domain.ForecastRecord) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			User:  u,
			Stats: UserStats(u.ID, questions, records),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Stats.BrierScore < entries[j].Stats.BrierScore
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// groupByQuestion collects one user's records into per-question histories,
// each ordered by CreatedAt ascending.
func groupByQuestion(userID string, records []domain.ForecastRecord) map[string][]domain.ForecastRecord {
	byQuestion := make(map[string][]domain.ForecastRecord)
	for _, r := range records {
		if r.UserID != userID {
			continue
		}
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}
	for id := range byQuestion {
		history := byQuestion[id]
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].CreatedAt.Before(history[j].CreatedAt)
		})
	}
	return byQuestion
}

// lastForecastCorrect reports whether the arg-max key of the user's final
// revision matches the resolved outcome. Ties break toward the first key in
// canonical order, which keeps the result stable across runs.
func lastForecastCorrect(history []domain.ForecastRecord, q domain.Question) bool {
	if len(history) == 0 {
		return false
	}

	last := Normalize(history[len(history)-1].Values, q)
	resolution := NormalizeResolution(q)
	if resolution == "" {
		return false
	}

	if last.Type == domain.QuestionTypeBinary {
		p := last.Values[domain.ForecastKeyProbability]
		if p >= 50 {
			return resolution == ResolutionYes
		}
		return resolution == ResolutionNo
	}

	return argMax(last) == resolution
}

// argMax returns the canonical key holding the highest probability, with
// ties broken by first-encountered key order.
func argMax(f Normalized) string {
	var (
		best     string
		bestProb = math.Inf(-1)
	)
	for _, k := range f.Keys {
		if v := f.Values[k]; v > bestProb {
			best = k
			bestProb = v
		}
	}
	return best
}

// round rounds x to the given number of decimal places for display.
func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
