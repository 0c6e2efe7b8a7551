// Package leaderboard упорядочивает участников по сумме баллов.
//
// Порядок полный и детерминированный: баллы по убыванию, при равенстве
// идентификатор по возрастанию (числовые идентификаторы сравниваются как числа).
package leaderboard

import (
	"sort"
	"strconv"

	"github.com/mmeshcher/impact-dashboard/internal/ingest"
	"github.com/mmeshcher/impact-dashboard/internal/leveling"
)

// Entry описывает участника рейтинга.
type Entry struct {
	ActorID     string
	Name        string
	TotalPoints int
	ImpactScore float64
}

// RankedEntry описывает участника с позицией в рейтинге и уровнем.
type RankedEntry struct {
	Rank        int            `json:"rank"`
	ActorID     string         `json:"actorId"`
	Name        string         `json:"name"`
	TotalPoints int            `json:"totalPoints"`
	ImpactScore float64        `json:"impactScore"`
	Level       leveling.Level `json:"level"`
}

// Less задаёт порядок рейтинга.
func Less(a, b Entry) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	return lessID(a.ActorID, b.ActorID)
}

func lessID(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if na != nb {
			return na < nb
		}
		// "007" и "7" равны как числа, порядок между ними задаёт строка.
		return a < b
	case errA == nil:
		// Числовые идентификаторы идут раньше текстовых.
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Sort возвращает отсортированную копию участников. Входной срез не изменяется.
func Sort(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out
}

// Rank возвращает позицию участника (с 1) или false, если его нет в рейтинге.
func Rank(entries []Entry, actorID string) (int, bool) {
	key := ingest.ID(actorID)
	if key == "" {
		return 0, false
	}
	for i, e := range Sort(entries) {
		if ingest.ID(e.ActorID) == key {
			return i + 1, true
		}
	}
	return 0, false
}

// TopN возвращает первые n участников в порядке рейтинга.
func TopN(entries []Entry, n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	sorted := Sort(entries)
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Ranked возвращает первые n участников с позициями и уровнями.
// При n <= 0 возвращаются все участники.
func Ranked(entries []Entry, n int) []RankedEntry {
	if n <= 0 {
		n = len(entries)
	}
	top := TopN(entries, n)

	out := make([]RankedEntry, 0, len(top))
	for i, e := range top {
		out = append(out, RankedEntry{
			Rank:        i + 1,
			ActorID:     e.ActorID,
			Name:        e.Name,
			TotalPoints: e.TotalPoints,
			ImpactScore: e.ImpactScore,
			Level:       leveling.For(e.TotalPoints),
		})
	}
	return out
}
