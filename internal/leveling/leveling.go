// Package leveling определяет уровни участников по сумме баллов
// и нормализует списки полученных значков.
package leveling

// Tier задаёт порядковый номер уровня. Больший номер соответствует более высокому уровню.
type Tier int

const (
	TierBeginner Tier = iota
	TierStarter
	TierAchiever
	TierExpert
	TierChampion
)

type threshold struct {
	tier  Tier
	name  string
	lower int
}

// Таблица упорядочена по возрастанию нижней границы.
var thresholds = []threshold{
	{TierBeginner, "Beginner", 0},
	{TierStarter, "Starter", 100},
	{TierAchiever, "Achiever", 200},
	{TierExpert, "Expert", 500},
	{TierChampion, "Champion", 1000},
}

// String возвращает название уровня.
func (t Tier) String() string {
	if t < 0 || int(t) >= len(thresholds) {
		return "Unknown"
	}
	return thresholds[t].name
}

// Level описывает уровень участника и прогресс до следующего порога.
type Level struct {
	Tier     Tier    `json:"-"`
	Name     string  `json:"name"`
	Points   int     `json:"points"`
	Next     int     `json:"nextThreshold,omitempty"`
	HasNext  bool    `json:"hasNext"`
	Progress float64 `json:"progressPercentage"`
}

// For вычисляет уровень по сумме баллов: выбирается старший уровень,
// нижняя граница которого не превышает баллы. Отрицательные баллы считаются нулём.
func For(points int) Level {
	if points < 0 {
		points = 0
	}

	idx := 0
	for i, th := range thresholds {
		if points >= th.lower {
			idx = i
		}
	}

	lvl := Level{
		Tier:     thresholds[idx].tier,
		Name:     thresholds[idx].name,
		Points:   points,
		Progress: 100,
	}

	if idx+1 < len(thresholds) {
		lvl.Next = thresholds[idx+1].lower
		lvl.HasNext = true
		lvl.Progress = float64(points) / float64(lvl.Next) * 100
	}

	return lvl
}
