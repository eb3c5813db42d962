package points

import (
	"encoding/json"
	"math"

	"gorm.io/datatypes"

	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
)

// Level is one band of the leveling ladder. MaxPoints is nil for the open top band.
type Level struct {
	Number    int
	Name      string
	NameEn    string
	MinPoints int
	MaxPoints *int
	Perks     []string
}

func bound(v int) *int { return &v }

// Levels partitions [0, inf) with no gaps, ordered by Number.
var Levels = []Level{
	{Number: 1, Name: "Novato", NameEn: "Rookie", MinPoints: 0, MaxPoints: bound(499),
		Perks: []string{"profile_badge"}},
	{Number: 2, Name: "Aprendiz", NameEn: "Apprentice", MinPoints: 500, MaxPoints: bound(1499),
		Perks: []string{"profile_badge", "priority_support"}},
	{Number: 3, Name: "Profesional", NameEn: "Professional", MinPoints: 1500, MaxPoints: bound(3999),
		Perks: []string{"profile_badge", "priority_support", "search_boost"}},
	{Number: 4, Name: "Experto", NameEn: "Expert", MinPoints: 4000, MaxPoints: bound(7999),
		Perks: []string{"profile_badge", "priority_support", "search_boost", "reduced_fees"}},
	{Number: 5, Name: "Maestro", NameEn: "Master", MinPoints: 8000, MaxPoints: bound(14999),
		Perks: []string{"profile_badge", "priority_support", "search_boost", "reduced_fees", "featured_listing"}},
	{Number: 6, Name: "Leyenda", NameEn: "Legend", MinPoints: 15000,
		Perks: []string{"profile_badge", "priority_support", "search_boost", "reduced_fees", "featured_listing", "exclusive_rewards"}},
}

// LevelFor returns the highest band whose MinPoints does not exceed total.
func LevelFor(total int) Level {
	for i := len(Levels) - 1; i >= 0; i-- {
		if Levels[i].MinPoints <= total {
			return Levels[i]
		}
	}
	return Levels[0]
}

// LevelByNumber looks up a band.
func LevelByNumber(number int) (Level, bool) {
	for _, level := range Levels {
		if level.Number == number {
			return level, true
		}
	}
	return Level{}, false
}

// NextLevel returns the band above level, if any.
func NextLevel(level Level) (Level, bool) {
	return LevelByNumber(level.Number + 1)
}

// Progress is the rounded percentage of total within level's band, clamped to [0, 100].
// The open top band has an unbounded span and always reports 0.
func Progress(total int, level Level) int {
	if level.MaxPoints == nil {
		return 0
	}
	span := *level.MaxPoints - level.MinPoints
	if span <= 0 {
		return 100
	}
	pct := int(math.Round(100 * float64(total-level.MinPoints) / float64(span)))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// Model converts the band into its catalog row.
func (l Level) Model() (models.Level, error) {
	perks, err := json.Marshal(l.Perks)
	if err != nil {
		return models.Level{}, err
	}
	row := models.Level{
		LevelNumber: l.Number,
		Name:        l.Name,
		NameEn:      l.NameEn,
		MinPoints:   l.MinPoints,
		Perks:       datatypes.JSON(perks),
	}
	if l.MaxPoints != nil {
		ceiling := *l.MaxPoints
		row.MaxPoints = &ceiling
	}
	return row, nil
}
