package types

// Level is an ordinal proficiency rung. The total order is fixed:
// awareness < foundational < intermediate < advanced < expert.
type Level string

const (
	LevelAwareness    Level = "awareness"
	LevelFoundational Level = "foundational"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

var levelOrdinals = map[Level]int{
	LevelAwareness:    1,
	LevelFoundational: 2,
	LevelIntermediate: 3,
	LevelAdvanced:     4,
	LevelExpert:       5,
}

var ordinalLevels = [...]Level{
	1: LevelAwareness,
	2: LevelFoundational,
	3: LevelIntermediate,
	4: LevelAdvanced,
	5: LevelExpert,
}

// Ordinal returns the 1..5 numeric value of the level, 0 for unknown strings.
func (l Level) Ordinal() int {
	return levelOrdinals[l]
}

func (l Level) Valid() bool {
	_, ok := levelOrdinals[l]
	return ok
}

// Next returns the rung one above l. ok is false at expert.
func (l Level) Next() (Level, bool) {
	ord := l.Ordinal()
	if ord == 0 || ord >= len(ordinalLevels)-1 {
		return l, false
	}
	return ordinalLevels[ord+1], true
}

// LevelFromOrdinal is the inverse of Ordinal. Out-of-range values return awareness.
func LevelFromOrdinal(ord int) Level {
	if ord < 1 || ord >= len(ordinalLevels) {
		return LevelAwareness
	}
	return ordinalLevels[ord]
}

// LevelUpBonus is the point bonus for reaching a level through a level-up.
var LevelUpBonus = map[Level]int{
	LevelFoundational: 50,
	LevelIntermediate: 100,
	LevelAdvanced:     200,
	LevelExpert:       500,
}

// LevelPoints is the cumulative point value a level represents, used for
// progress-to-target computation.
var LevelPoints = map[Level]int{
	LevelAwareness:    0,
	LevelFoundational: 50,
	LevelIntermediate: 150,
	LevelAdvanced:     300,
	LevelExpert:       500,
}
