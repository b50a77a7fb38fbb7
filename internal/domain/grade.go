package domain

import "time"

// GradeNone is reported as the highest grade of a student with no history.
const GradeNone = "none"

// GradeLadder lists the canonical grades from lowest to highest.
// A grade's rank is its index + 1.
var GradeLadder = [...]string{
	"10th Kyu", "9th Kyu", "8th Kyu", "7th Kyu", "6th Kyu",
	"5th Kyu", "4th Kyu", "3rd Kyu", "2nd Kyu", "1st Kyu",
	"1st Dan", "2nd Dan", "3rd Dan", "4th Dan", "5th Dan",
	"6th Dan", "7th Dan", "8th Dan", "9th Dan", "10th Dan",
}

var gradeRanks = func() map[string]int {
	m := make(map[string]int, len(GradeLadder))
	for i, g := range GradeLadder {
		m[g] = i + 1
	}
	return m
}()

// Grade is a single award in a student's grading history.
type Grade struct {
	// ID is the gradeId some older records carry. Grades recorded by this service leave it empty.
	ID         string
	DatePassed string
	Examiner   string
	Name       string
	CreatedAt  time.Time
}

func (g Grade) Rank() int { return GradeRank(g.Name) }

// GradeRank returns 1..20 for ladder grades and 0 for anything else.
func GradeRank(name string) int {
	return gradeRanks[name]
}

// HighestGrade scans history for the maximum rank. The first of equal maxima wins.
func HighestGrade(history []Grade) (Grade, bool) {
	if len(history) == 0 {
		return Grade{}, false
	}
	best := history[0]
	for _, g := range history[1:] {
		if g.Rank() > best.Rank() {
			best = g
		}
	}
	return best, true
}

// HighestGradeName is HighestGrade with the GradeNone sentinel for empty histories.
func HighestGradeName(history []Grade) string {
	g, ok := HighestGrade(history)
	if !ok {
		return GradeNone
	}
	return g.Name
}

// NextGrade returns the grade one step above current.
// Without a current grade it returns the first grade; at the top of the ladder or for an
// unrecognized grade it returns current unchanged.
func NextGrade(current string) string {
	if current == "" || current == GradeNone {
		return GradeLadder[0]
	}
	r := GradeRank(current)
	if r >= 1 && r < len(GradeLadder) {
		return GradeLadder[r]
	}
	return current
}

// NextGradeFor returns the promotion target for a grading history.
func NextGradeFor(history []Grade) string {
	return NextGrade(HighestGradeName(history))
}
