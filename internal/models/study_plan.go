package models

// GradePlan describes the weekly subject demand for one grade stage. Total is
// always the sum of Subjects; use SetSubject/RemoveSubject so it never drifts.
type GradePlan struct {
	Subjects map[string]int `json:"subjects"`
	Total    int            `json:"total"`
}

// SetSubject updates one subject's weekly count and recomputes the total.
func (p *GradePlan) SetSubject(subject string, weekly int) {
	if p.Subjects == nil {
		p.Subjects = make(map[string]int)
	}
	p.Subjects[subject] = weekly
	p.recompute()
}

// RemoveSubject drops a subject and recomputes the total.
func (p *GradePlan) RemoveSubject(subject string) {
	delete(p.Subjects, subject)
	p.recompute()
}

func (p *GradePlan) recompute() {
	total := 0
	for _, weekly := range p.Subjects {
		total += weekly
	}
	p.Total = total
}

// StudyPlan maps a grade stage name to its weekly plan for one school level.
type StudyPlan map[string]GradePlan

// MaxWeeklyTotal returns the largest weekly period total across all grades.
// It sizes the shared daily period grid.
func (sp StudyPlan) MaxWeeklyTotal() int {
	max := 0
	for _, plan := range sp {
		if plan.Total > max {
			max = plan.Total
		}
	}
	return max
}
