package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/impact-dashboard/internal/join"
	"github.com/mmeshcher/impact-dashboard/internal/metrics"
	"github.com/mmeshcher/impact-dashboard/internal/model"
	"github.com/mmeshcher/impact-dashboard/internal/refresh"
)

func (s *Service) buildSchool(b *refresh.Bundle) *SchoolView {
	key := b.Scope.Key
	projects := join.ProjectsByOwner(b.SchoolProjects, key)
	students := join.StudentsBySchool(b.Students, key)
	links := join.NewLinks(b.SchoolProjects, nil, b.Students)
	donations := join.DonationsBySchool(b.Donations, links, key)
	completed := join.Filter(donations, isCompleted)

	projectsLoaded := b.Loaded(model.CollectionSchoolProjects)
	studentsLoaded := b.Loaded(model.CollectionStudents)

	v := &SchoolView{
		Projects:               projectProgress(projects),
		ProjectsCount:          metrics.From(len(projects), projectsLoaded),
		ActiveProjectsCount:    metrics.From(countStatus(projects, model.ProjectStatusActive), projectsLoaded),
		CompletedProjectsCount: metrics.From(countStatus(projects, model.ProjectStatusCompleted), projectsLoaded),
		StudentsCount:          metrics.From(len(students), studentsLoaded),
		DonationsReceived: metrics.From(
			metrics.SumAmount(completed).InexactFloat64(),
			b.Loaded(model.CollectionDonations),
		),
		PendingAmount:     metrics.SumAmount(donations, model.PaymentStatusPending).InexactFloat64(),
		UniqueDonorsCount: metrics.CountUnique(completed, func(d model.Donation) string { return d.DonorID }),
		Beneficiaries:     beneficiaries(projects),
	}

	if school, ok := join.Build(b.Schools, func(s model.School) string { return s.ID }).First(key); ok {
		v.Name = school.Name
	}

	required, raised := projectTotals(projects)
	v.TotalRequired = required.InexactFloat64()
	v.TotalRaised = raised.InexactFloat64()
	v.OverallProgress = metrics.DecimalPercentage(raised, required)

	sponsored := join.Filter(students, func(st model.Student) bool { return st.Sponsored })
	v.SponsoredStudentsCount = len(sponsored)
	v.SponsorshipRate = metrics.Rate(len(sponsored), len(students))
	v.AtRiskStudentsCount = len(join.Filter(students, func(st model.Student) bool { return isAtRisk(st.Risk) }))

	return v
}

// isAtRisk разбирает классификацию риска, которая на практике приходит свободным текстом.
func isAtRisk(risk string) bool {
	r := strings.ToLower(strings.TrimSpace(risk))
	r = strings.NewReplacer("_", " ", "-", " ").Replace(r)
	switch {
	case r == "":
		return false
	case strings.Contains(r, "high"), strings.Contains(r, "critical"), strings.Contains(r, "at risk"):
		return true
	default:
		return false
	}
}

func countStatus(projects []model.Project, status model.ProjectStatus) int {
	return len(join.Filter(projects, func(p model.Project) bool { return p.Status == status }))
}

func projectTotals(projects []model.Project) (decimal.Decimal, decimal.Decimal) {
	required, raised := decimal.Zero, decimal.Zero
	for _, p := range projects {
		required = required.Add(p.RequiredAmount)
		raised = raised.Add(p.RaisedAmount)
	}
	return required, raised
}

// beneficiaries суммирует благополучателей проектов, кроме отменённых.
func beneficiaries(projects []model.Project) int {
	total := 0
	for _, p := range projects {
		if p.Status == model.ProjectStatusCancelled {
			continue
		}
		total += p.BeneficiaryCount
	}
	return total
}

func projectProgress(projects []model.Project) []ProjectProgress {
	out := make([]ProjectProgress, 0, len(projects))
	for _, p := range projects {
		raised := p.RaisedAmount.InexactFloat64()
		required := p.RequiredAmount.InexactFloat64()
		out = append(out, ProjectProgress{
			ID:               p.ID,
			Title:            p.Title,
			Status:           p.Status,
			RequiredAmount:   required,
			RaisedAmount:     raised,
			Progress:         metrics.Percentage(raised, required),
			ProgressWidth:    metrics.ProgressWidth(raised, required),
			BeneficiaryCount: p.BeneficiaryCount,
		})
	}
	return out
}
