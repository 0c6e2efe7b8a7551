package service

import (
	"github.com/mmeshcher/impact-dashboard/internal/join"
	"github.com/mmeshcher/impact-dashboard/internal/metrics"
	"github.com/mmeshcher/impact-dashboard/internal/model"
	"github.com/mmeshcher/impact-dashboard/internal/refresh"
)

func (s *Service) buildNgo(b *refresh.Bundle) *NgoView {
	key := b.Scope.Key
	projects := join.ProjectsByOwner(b.NgoProjects, key)
	donations := join.DonationsByNgo(b.Donations, b.NgoProjects, key)
	completed := join.Filter(donations, isCompleted)

	projectsLoaded := b.Loaded(model.CollectionNgoProjects)

	v := &NgoView{
		Name:                 actorName(b.Ngos, key),
		Projects:             projectProgress(projects),
		ProjectsCount:        metrics.From(len(projects), projectsLoaded),
		ActiveProjectsCount:  metrics.From(countStatus(projects, model.ProjectStatusActive), projectsLoaded),
		BeneficiariesReached: beneficiaries(projects),
		DonationsReceived: metrics.From(
			metrics.SumAmount(completed).InexactFloat64(),
			b.Loaded(model.CollectionDonations),
		),
		UniqueDonorsCount: metrics.CountUnique(completed, func(d model.Donation) string { return d.DonorID }),
		Achievements:      s.achievements(b.NgoProfiles, b.Ngos, key, b.Loaded(model.CollectionNgoGamification)),
	}

	required, raised := projectTotals(projects)
	v.TotalRequired = required.InexactFloat64()
	v.TotalRaised = raised.InexactFloat64()
	v.OverallProgress = metrics.DecimalPercentage(raised, required)

	return v
}
