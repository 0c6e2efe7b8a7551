package service

import (
	"sort"
	"time"

	"github.com/mmeshcher/impact-dashboard/internal/join"
	"github.com/mmeshcher/impact-dashboard/internal/leaderboard"
	"github.com/mmeshcher/impact-dashboard/internal/leveling"
	"github.com/mmeshcher/impact-dashboard/internal/metrics"
	"github.com/mmeshcher/impact-dashboard/internal/model"
	"github.com/mmeshcher/impact-dashboard/internal/refresh"
)

var purposeOrder = []model.Purpose{
	model.PurposeSchoolProject,
	model.PurposeStudentSponsorship,
	model.PurposeNgoProject,
	model.PurposeGeneralSupport,
}

func isCompleted(d model.Donation) bool {
	return d.Status == model.PaymentStatusCompleted
}

func (s *Service) buildDonor(b *refresh.Bundle) *DonorView {
	key := b.Scope.Key
	donations := join.DonationsByDonor(b.Donations, key)
	completed := join.Filter(donations, isCompleted)
	links := join.NewLinks(b.SchoolProjects, b.NgoProjects, b.Students)

	v := &DonorView{
		Name:           actorName(b.Donors, key),
		TotalDonated:   metrics.SumAmount(donations, model.PaymentStatusCompleted).InexactFloat64(),
		PendingAmount:  metrics.SumAmount(donations, model.PaymentStatusPending).InexactFloat64(),
		DonationsCount: len(donations),
		CompletedCount: len(completed),
		FailedCount:    metrics.Count(donations, model.PaymentStatusFailed),
	}

	thisMonth := metrics.PeriodFilter(completed, metrics.DonationDate, metrics.PeriodOf(s.now()))
	v.ThisMonthDonated = metrics.SumAmount(thisMonth).InexactFloat64()

	// Школа учитывается один раз, сколько бы завершённых пожертвований ей ни было.
	v.UniqueSchoolsCount = metrics.CountUnique(completed, links.DonationSchool)
	v.SupportedSchools = schoolNames(b.Schools, join.Build(completed, links.DonationSchool).Keys())

	helped := make([]string, 0, len(completed))
	for _, d := range completed {
		helped = append(helped, d.StudentID)
	}
	for _, st := range join.StudentsSponsoredBy(b.Students, key) {
		helped = append(helped, st.ID)
	}
	v.StudentsHelpedCount = metrics.CountUnique(helped, func(id string) string { return id })

	// Проекты школ и НКО различаются по типу владельца: их идентификаторы могут совпадать.
	v.ActiveProjectsCount = metrics.From(
		metrics.CountUnique(completed, func(d model.Donation) string {
			p, ok := links.Project(d)
			if !ok || p.Status != model.ProjectStatusActive {
				return ""
			}
			return string(p.OwnerKind) + ":" + p.ID
		}),
		b.Loaded(model.CollectionSchoolProjects) && b.Loaded(model.CollectionNgoProjects),
	)

	for _, p := range purposeOrder {
		items := join.Filter(completed, func(d model.Donation) bool { return d.Purpose == p })
		v.ByPurpose = append(v.ByPurpose, PurposeTotal{
			Purpose: p,
			Amount:  metrics.SumAmount(items).InexactFloat64(),
			Count:   len(items),
		})
	}

	v.Achievements = s.achievements(b.DonorProfiles, b.Donors, key, b.Loaded(model.CollectionDonorGamifications))
	v.RecentDonations = recentDonations(donations, s.recentLimit)

	return v
}

func (s *Service) achievements(profiles []model.Profile, actors []model.Actor, key string, loaded bool) Achievements {
	profile, found := join.ProfileFor(profiles, key)
	entries := entriesFrom(profiles, actors)

	a := Achievements{
		TotalPoints: profile.TotalPoints,
		ImpactScore: profile.ImpactScore,
		Level:       leveling.For(profile.TotalPoints),
		Badges:      profile.Badges,
		HasProfile:  found,
		Leaders:     leaderboard.Ranked(entries, s.leadersLimit),
	}

	if rank, ok := leaderboard.Rank(entries, key); ok && loaded {
		a.Rank = &rank
	}
	return a
}

func entriesFrom(profiles []model.Profile, actors []model.Actor) []leaderboard.Entry {
	names := join.Build(actors, func(a model.Actor) string { return a.ID })

	entries := make([]leaderboard.Entry, 0, len(profiles))
	for _, p := range profiles {
		// Идентификатор записи геймификации не является идентификатором участника.
		id := p.ActorID
		if id == "" {
			continue
		}

		name := id
		if a, ok := names.First(id); ok && a.Name != "" {
			name = a.Name
		}

		entries = append(entries, leaderboard.Entry{
			ActorID:     id,
			Name:        name,
			TotalPoints: p.TotalPoints,
			ImpactScore: p.ImpactScore,
		})
	}
	return entries
}

func actorName(actors []model.Actor, id string) string {
	a, ok := join.Build(actors, func(a model.Actor) string { return a.ID }).First(id)
	if !ok {
		return ""
	}
	return a.Name
}

func schoolNames(schools []model.School, ids []string) []string {
	idx := join.Build(schools, func(s model.School) string { return s.ID })

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := idx.First(id); ok && s.Name != "" {
			out = append(out, s.Name)
			continue
		}
		out = append(out, id)
	}
	return out
}

// recentDonations возвращает последние пожертвования, сначала самые новые.
// Пожертвования без даты идут в конце в исходном порядке.
func recentDonations(donations []model.Donation, limit int) []DonationSummary {
	sorted := make([]model.Donation, len(donations))
	copy(sorted, donations)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.HasDate != b.HasDate {
			return a.HasDate
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]DonationSummary, 0, len(sorted))
	for _, d := range sorted {
		item := DonationSummary{
			ID:      d.ID,
			Amount:  d.Amount.InexactFloat64(),
			Status:  d.Status,
			Purpose: d.Purpose,
		}
		if d.HasDate {
			t := d.CreatedAt.In(time.UTC)
			item.CreatedAt = &t
		}
		out = append(out, item)
	}
	return out
}
