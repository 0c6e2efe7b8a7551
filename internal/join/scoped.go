package join

import (
	"github.com/mmeshcher/impact-dashboard/internal/ingest"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// DonationsByDonor возвращает пожертвования донора.
func DonationsByDonor(donations []model.Donation, donorID string) []model.Donation {
	key := ingest.ID(donorID)
	return Filter(donations, func(d model.Donation) bool {
		return key != "" && d.DonorID == key
	})
}

// DonationsByNgo возвращает пожертвования, адресованные НКО напрямую
// или через её проекты. Проекты сопоставляются только со ссылкой на проект НКО.
func DonationsByNgo(donations []model.Donation, ngoProjects []model.Project, ngoID string) []model.Donation {
	key := ingest.ID(ngoID)
	owned := projectSet(ProjectsByOwner(ngoProjects, key))
	return Filter(donations, func(d model.Donation) bool {
		if key == "" {
			return false
		}
		if d.NgoID != "" {
			return d.NgoID == key
		}
		_, ok := owned[d.NgoProjectID]
		return ok && d.NgoProjectID != ""
	})
}

// DonationsBySchool возвращает пожертвования, связанные со школой напрямую,
// через её проекты или через её учеников.
func DonationsBySchool(donations []model.Donation, links *Links, schoolID string) []model.Donation {
	key := ingest.ID(schoolID)
	return Filter(donations, func(d model.Donation) bool {
		return key != "" && links.DonationSchool(d) == key
	})
}

// ProjectsByOwner возвращает проекты владельца.
func ProjectsByOwner(projects []model.Project, ownerID string) []model.Project {
	key := ingest.ID(ownerID)
	return Filter(projects, func(p model.Project) bool {
		return key != "" && p.OwnerID == key
	})
}

// StudentsBySchool возвращает учеников школы.
func StudentsBySchool(students []model.Student, schoolID string) []model.Student {
	key := ingest.ID(schoolID)
	return Filter(students, func(s model.Student) bool {
		return key != "" && s.SchoolID == key
	})
}

// StudentsSponsoredBy возвращает учеников, которых спонсирует донор.
func StudentsSponsoredBy(students []model.Student, donorID string) []model.Student {
	key := ingest.ID(donorID)
	return Filter(students, func(s model.Student) bool {
		return key != "" && s.SponsorID == key
	})
}

// ProfileFor возвращает игровой профиль участника. Если записи нет,
// возвращается профиль с нулевыми значениями и false.
func ProfileFor(profiles []model.Profile, actorID string) (model.Profile, bool) {
	key := ingest.ID(actorID)
	for _, p := range profiles {
		if key != "" && p.ActorID == key {
			return p, true
		}
	}
	return model.ZeroProfile(key), false
}

func projectSet(projects []model.Project) map[string]struct{} {
	set := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		set[p.ID] = struct{}{}
	}
	return set
}

// Links хранит индексы проектов школ, проектов НКО и учеников для
// восстановления связей пожертвования. Каждая ссылка разрешается только
// по своей коллекции.
type Links struct {
	schoolProjects *Index[model.Project]
	ngoProjects    *Index[model.Project]
	students       *Index[model.Student]
}

// NewLinks строит индексы для разрешения связей пожертвований.
func NewLinks(schoolProjects, ngoProjects []model.Project, students []model.Student) *Links {
	byID := func(p model.Project) string { return p.ID }
	return &Links{
		schoolProjects: Build(schoolProjects, byID),
		ngoProjects:    Build(ngoProjects, byID),
		students:       Build(students, func(s model.Student) string { return s.ID }),
	}
}

// DonationSchool возвращает школу, к которой относится пожертвование:
// явное поле школы, владелец школьного проекта или школа ученика.
// Пустая строка означает, что школа не определена.
func (l *Links) DonationSchool(d model.Donation) string {
	if d.SchoolID != "" {
		return d.SchoolID
	}
	if l == nil {
		return ""
	}
	if d.SchoolProjectID != "" {
		if p, ok := l.schoolProjects.First(d.SchoolProjectID); ok {
			return p.OwnerID
		}
	}
	if d.StudentID != "" {
		if s, ok := l.students.First(d.StudentID); ok {
			return s.SchoolID
		}
	}
	return ""
}

// Project возвращает проект, которому адресовано пожертвование.
func (l *Links) Project(d model.Donation) (model.Project, bool) {
	if l == nil {
		return model.Project{}, false
	}
	if d.SchoolProjectID != "" {
		return l.schoolProjects.First(d.SchoolProjectID)
	}
	if d.NgoProjectID != "" {
		return l.ngoProjects.First(d.NgoProjectID)
	}
	return model.Project{}, false
}
