// Package refresh управляет пересчётом дашбордов: параллельно загружает
// коллекции, строит представление целиком и применяет его атомарно,
// отбрасывая результаты устаревших поколений.
package refresh

import (
	"net/url"
	"slices"

	"github.com/mmeshcher/impact-dashboard/internal/ingest"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// Request описывает загрузку одной коллекции.
type Request struct {
	Collection model.Collection
	// Query передаётся хранилищу как подсказка для фильтрации на его стороне.
	Query url.Values
	// KeyFields перечисляет поля внешнего ключа, по которым ответ дополнительно
	// фильтруется ключом области, если хранилище проигнорировало Query.
	KeyFields []string
	// Optional означает, что коллекция не входит в число обязательных: её отказ
	// не учитывается при определении полного отсутствия данных.
	Optional bool
}

func scoped(param, key string) url.Values {
	return url.Values{param: []string{key}}
}

// PlanFor возвращает набор загрузок для дашборда указанной роли.
func PlanFor(scope model.Scope) []Request {
	key := scope.Key

	switch scope.Role {
	case model.RoleDonor:
		return []Request{
			{Collection: model.CollectionDonations, Query: scoped("donor", key), KeyFields: ingest.DonorKeyFields},
			{Collection: model.CollectionSchoolProjects},
			{Collection: model.CollectionNgoProjects},
			{Collection: model.CollectionStudents, Optional: true},
			{Collection: model.CollectionSchools, Optional: true},
			{Collection: model.CollectionDonorGamifications},
			{Collection: model.CollectionDonors, Optional: true},
		}
	case model.RoleSchool:
		return []Request{
			{Collection: model.CollectionDonations, Query: scoped("school", key)},
			{Collection: model.CollectionSchoolProjects, Query: scoped("school", key), KeyFields: ingest.OwnerFields(model.OwnerSchool)},
			{Collection: model.CollectionStudents, Query: scoped("school", key), KeyFields: ingest.SchoolKeyFields},
			{Collection: model.CollectionSchools, Optional: true},
		}
	case model.RoleNgo:
		return []Request{
			{Collection: model.CollectionDonations, Query: scoped("ngo", key)},
			{Collection: model.CollectionNgoProjects, Query: scoped("ngo", key), KeyFields: ingest.OwnerFields(model.OwnerNgo)},
			{Collection: model.CollectionNgoGamification},
			{Collection: model.CollectionNgos, Optional: true},
		}
	default:
		return nil
	}
}

// LeaderboardPlan возвращает набор загрузок для рейтинга доноров или НКО.
func LeaderboardPlan(role model.Role) []Request {
	switch role {
	case model.RoleDonor:
		return []Request{
			{Collection: model.CollectionDonorGamifications},
			{Collection: model.CollectionDonors, Optional: true},
		}
	case model.RoleNgo:
		return []Request{
			{Collection: model.CollectionNgoGamification},
			{Collection: model.CollectionNgos, Optional: true},
		}
	default:
		return nil
	}
}

// Affects сообщает, затрагивает ли изменение коллекции указанный план.
func Affects(plan []Request, collection model.Collection) bool {
	return slices.ContainsFunc(plan, func(r Request) bool {
		return r.Collection == collection
	})
}
