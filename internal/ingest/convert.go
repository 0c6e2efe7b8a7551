package ingest

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/impact-dashboard/internal/leveling"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// Синонимы полей, встречающиеся в записях хранилища.
var (
	idFields         = []string{"id", "documentId"}
	amountFields     = []string{"amount", "donationAmount", "value"}
	payStatusFields  = []string{"paymentStatus", "status"}
	purposeFields    = []string{"purpose", "donationPurpose", "donationType"}
	donorFields      = []string{"donorId", "donor"}
	schoolFields     = []string{"schoolId", "school"}
	ngoFields        = []string{"ngoId", "ngo"}
	projectFields    = []string{"projectId", "project"}
	schoolProjFields = []string{"schoolProjectId", "schoolProject"}
	ngoProjFields    = []string{"ngoProjectId", "ngoProject"}
	studentFields    = []string{"studentId", "student"}
	dateFields       = []string{"donationDate", "createdAt", "timestamp", "date"}

	titleFields       = []string{"title", "name", "projectName"}
	requiredFields    = []string{"requiredAmount", "targetAmount", "goalAmount", "fundingGoal"}
	raisedFields      = []string{"raisedAmount", "currentAmount", "amountRaised", "fundsRaised"}
	projStatusFields  = []string{"status", "projectStatus"}
	beneficiaryFields = []string{"beneficiaryCount", "beneficiariesCount", "beneficiaries"}

	nameFields      = []string{"name", "fullName", "displayName", "organizationName", "ngoName", "schoolName", "username"}
	sponsoredFields = []string{"isSponsored", "sponsored", "sponsorshipStatus"}
	sponsorFields   = []string{"sponsorId", "sponsoredBy", "sponsor"}
	riskFields      = []string{"riskLevel", "riskClassification", "riskStatus", "risk"}

	actorFields  = []string{"donorId", "donor", "ngoId", "ngo", "userId", "user"}
	pointsFields = []string{"totalPoints", "points"}
	impactFields = []string{"impactScore"}
	badgeFields  = []string{"badgesEarned", "badges"}
)

// Поля внешних ключей по ролям, используемые для фильтрации сырых записей.
var (
	DonorKeyFields  = donorFields
	SchoolKeyFields = schoolFields
)

// OwnerFields возвращает синонимы поля владельца проекта.
func OwnerFields(kind model.OwnerKind) []string {
	if kind == model.OwnerNgo {
		return append(append([]string{}, ngoFields...), "ownerId", "owner")
	}
	return append(append([]string{}, schoolFields...), "ownerId", "owner")
}

// Donations приводит записи к пожертвованиям. Отрицательные и нечисловые суммы дают 0.
func Donations(records []model.Record) []model.Donation {
	out := make([]model.Donation, 0, len(records))
	for _, raw := range records {
		if raw == nil {
			continue
		}
		r := Flatten(raw)

		d := model.Donation{
			ID:              ID(field(r, idFields...)),
			Amount:          nonNegative(Decimal(field(r, amountFields...))),
			Status:          model.ParsePaymentStatus(String(field(r, payStatusFields...))),
			Purpose:         model.ParsePurpose(String(field(r, purposeFields...))),
			DonorID:         ID(field(r, donorFields...)),
			SchoolID:        ID(field(r, schoolFields...)),
			NgoID:           ID(field(r, ngoFields...)),
			SchoolProjectID: ID(field(r, schoolProjFields...)),
			NgoProjectID:    ID(field(r, ngoProjFields...)),
			StudentID:       ID(field(r, studentFields...)),
		}
		d.CreatedAt, d.HasDate = Time(field(r, dateFields...))
		assignProject(&d, ID(field(r, projectFields...)))

		out = append(out, d)
	}
	return out
}

// Projects приводит записи к проектам указанного типа владельца.
// Отсутствующее число благополучателей считается равным 1.
func Projects(records []model.Record, kind model.OwnerKind) []model.Project {
	owners := OwnerFields(kind)

	out := make([]model.Project, 0, len(records))
	for _, raw := range records {
		if raw == nil {
			continue
		}
		r := Flatten(raw)

		p := model.Project{
			ID:               ID(field(r, idFields...)),
			OwnerID:          ID(field(r, owners...)),
			OwnerKind:        kind,
			Title:            String(field(r, titleFields...)),
			RequiredAmount:   nonNegative(Decimal(field(r, requiredFields...))),
			RaisedAmount:     nonNegative(Decimal(field(r, raisedFields...))),
			Status:           model.ParseProjectStatus(String(field(r, projStatusFields...))),
			BeneficiaryCount: 1,
		}
		if v, ok := Lookup(r, beneficiaryFields...); ok {
			p.BeneficiaryCount = max(Int(v), 0)
		}

		out = append(out, p)
	}
	return out
}

// Students приводит записи к ученикам. Наличие спонсора означает спонсорство,
// даже если флаг не передан.
func Students(records []model.Record) []model.Student {
	out := make([]model.Student, 0, len(records))
	for _, raw := range records {
		if raw == nil {
			continue
		}
		r := Flatten(raw)

		s := model.Student{
			ID:        ID(field(r, idFields...)),
			SchoolID:  ID(field(r, schoolFields...)),
			Name:      studentName(r),
			SponsorID: ID(field(r, sponsorFields...)),
			Risk:      String(field(r, riskFields...)),
		}
		if v, ok := Lookup(r, sponsoredFields...); ok {
			s.Sponsored = Bool(v)
		} else {
			s.Sponsored = s.SponsorID != ""
		}

		out = append(out, s)
	}
	return out
}

// assignProject относит общий projectId к коллекции по назначению пожертвования.
// Без явного назначения проект считается проектом НКО, только если
// пожертвование адресовано НКО и не адресовано школе.
func assignProject(d *model.Donation, id string) {
	if id == "" || d.SchoolProjectID != "" || d.NgoProjectID != "" {
		return
	}
	switch {
	case d.Purpose == model.PurposeNgoProject:
		d.NgoProjectID = id
	case d.Purpose == model.PurposeSchoolProject:
		d.SchoolProjectID = id
	case d.NgoID != "" && d.SchoolID == "":
		d.NgoProjectID = id
	default:
		d.SchoolProjectID = id
	}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func studentName(r model.Record) string {
	if name := String(field(r, nameFields...)); name != "" {
		return name
	}
	first := String(field(r, "firstName"))
	last := String(field(r, "lastName"))
	return strings.TrimSpace(first + " " + last)
}

// Schools приводит записи к школам.
func Schools(records []model.Record) []model.School {
	out := make([]model.School, 0, len(records))
	for _, raw := range records {
		if raw == nil {
			continue
		}
		r := Flatten(raw)
		out = append(out, model.School{
			ID:   ID(field(r, idFields...)),
			Name: String(field(r, nameFields...)),
		})
	}
	return out
}

// Actors приводит записи справочника доноров или НКО.
func Actors(records []model.Record) []model.Actor {
	out := make([]model.Actor, 0, len(records))
	for _, raw := range records {
		if raw == nil {
			continue
		}
		r := Flatten(raw)
		out = append(out, model.Actor{
			ID:   ID(field(r, idFields...)),
			Name: String(field(r, nameFields...)),
		})
	}
	return out
}

// Profiles приводит записи геймификации к профилям. Значки нормализуются
// один раз здесь, баллы не бывают отрицательными, оценка влияния
// ограничивается диапазоном 0..10.
func Profiles(records []model.Record) []model.Profile {
	out := make([]model.Profile, 0, len(records))
	for _, raw := range records {
		if raw == nil {
			continue
		}
		r := Flatten(raw)

		impact := Float(field(r, impactFields...))
		impact = min(max(impact, 0), 10)

		out = append(out, model.Profile{
			ID:          ID(field(r, idFields...)),
			ActorID:     ID(field(r, actorFields...)),
			TotalPoints: max(Int(field(r, pointsFields...)), 0),
			ImpactScore: impact,
			Badges:      leveling.NormalizeBadges(field(r, badgeFields...)),
		})
	}
	return out
}
