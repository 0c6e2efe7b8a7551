// Package model содержит доменные сущности сервиса дашбордов пожертвований.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record представляет одну сырую запись в том виде, в котором её вернуло хранилище.
type Record map[string]any

// Collection описывает набор записей внешнего хранилища.
type Collection string

const (
	CollectionDonations          Collection = "donations"
	CollectionSchoolProjects     Collection = "school-projects"
	CollectionNgoProjects        Collection = "ngo-projects"
	CollectionStudents           Collection = "students"
	CollectionSchools            Collection = "schools"
	CollectionDonors             Collection = "donors"
	CollectionNgos               Collection = "ngos"
	CollectionDonorGamifications Collection = "donor-gamifications"
	CollectionNgoGamification    Collection = "ngo-gamification"
)

// Collections перечисляет все известные наборы записей.
var Collections = []Collection{
	CollectionDonations,
	CollectionSchoolProjects,
	CollectionNgoProjects,
	CollectionStudents,
	CollectionSchools,
	CollectionDonors,
	CollectionNgos,
	CollectionDonorGamifications,
	CollectionNgoGamification,
}

// ParseCollection возвращает набор записей по его имени в URL.
func ParseCollection(s string) (Collection, bool) {
	for _, c := range Collections {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// PaymentStatus описывает статус оплаты пожертвования.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusUnknown   PaymentStatus = "UNKNOWN"
)

// ParsePaymentStatus приводит произвольную строку к статусу оплаты.
func ParsePaymentStatus(s string) PaymentStatus {
	switch PaymentStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case PaymentStatusPending:
		return PaymentStatusPending
	case PaymentStatusCompleted:
		return PaymentStatusCompleted
	case PaymentStatusFailed:
		return PaymentStatusFailed
	default:
		return PaymentStatusUnknown
	}
}

// Purpose описывает назначение пожертвования.
type Purpose string

const (
	PurposeSchoolProject      Purpose = "SCHOOL_PROJECT"
	PurposeStudentSponsorship Purpose = "STUDENT_SPONSORSHIP"
	PurposeNgoProject         Purpose = "NGO_PROJECT"
	PurposeGeneralSupport     Purpose = "GENERAL_SUPPORT"
)

// ParsePurpose приводит произвольную строку к назначению пожертвования.
// Неизвестные значения считаются общей поддержкой.
func ParsePurpose(s string) Purpose {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	switch Purpose(v) {
	case PurposeSchoolProject, PurposeStudentSponsorship, PurposeNgoProject:
		return Purpose(v)
	default:
		return PurposeGeneralSupport
	}
}

// ProjectStatus описывает статус проекта. Помимо известных значений допускается любой текст.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// ParseProjectStatus приводит статус проекта к верхнему регистру.
func ParseProjectStatus(s string) ProjectStatus {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "CANCELED" {
		return ProjectStatusCancelled
	}
	return ProjectStatus(v)
}

// OwnerKind указывает, кому принадлежит проект.
type OwnerKind string

const (
	OwnerSchool OwnerKind = "school"
	OwnerNgo    OwnerKind = "ngo"
)

// Donation описывает пожертвование. Ссылки на школьный проект и проект НКО
// хранятся раздельно: идентификаторы в двух коллекциях могут совпадать.
type Donation struct {
	ID              string
	Amount          decimal.Decimal
	Status          PaymentStatus
	Purpose         Purpose
	DonorID         string
	SchoolID        string
	NgoID           string
	SchoolProjectID string
	NgoProjectID    string
	StudentID       string
	CreatedAt       time.Time
	HasDate         bool
}

// Project описывает проект школы или НКО.
type Project struct {
	ID               string
	OwnerID          string
	OwnerKind        OwnerKind
	Title            string
	RequiredAmount   decimal.Decimal
	RaisedAmount     decimal.Decimal
	Status           ProjectStatus
	BeneficiaryCount int
}

// Student описывает ученика школы.
type Student struct {
	ID        string
	SchoolID  string
	Name      string
	Sponsored bool
	SponsorID string
	Risk      string
}

// School описывает школу.
type School struct {
	ID   string
	Name string
}

// Actor описывает донора или НКО в справочнике.
type Actor struct {
	ID   string
	Name string
}

// Badge описывает идентификатор полученного достижения.
type Badge string

// Profile содержит игровой профиль донора или НКО.
type Profile struct {
	ID          string
	ActorID     string
	TotalPoints int
	ImpactScore float64
	Badges      []Badge
}

// ZeroProfile возвращает профиль по умолчанию для участника без записи геймификации.
func ZeroProfile(actorID string) Profile {
	return Profile{ActorID: actorID, Badges: []Badge{}}
}

// Role описывает роль, от лица которой строится дашборд.
type Role string

const (
	RoleSchool Role = "school"
	RoleDonor  Role = "donor"
	RoleNgo    Role = "ngo"
)

// ParseRole возвращает роль по её имени.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(s)) {
	case RoleSchool:
		return RoleSchool, true
	case RoleDonor:
		return RoleDonor, true
	case RoleNgo:
		return RoleNgo, true
	}
	return "", false
}

// Scope задаёт роль и ключ участника, для которого фильтруются данные.
type Scope struct {
	Role Role
	Key  string
}

func (s Scope) String() string {
	return string(s.Role) + ":" + s.Key
}
