package service

import (
	"time"

	"github.com/mmeshcher/impact-dashboard/internal/leaderboard"
	"github.com/mmeshcher/impact-dashboard/internal/leveling"
	"github.com/mmeshcher/impact-dashboard/internal/metrics"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// Dashboard содержит агрегированное представление для одной области.
// Заполнено ровно одно из полей Donor, School, Ngo.
type Dashboard struct {
	Role        model.Role         `json:"role"`
	ScopeKey    string             `json:"scopeKey"`
	Donor       *DonorView         `json:"donor,omitempty"`
	School      *SchoolView        `json:"school,omitempty"`
	Ngo         *NgoView           `json:"ngo,omitempty"`
	Unavailable []model.Collection `json:"unavailable"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// Achievements содержит игровые показатели участника.
type Achievements struct {
	TotalPoints int                       `json:"totalPoints"`
	ImpactScore float64                   `json:"impactScore"`
	Level       leveling.Level            `json:"level"`
	Badges      []model.Badge             `json:"badges"`
	Rank        *int                      `json:"rank"`
	HasProfile  bool                      `json:"hasProfile"`
	Leaders     []leaderboard.RankedEntry `json:"leaders"`
}

// PurposeTotal содержит сумму завершённых пожертвований по назначению.
type PurposeTotal struct {
	Purpose model.Purpose `json:"purpose"`
	Amount  float64       `json:"amount"`
	Count   int           `json:"count"`
}

// DonorView описывает дашборд донора.
type DonorView struct {
	Name                string              `json:"name,omitempty"`
	TotalDonated        float64             `json:"totalDonated"`
	PendingAmount       float64             `json:"pendingAmount"`
	DonationsCount      int                 `json:"donationsCount"`
	CompletedCount      int                 `json:"completedCount"`
	FailedCount         int                 `json:"failedCount"`
	ThisMonthDonated    float64             `json:"thisMonthDonated"`
	UniqueSchoolsCount  int                 `json:"uniqueSchoolsCount"`
	SupportedSchools    []string            `json:"supportedSchools"`
	StudentsHelpedCount int                 `json:"studentsHelpedCount"`
	ActiveProjectsCount metrics.Result[int] `json:"activeProjectsCount"`
	ByPurpose           []PurposeTotal      `json:"byPurpose"`
	Achievements        Achievements        `json:"achievements"`
	RecentDonations     []DonationSummary   `json:"recentDonations"`
}

// DonationSummary описывает строку списка последних пожертвований.
type DonationSummary struct {
	ID        string              `json:"id"`
	Amount    float64             `json:"amount"`
	Status    model.PaymentStatus `json:"status"`
	Purpose   model.Purpose       `json:"purpose"`
	CreatedAt *time.Time          `json:"createdAt,omitempty"`
}

// ProjectProgress описывает прогресс сбора по проекту.
type ProjectProgress struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Status           model.ProjectStatus `json:"status"`
	RequiredAmount   float64             `json:"requiredAmount"`
	RaisedAmount     float64             `json:"raisedAmount"`
	Progress         float64             `json:"progressPercentage"`
	ProgressWidth    float64             `json:"progressWidth"`
	BeneficiaryCount int                 `json:"beneficiaryCount"`
}

// SchoolView описывает дашборд школы.
type SchoolView struct {
	Name                   string                  `json:"name,omitempty"`
	Projects               []ProjectProgress       `json:"projects"`
	ProjectsCount          metrics.Result[int]     `json:"projectsCount"`
	ActiveProjectsCount    metrics.Result[int]     `json:"activeProjectsCount"`
	CompletedProjectsCount metrics.Result[int]     `json:"completedProjectsCount"`
	TotalRequired          float64                 `json:"totalRequired"`
	TotalRaised            float64                 `json:"totalRaised"`
	OverallProgress        float64                 `json:"overallProgress"`
	StudentsCount          metrics.Result[int]     `json:"studentsCount"`
	SponsoredStudentsCount int                     `json:"sponsoredStudentsCount"`
	SponsorshipRate        float64                 `json:"sponsorshipRate"`
	AtRiskStudentsCount    int                     `json:"atRiskStudentsCount"`
	DonationsReceived      metrics.Result[float64] `json:"donationsReceived"`
	PendingAmount          float64                 `json:"pendingAmount"`
	UniqueDonorsCount      int                     `json:"uniqueDonorsCount"`
	Beneficiaries          int                     `json:"beneficiaries"`
}

// NgoView описывает дашборд НКО.
type NgoView struct {
	Name                 string                  `json:"name,omitempty"`
	Projects             []ProjectProgress       `json:"projects"`
	ProjectsCount        metrics.Result[int]     `json:"projectsCount"`
	ActiveProjectsCount  metrics.Result[int]     `json:"activeProjectsCount"`
	TotalRequired        float64                 `json:"totalRequired"`
	TotalRaised          float64                 `json:"totalRaised"`
	OverallProgress      float64                 `json:"overallProgress"`
	BeneficiariesReached int                     `json:"beneficiariesReached"`
	DonationsReceived    metrics.Result[float64] `json:"donationsReceived"`
	UniqueDonorsCount    int                     `json:"uniqueDonorsCount"`
	Achievements         Achievements            `json:"achievements"`
}
