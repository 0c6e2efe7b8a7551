package refresh

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/impact-dashboard/internal/ingest"
	"github.com/mmeshcher/impact-dashboard/internal/join"
	"github.com/mmeshcher/impact-dashboard/internal/model"
)

// Fetcher описывает источник сырых записей.
type Fetcher interface {
	Fetch(ctx context.Context, collection model.Collection, query url.Values) ([]model.Record, error)
}

// Bundle содержит согласованный снимок нормализованных коллекций одного цикла обновления.
type Bundle struct {
	Scope model.Scope

	Donations      []model.Donation
	SchoolProjects []model.Project
	NgoProjects    []model.Project
	Students       []model.Student
	Schools        []model.School
	Donors         []model.Actor
	Ngos           []model.Actor
	DonorProfiles  []model.Profile
	NgoProfiles    []model.Profile

	Failed    []model.Collection
	FetchedAt time.Time

	loaded   map[model.Collection]bool
	required int
	missing  int
}

func newBundle(scope model.Scope) *Bundle {
	return &Bundle{
		Scope:  scope,
		Failed: []model.Collection{},
		loaded: make(map[model.Collection]bool),
	}
}

// Loaded сообщает, была ли коллекция успешно загружена.
func (b *Bundle) Loaded(c model.Collection) bool {
	return b.loaded[c]
}

// NoData сообщает, что не загрузилась ни одна обязательная коллекция.
func (b *Bundle) NoData() bool {
	return b.required > 0 && b.missing == b.required
}

func (b *Bundle) put(c model.Collection, records []model.Record) {
	b.loaded[c] = true

	switch c {
	case model.CollectionDonations:
		b.Donations = ingest.Donations(records)
	case model.CollectionSchoolProjects:
		b.SchoolProjects = ingest.Projects(records, model.OwnerSchool)
	case model.CollectionNgoProjects:
		b.NgoProjects = ingest.Projects(records, model.OwnerNgo)
	case model.CollectionStudents:
		b.Students = ingest.Students(records)
	case model.CollectionSchools:
		b.Schools = ingest.Schools(records)
	case model.CollectionDonors:
		b.Donors = ingest.Actors(records)
	case model.CollectionNgos:
		b.Ngos = ingest.Actors(records)
	case model.CollectionDonorGamifications:
		b.DonorProfiles = ingest.Profiles(records)
	case model.CollectionNgoGamification:
		b.NgoProfiles = ingest.Profiles(records)
	}
}

// Load параллельно загружает все коллекции плана и дожидается завершения
// каждой загрузки. Отказ одной загрузки не прерывает остальные: вместо
// неё используется пустая коллекция, а её имя попадает в Failed.
func Load(ctx context.Context, f Fetcher, scope model.Scope, plan []Request, logger *zap.Logger) *Bundle {
	results := make([][]model.Record, len(plan))
	errs := make([]error, len(plan))

	var g errgroup.Group
	for i, req := range plan {
		g.Go(func() error {
			records, err := f.Fetch(ctx, req.Collection, req.Query)
			if err != nil {
				errs[i] = err
				return nil
			}
			if len(req.KeyFields) > 0 {
				records = join.Records(records, scope.Key, req.KeyFields...)
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	b := newBundle(scope)
	b.FetchedAt = time.Now()

	for i, req := range plan {
		if !req.Optional {
			b.required++
		}

		if errs[i] != nil {
			logger.Warn("collection fetch failed, using empty fallback",
				zap.String("collection", string(req.Collection)),
				zap.String("scope", scope.String()),
				zap.Error(errs[i]),
			)
			b.Failed = append(b.Failed, req.Collection)
			if !req.Optional {
				b.missing++
			}
			b.put(req.Collection, nil)
			b.loaded[req.Collection] = false
			continue
		}

		b.put(req.Collection, results[i])
	}

	return b
}
