// Package service строит агрегированные дашборды школ, доноров и НКО
// из загруженных коллекций.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/impact-dashboard/internal/leaderboard"
	"github.com/mmeshcher/impact-dashboard/internal/model"
	"github.com/mmeshcher/impact-dashboard/internal/refresh"
)

const (
	defaultRecentLimit  = 5
	defaultLeadersLimit = 5
)

// ErrUnknownRole возвращается для роли без рейтинга.
var ErrUnknownRole = errors.New("unknown role")

// Repository описывает контракт хранилища записей, используемый сервисом.
type Repository interface {
	Fetch(ctx context.Context, collection model.Collection, query url.Values) ([]model.Record, error)
	Create(ctx context.Context, collection model.Collection, payload json.RawMessage) (model.Record, error)
	Delete(ctx context.Context, collection model.Collection, id string) error
}

// Service содержит логику построения дашбордов.
type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time

	recentLimit  int
	leadersLimit int
}

// NewService создаёт новый сервис с указанным хранилищем записей.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:         repo,
		logger:       logger,
		now:          time.Now,
		recentLimit:  defaultRecentLimit,
		leadersLimit: defaultLeadersLimit,
	}
}

// Fetcher возвращает источник записей для контроллеров обновления.
func (s *Service) Fetcher() refresh.Fetcher {
	return s.repo
}

// Build строит дашборд из снимка коллекций. Используется как Builder контроллера обновления.
func (s *Service) Build(b *refresh.Bundle) Dashboard {
	d := Dashboard{
		Role:        b.Scope.Role,
		ScopeKey:    b.Scope.Key,
		Unavailable: append([]model.Collection{}, b.Failed...),
		GeneratedAt: b.FetchedAt,
	}

	switch b.Scope.Role {
	case model.RoleDonor:
		d.Donor = s.buildDonor(b)
	case model.RoleSchool:
		d.School = s.buildSchool(b)
	case model.RoleNgo:
		d.Ngo = s.buildNgo(b)
	}

	return d
}

// Leaderboard возвращает первые limit участников рейтинга доноров или НКО.
func (s *Service) Leaderboard(ctx context.Context, role model.Role, limit int) ([]leaderboard.RankedEntry, error) {
	plan := refresh.LeaderboardPlan(role)
	if plan == nil {
		return nil, ErrUnknownRole
	}

	b := refresh.Load(ctx, s.repo, model.Scope{Role: role}, plan, s.logger)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.NoData() {
		return nil, refresh.ErrNoData
	}

	var entries []leaderboard.Entry
	if role == model.RoleDonor {
		entries = entriesFrom(b.DonorProfiles, b.Donors)
	} else {
		entries = entriesFrom(b.NgoProfiles, b.Ngos)
	}

	return leaderboard.Ranked(entries, limit), nil
}

// Create сохраняет новую запись в хранилище.
func (s *Service) Create(ctx context.Context, collection model.Collection, payload json.RawMessage) (model.Record, error) {
	return s.repo.Create(ctx, collection, payload)
}

// Delete удаляет запись из хранилища.
func (s *Service) Delete(ctx context.Context, collection model.Collection, id string) error {
	return s.repo.Delete(ctx, collection, id)
}
