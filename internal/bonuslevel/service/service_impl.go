package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  bonusleveldomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  bonusleveldomain.Repository
}

func New(p Params) bonusleveldomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("bonuslevel.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]bonusleveldomain.BonusLevel, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Create(ctx context.Context, req bonusleveldomain.CreateRequest) (*bonusleveldomain.BonusLevel, error) {
	now := time.Now().UTC()
	level := &bonusleveldomain.BonusLevel{
		ID:        s.genID.Generate(),
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		Percent:   req.Percent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The table is validated as a whole so a single bad row can never make
	// two levels match the same turnover.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.List(ctx, tx)
		if err != nil {
			return err
		}
		if err := bonusleveldomain.ValidateTable(append(existing, *level)); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, level)
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req bonusleveldomain.CreateRequest) (*bonusleveldomain.BonusLevel, error) {
	var updated *bonusleveldomain.BonusLevel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if level == nil {
			return bonusleveldomain.ErrNotFound
		}

		level.MinAmount = req.MinAmount
		level.MaxAmount = req.MaxAmount
		level.Percent = req.Percent

		existing, err := s.repo.List(ctx, tx)
		if err != nil {
			return err
		}
		table := make([]bonusleveldomain.BonusLevel, 0, len(existing))
		for _, l := range existing {
			if l.ID == id {
				table = append(table, *level)
				continue
			}
			table = append(table, l)
		}
		if err := bonusleveldomain.ValidateTable(table); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, level); err != nil {
			return err
		}
		updated = level
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if level == nil {
			return bonusleveldomain.ErrNotFound
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) Resolve(ctx context.Context, totalTurnover int64) (*bonusleveldomain.BonusLevel, error) {
	levels, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	// Highest minimum first; the first match wins, and validation guarantees
	// at most one level can match.
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].Matches(totalTurnover) {
			level := levels[i]
			return &level, nil
		}
	}
	return nil, nil
}
