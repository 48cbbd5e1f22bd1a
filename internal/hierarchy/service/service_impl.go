package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lumina/internal/config"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	MemberRepo memberdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	memberRepo   memberdomain.Repository
	defaultDepth int
}

func New(p Params) hierarchydomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("hierarchy.service"),
		memberRepo:   p.MemberRepo,
		defaultDepth: p.Cfg.AncestorWalkDepth,
	}
}

func (s *Service) ResolveParent(ctx context.Context, memberID snowflake.ID) (snowflake.ID, bool, error) {
	member, err := s.memberRepo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return 0, false, err
	}
	if member == nil {
		return 0, false, hierarchydomain.ErrMemberNotFound
	}
	if member.ParentID == nil {
		return 0, false, nil
	}
	return *member.ParentID, true, nil
}

func (s *Service) ResolveChildren(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error) {
	return s.memberRepo.ListChildren(ctx, s.db, memberID)
}

func (s *Service) WalkAncestors(ctx context.Context, memberID snowflake.ID, maxDepth int) ([]snowflake.ID, error) {
	if maxDepth <= 0 {
		maxDepth = s.defaultDepth
	}

	parents, _, err := s.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := parents[memberID]; !ok {
		return nil, hierarchydomain.ErrMemberNotFound
	}

	chain := make([]snowflake.ID, 0, 8)
	visited := map[snowflake.ID]struct{}{memberID: {}}
	current := memberID
	for depth := 0; depth < maxDepth; depth++ {
		parent, hasParent := parents[current]
		if !hasParent || parent == nil {
			return chain, nil
		}
		if _, seen := visited[*parent]; seen {
			s.log.Warn("cycle detected while walking ancestors",
				zap.String("member_id", memberID.String()),
				zap.String("at", parent.String()),
			)
			return chain, hierarchydomain.ErrCycleDetected
		}
		chain = append(chain, *parent)
		visited[*parent] = struct{}{}
		current = *parent
	}
	return chain, nil
}

func (s *Service) WalkDescendants(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error) {
	parents, children, err := s.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := parents[memberID]; !ok {
		return nil, hierarchydomain.ErrMemberNotFound
	}

	// Iterative walk with an explicit stack; the visited set makes it
	// terminate even on a corrupted, cyclic tree.
	out := make([]snowflake.ID, 0)
	visited := map[snowflake.ID]struct{}{memberID: {}}
	stack := append([]snowflake.ID(nil), children[memberID]...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[node]; seen {
			continue
		}
		visited[node] = struct{}{}
		out = append(out, node)
		stack = append(stack, children[node]...)
	}
	return out, nil
}

func (s *Service) Inspect(ctx context.Context, memberID snowflake.ID) ([]hierarchydomain.Problem, error) {
	parents, _, err := s.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := parents[memberID]; !ok {
		return nil, hierarchydomain.ErrMemberNotFound
	}

	problems := make([]hierarchydomain.Problem, 0)
	visited := map[snowflake.ID]struct{}{}
	current := memberID
	for {
		visited[current] = struct{}{}
		parent := parents[current]
		if parent == nil {
			break
		}
		if _, exists := parents[*parent]; !exists {
			problems = append(problems, hierarchydomain.Problem{MemberID: current, Kind: hierarchydomain.ProblemOrphanParent})
			break
		}
		if _, seen := visited[*parent]; seen {
			problems = append(problems, hierarchydomain.Problem{MemberID: current, Kind: hierarchydomain.ProblemCycle})
			break
		}
		current = *parent
	}
	return problems, nil
}

func (s *Service) Repair(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error) {
	parents, _, err := s.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := parents[memberID]; !ok {
		return nil, hierarchydomain.ErrMemberNotFound
	}

	mutated := make([]snowflake.ID, 0)
	visited := map[snowflake.ID]struct{}{}
	current := memberID
	for {
		visited[current] = struct{}{}
		parent := parents[current]
		if parent == nil {
			break
		}
		if _, exists := parents[*parent]; !exists {
			// Orphan edge: parent points at no member row.
			if err := s.clearParent(ctx, current); err != nil {
				return mutated, err
			}
			mutated = append(mutated, current)
			break
		}
		if _, seen := visited[*parent]; seen {
			// The edge from current closes a cycle; break it here.
			if err := s.clearParent(ctx, current); err != nil {
				return mutated, err
			}
			mutated = append(mutated, current)
			break
		}
		current = *parent
	}

	if len(mutated) > 0 {
		s.log.Info("hierarchy repaired",
			zap.String("member_id", memberID.String()),
			zap.Int("mutated", len(mutated)),
		)
	}
	return mutated, nil
}

func (s *Service) clearParent(ctx context.Context, memberID snowflake.ID) error {
	return s.memberRepo.UpdateParent(ctx, s.db, memberID, nil)
}

// loadEdges re-reads the full edge set per call. The tree is shared and
// multi-writer, so nothing is cached across logical operations.
func (s *Service) loadEdges(ctx context.Context) (map[snowflake.ID]*snowflake.ID, map[snowflake.ID][]snowflake.ID, error) {
	edges, err := s.memberRepo.ListEdges(ctx, s.db)
	if err != nil {
		return nil, nil, err
	}
	parents := make(map[snowflake.ID]*snowflake.ID, len(edges))
	children := make(map[snowflake.ID][]snowflake.ID, len(edges))
	for _, edge := range edges {
		parents[edge.ID] = edge.ParentID
		if edge.ParentID != nil {
			children[*edge.ParentID] = append(children[*edge.ParentID], edge.ID)
		}
	}
	return parents, children, nil
}
