package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/lumina/internal/config"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	memberrepo "github.com/smallbiznis/lumina/internal/member/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupHierarchy(t *testing.T) (hierarchydomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&memberdomain.Member{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Cfg:        config.Config{AncestorWalkDepth: 100},
		MemberRepo: memberrepo.Provide(),
	})
	return svc, db, node
}

func insertMember(t *testing.T, db *gorm.DB, node *snowflake.Node, parent *snowflake.ID) snowflake.ID {
	t.Helper()
	now := time.Now().UTC()
	member := &memberdomain.Member{
		ID:        node.Generate(),
		ParentID:  parent,
		Role:      "dealer",
		Status:    memberdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, memberrepo.Provide().Insert(context.Background(), db, member))
	return member.ID
}

func TestWalkAncestorsNearestFirst(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	root := insertMember(t, db, node, nil)
	mid := insertMember(t, db, node, &root)
	leaf := insertMember(t, db, node, &mid)

	chain, err := svc.WalkAncestors(ctx, leaf, 0)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{mid, root}, chain)
}

func TestWalkAncestorsRespectsMaxDepth(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	root := insertMember(t, db, node, nil)
	mid := insertMember(t, db, node, &root)
	leaf := insertMember(t, db, node, &mid)

	chain, err := svc.WalkAncestors(ctx, leaf, 1)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{mid}, chain)
}

func TestWalkAncestorsUnknownMember(t *testing.T) {
	svc, _, node := setupHierarchy(t)

	_, err := svc.WalkAncestors(context.Background(), node.Generate(), 0)
	assert.ErrorIs(t, err, hierarchydomain.ErrMemberNotFound)
}

func TestWalkAncestorsDetectsCycle(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	a := insertMember(t, db, node, nil)
	b := insertMember(t, db, node, &a)
	c := insertMember(t, db, node, &b)
	// Close the loop: a's sponsor becomes its own descendant.
	require.NoError(t, memberrepo.Provide().UpdateParent(ctx, db, a, &c))

	chain, err := svc.WalkAncestors(ctx, c, 0)
	assert.ErrorIs(t, err, hierarchydomain.ErrCycleDetected)
	assert.Equal(t, []snowflake.ID{b, a}, chain)
}

func TestWalkDescendantsCoversWholeSubtree(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	root := insertMember(t, db, node, nil)
	childA := insertMember(t, db, node, &root)
	childB := insertMember(t, db, node, &root)
	grandchild := insertMember(t, db, node, &childA)
	outsider := insertMember(t, db, node, nil)

	got, err := svc.WalkDescendants(ctx, root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []snowflake.ID{childA, childB, grandchild}, got)
	assert.NotContains(t, got, outsider)
	assert.NotContains(t, got, root)
}

func TestWalkDescendantsTerminatesOnCycle(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	a := insertMember(t, db, node, nil)
	b := insertMember(t, db, node, &a)
	require.NoError(t, memberrepo.Provide().UpdateParent(ctx, db, a, &b))

	got, err := svc.WalkDescendants(ctx, a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []snowflake.ID{b}, got)
}

func TestInspectReportsCycleWithoutMutating(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	a := insertMember(t, db, node, nil)
	b := insertMember(t, db, node, &a)
	require.NoError(t, memberrepo.Provide().UpdateParent(ctx, db, a, &b))

	problems, err := svc.Inspect(ctx, b)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, hierarchydomain.ProblemCycle, problems[0].Kind)

	// Nothing was written.
	member, err := memberrepo.Provide().FindByID(ctx, db, a)
	require.NoError(t, err)
	require.NotNil(t, member.ParentID)
	assert.Equal(t, b, *member.ParentID)
}

func TestRepairBreaksCycle(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	a := insertMember(t, db, node, nil)
	b := insertMember(t, db, node, &a)
	c := insertMember(t, db, node, &b)
	require.NoError(t, memberrepo.Provide().UpdateParent(ctx, db, a, &c))

	mutated, err := svc.Repair(ctx, c)
	require.NoError(t, err)
	require.Len(t, mutated, 1)

	// The walk must now terminate cleanly from every node in the loop.
	for _, id := range []snowflake.ID{a, b, c} {
		_, err := svc.WalkAncestors(ctx, id, 0)
		assert.NoError(t, err)
	}

	problems, err := svc.Inspect(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestInspectAndRepairOrphanParent(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	missing := node.Generate()
	orphan := insertMember(t, db, node, &missing)

	problems, err := svc.Inspect(ctx, orphan)
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, hierarchydomain.ProblemOrphanParent, problems[0].Kind)

	mutated, err := svc.Repair(ctx, orphan)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{orphan}, mutated)

	member, err := memberrepo.Provide().FindByID(ctx, db, orphan)
	require.NoError(t, err)
	assert.Nil(t, member.ParentID)
}

func TestResolveParentAndChildren(t *testing.T) {
	svc, db, node := setupHierarchy(t)
	ctx := context.Background()

	root := insertMember(t, db, node, nil)
	child := insertMember(t, db, node, &root)

	parent, ok, err := svc.ResolveParent(ctx, child)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, parent)

	_, ok, err = svc.ResolveParent(ctx, root)
	require.NoError(t, err)
	assert.False(t, ok)

	children, err := svc.ResolveChildren(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{child}, children)
}
