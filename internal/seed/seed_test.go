package seed

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&bonusleveldomain.BonusLevel{}))
	return db
}

func TestEnsureDefaultBonusLevels(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, EnsureDefaultBonusLevels(db))

	var levels []bonusleveldomain.BonusLevel
	require.NoError(t, db.Order("min_amount ASC").Find(&levels).Error)
	require.Len(t, levels, 5)

	assert.NoError(t, bonusleveldomain.ValidateTable(levels))
	assert.Equal(t, int64(0), levels[0].MinAmount)
	assert.Equal(t, int64(0), levels[0].Percent)
	assert.Equal(t, int64(25), levels[4].Percent)
	assert.Nil(t, levels[4].MaxAmount)
}

func TestEnsureDefaultBonusLevelsIdempotent(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, EnsureDefaultBonusLevels(db))
	require.NoError(t, EnsureDefaultBonusLevels(db))

	var count int64
	require.NoError(t, db.Model(&bonusleveldomain.BonusLevel{}).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestEnsureDefaultBonusLevelsSkipsPopulatedTable(t *testing.T) {
	db := setupSeedDB(t)

	custom := bonusleveldomain.BonusLevel{ID: 1, MinAmount: 0, Percent: 3}
	require.NoError(t, db.Create(&custom).Error)

	require.NoError(t, EnsureDefaultBonusLevels(db))

	var count int64
	require.NoError(t, db.Model(&bonusleveldomain.BonusLevel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureDefaultBonusLevelsNilDB(t *testing.T) {
	assert.Error(t, EnsureDefaultBonusLevels(nil))
}
