package migration

import (
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	"github.com/smallbiznis/lumina/internal/config"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	orderdomain "github.com/smallbiznis/lumina/internal/order/domain"
	"github.com/smallbiznis/lumina/internal/seed"
	teampurchasedomain "github.com/smallbiznis/lumina/internal/teampurchase/domain"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres installs (sqlite dev mode, mysql) rely on gorm's
			// schema sync; the embedded SQL targets postgres.
			if err := conn.AutoMigrate(
				&memberdomain.Member{},
				&orderdomain.Order{},
				&bonusleveldomain.BonusLevel{},
				&turnoverdomain.TurnoverRecord{},
				&turnoverdomain.TurnoverHistoryRecord{},
				&turnoverdomain.MonthlyBonus{},
				&teampurchasedomain.TeamPurchase{},
				&teampurchasedomain.TeamPurchaseContribution{},
				&teampurchasedomain.TeamPurchaseBonus{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDefaultBonusLevels {
			return seed.EnsureDefaultBonusLevels(conn)
		}
		return nil
	}),
)
