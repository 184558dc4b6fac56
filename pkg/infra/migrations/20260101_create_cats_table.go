package migrations

import (
	"github.com/NeuralTrust/TrustShield/pkg/infra/database"
	"gorm.io/gorm"
)

func init() {
	database.RegisterMigration(database.Migration{
		ID:   "20260101_create_cats_table",
		Name: "Create cats table used by the sample application",
		Up: func(db *gorm.DB) error {
			return db.Exec(`
				CREATE TABLE IF NOT EXISTS cats (
					id         SERIAL PRIMARY KEY,
					petname    TEXT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP TABLE IF EXISTS cats;`).Error
		},
	})
}
