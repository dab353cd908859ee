package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"subscription_payments", "articles", "topics", "categories", "user_permissions", "permissions", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear table %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser := func(email, name string) int64 {
			var id int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err == nil {
				fmt.Println("user already exists:", email)
				return id
			}
			if err := db.Exec("INSERT INTO users (email, name, password_hash, is_active, subscription_status, created_at, updated_at) VALUES (?, ?, ?, true, 'inactive', now(), now())", email, name, string(hash)).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", email, err)
			}
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err != nil {
				log.Fatalf("failed to lookup user id for %s: %v", email, err)
			}
			fmt.Println("Seeded user:", email)
			return id
		}

		adminID := seedUser("admin@mechmaster.in", "MechMaster Admin")
		memberID := seedUser("member@mechmaster.in", "Demo Member")
		_ = memberID

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"manage_content", "Can create, update and delete topics and articles"},
			{"manage_users", "Can manage user accounts"},
		}

		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err != nil {
				log.Fatalf("permission not found after insert %s: %v", p.Name, err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", adminID, pid).Row().Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", adminID, pid).Error; err != nil {
				log.Fatalf("failed to grant permission %s to admin user: %v", p.Name, err)
			}
		}
		fmt.Println("Granted admin permissions")

		categories := []struct {
			Name   string
			Desc   string
			Topics []string
		}{
			{"Thermodynamics", "Heat, work and energy conversion", []string{"Laws of Thermodynamics", "Entropy", "Heat Engines"}},
			{"Fluid Mechanics", "Behaviour of fluids at rest and in motion", []string{"Fluid Statics", "Bernoulli Equation", "Boundary Layers"}},
			{"Machine Design", "Design of mechanical components", []string{"Shafts and Keys", "Gears", "Bearings"}},
		}

		for _, c := range categories {
			var cid int64
			if err := db.Raw("SELECT id FROM categories WHERE name = ?", c.Name).Row().Scan(&cid); err != nil {
				if err := db.Exec("INSERT INTO categories (name, description, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())", c.Name, c.Desc).Error; err != nil {
					log.Fatalf("failed to insert category %s: %v", c.Name, err)
				}
				if err := db.Raw("SELECT id FROM categories WHERE name = ?", c.Name).Row().Scan(&cid); err != nil {
					log.Fatalf("failed to lookup category id for %s: %v", c.Name, err)
				}
			}

			for _, title := range c.Topics {
				var tid int64
				if err := db.Raw("SELECT id FROM topics WHERE category_id = ? AND title = ?", cid, title).Row().Scan(&tid); err == nil {
					continue
				}
				if err := db.Exec("INSERT INTO topics (category_id, title, description, is_active, created_at, updated_at) VALUES (?, ?, ?, true, now(), now())", cid, title, "Introduction to "+title).Error; err != nil {
					log.Fatalf("failed to insert topic %s: %v", title, err)
				}

				if err := db.Raw("SELECT id FROM topics WHERE category_id = ? AND title = ?", cid, title).Row().Scan(&tid); err != nil {
					log.Fatalf("failed to lookup topic id for %s: %v", title, err)
				}
				if err := db.Exec("INSERT INTO articles (topic_id, title, body, position, is_active, created_at, updated_at) VALUES (?, ?, ?, 1, true, now(), now())", tid, title+" Overview", "Full study notes for "+title+".").Error; err != nil {
					log.Fatalf("failed to insert article for topic %s: %v", title, err)
				}
			}
		}
		fmt.Println("Seeded sample content")
	},
}
