package users

import (
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"colegio_backend/internals/constants"
	"colegio_backend/internals/features/users/auth/model"
	"colegio_backend/internals/features/users/auth/service"
)

type UserSeed struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Roles    []struct {
		SchoolID uuid.UUID `json:"school_id"`
		Role     string    `json:"role"`
	} `json:"roles"`
}

func SeedUsersFromJSON(db *gorm.DB, filePath string) {
	log.Println("[SEED] reading users:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("[SEED] read %s: %v", filePath, err)
	}

	var inputs []UserSeed
	if err := json.Unmarshal(file, &inputs); err != nil {
		log.Fatalf("[SEED] decode %s: %v", filePath, err)
	}

	for _, data := range inputs {
		email := strings.ToLower(strings.TrimSpace(data.Email))

		var user model.User
		err := db.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			log.Printf("[SEED] user %s exists, skipped", email)
		case err == gorm.ErrRecordNotFound:
			hashed, err := service.HashPassword(data.Password)
			if err != nil {
				log.Printf("[SEED] hash password for %s: %v", email, err)
				continue
			}
			user = model.User{Email: email, FullName: data.FullName, Password: &hashed, IsActive: true}
			if err := db.Create(&user).Error; err != nil {
				log.Printf("[SEED] insert user %s: %v", email, err)
				continue
			}
			log.Printf("[SEED] user %s inserted", email)
		default:
			log.Printf("[SEED] lookup user %s: %v", email, err)
			continue
		}

		for _, r := range data.Roles {
			if !constants.IsValidSchoolRole(r.Role) {
				log.Printf("[SEED] unknown role %q for %s, skipped", r.Role, email)
				continue
			}
			row := model.UserSchoolRole{UserID: user.ID, SchoolID: r.SchoolID, Role: r.Role}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				log.Printf("[SEED] role %s/%s for %s: %v", r.SchoolID, r.Role, email, err)
			}
		}
	}
}
