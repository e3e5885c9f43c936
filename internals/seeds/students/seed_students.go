package students

import (
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"colegio_backend/internals/features/students/model"
	authModel "colegio_backend/internals/features/users/auth/model"
)

type StudentSeed struct {
	SchoolID  uuid.UUID  `json:"school_id"`
	SectionID *uuid.UUID `json:"section_id"`
	Codigo    string     `json:"codigo"`
	Nombre    string     `json:"nombre"`
	Guardians []string   `json:"guardians"` // emails of already seeded users
}

func SeedStudentsFromJSON(db *gorm.DB, filePath string) {
	log.Println("[SEED] reading students:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("[SEED] read %s: %v", filePath, err)
	}

	var inputs []StudentSeed
	if err := json.Unmarshal(file, &inputs); err != nil {
		log.Fatalf("[SEED] decode %s: %v", filePath, err)
	}

	for _, data := range inputs {
		st := model.Student{
			StudentSchoolID:  data.SchoolID,
			StudentSectionID: data.SectionID,
			StudentCodigo:    data.Codigo,
			StudentNombre:    data.Nombre,
		}
		res := db.Where("student_school_id = ? AND student_codigo = ?", data.SchoolID, data.Codigo).
			FirstOrCreate(&st)
		if res.Error != nil {
			log.Printf("[SEED] student %s: %v", data.Codigo, res.Error)
			continue
		}

		for _, email := range data.Guardians {
			var u authModel.User
			if err := db.Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
				log.Printf("[SEED] guardian %s for %s: %v", email, data.Codigo, err)
				continue
			}
			link := model.StudentGuardian{
				StudentGuardianStudentID: st.StudentID,
				StudentGuardianUserID:    u.ID,
			}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				log.Printf("[SEED] link %s -> %s: %v", email, data.Codigo, err)
			}
		}
	}
}
