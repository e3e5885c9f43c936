package seeds

import (
	"path/filepath"

	"gorm.io/gorm"

	"colegio_backend/internals/seeds/conceptos"
	"colegio_backend/internals/seeds/students"
	"colegio_backend/internals/seeds/users"
)

// RunAllSeeds loads the demo data in dir. Users go first because students
// reference guardians by email.
func RunAllSeeds(db *gorm.DB, dir string) {
	users.SeedUsersFromJSON(db, filepath.Join(dir, "users", "data_users.json"))
	students.SeedStudentsFromJSON(db, filepath.Join(dir, "students", "data_students.json"))
	conceptos.SeedConceptosFromJSON(db, filepath.Join(dir, "conceptos", "data_conceptos.json"))
}
