package conceptos

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/conceptos/dto"
	"colegio_backend/internals/features/finance/conceptos/service"
)

type ConceptoSeed struct {
	SchoolID uuid.UUID `json:"school_id"`
	dto.ConceptoUpsertRequest
}

// SeedConceptosFromJSON goes through the registry service so names are
// deduplicated the same way as through the API.
func SeedConceptosFromJSON(db *gorm.DB, filePath string) {
	log.Println("[SEED] reading conceptos:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("[SEED] read %s: %v", filePath, err)
	}

	var inputs []ConceptoSeed
	if err := json.Unmarshal(file, &inputs); err != nil {
		log.Fatalf("[SEED] decode %s: %v", filePath, err)
	}

	svc := service.New(db)
	for _, data := range inputs {
		m, created, err := svc.Upsert(context.Background(), data.SchoolID, data.ConceptoUpsertRequest)
		if err != nil {
			log.Printf("[SEED] concepto %q: %v", data.Nombre, err)
			continue
		}
		if created {
			log.Printf("[SEED] concepto %q inserted", m.ConceptoNombre)
		}
	}
}
