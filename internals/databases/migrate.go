package database

import (
	"log"

	"gorm.io/gorm"

	documentoModel "colegio_backend/internals/features/documentos/model"
	comprobanteModel "colegio_backend/internals/features/finance/comprobantes/model"
	conceptoModel "colegio_backend/internals/features/finance/conceptos/model"
	cronogramaModel "colegio_backend/internals/features/finance/cronogramas/model"
	pasarelaModel "colegio_backend/internals/features/finance/pasarela/model"
	studentModel "colegio_backend/internals/features/students/model"
	authModel "colegio_backend/internals/features/users/auth/model"
)

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&authModel.User{},
		&authModel.UserSchoolRole{},
		&authModel.TokenBlacklist{},
		&studentModel.Student{},
		&studentModel.StudentGuardian{},
		&conceptoModel.ConceptoPago{},
		&cronogramaModel.CronogramaPago{},
		&cronogramaModel.PagoAplicado{},
		&comprobanteModel.ComprobantePago{},
		&pasarelaModel.EventoPasarela{},
		&documentoModel.DocumentoEmitido{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Println("[INFO] schema migrated")
	return nil
}
