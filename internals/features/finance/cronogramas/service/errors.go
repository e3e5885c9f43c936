package service

import "errors"

var (
	ErrNotFound         = errors.New("cronograma entry not found")
	ErrConceptoNotFound = errors.New("concepto not found")
	ErrConceptoInactivo = errors.New("concepto is deactivated")
	ErrYaPagado         = errors.New("cronograma entry is already paid")
	ErrSobrepago        = errors.New("amount exceeds outstanding balance")
	ErrPagoDuplicado    = errors.New("payment already applied for this comprobante")
	ErrTieneMovimientos = errors.New("cronograma entry has payments or comprobantes")
	ErrAjusteInvalido   = errors.New("adjustment would leave paid amount above total")
	ErrEntradaDuplicada = errors.New("an entry for this student, concepto and due date already exists")
)
