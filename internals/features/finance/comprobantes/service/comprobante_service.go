package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	docModel "colegio_backend/internals/features/documentos/model"
	docService "colegio_backend/internals/features/documentos/service"
	"colegio_backend/internals/features/finance/comprobantes/model"
	conceptoModel "colegio_backend/internals/features/finance/conceptos/model"
	cronoModel "colegio_backend/internals/features/finance/cronogramas/model"
	cronoService "colegio_backend/internals/features/finance/cronogramas/service"
	studentModel "colegio_backend/internals/features/students/model"
	studentService "colegio_backend/internals/features/students/service"
	helper "colegio_backend/internals/helpers"
	helperAuth "colegio_backend/internals/helpers/auth"
	"colegio_backend/internals/helpers/dbtime"
)

var (
	ErrNotFound     = errors.New("comprobante not found")
	ErrYaResuelto   = errors.New("comprobante was already approved or rejected")
	ErrNoAutorizado = errors.New("not allowed to act on this comprobante")
)

type Service struct {
	DB       *gorm.DB
	Ledger   *cronoService.Service
	Notifier Notifier
}

func New(db *gorm.DB, ledger *cronoService.Service, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{DB: db, Ledger: ledger, Notifier: notifier}
}

/* =========================================================
   SUBMIT
========================================================= */

type SubmitInput struct {
	CronogramaID    uuid.UUID
	Monto           decimal.Decimal
	Metodo          model.MetodoPago
	EvidenciaURL    *string
	Banco           *string
	NumeroOperacion *string
	FechaOperacion  *time.Time
	ExternalID      *string
	Metadata        map[string]any
}

// Submit records a PENDIENTE comprobante. Parents may only submit for their
// own children's entries; the ledger is not touched until approval.
func (s *Service) Submit(ctx context.Context, schoolID uuid.UUID, actor helperAuth.Actor, in SubmitInput) (*model.ComprobantePago, error) {
	if !in.Monto.IsPositive() || !helper.HasAtMostTwoDecimals(in.Monto) {
		return nil, helper.NewFieldError("monto", "must be a positive amount with at most 2 decimals")
	}
	if in.FechaOperacion != nil {
		d := dbtime.Normalize(*in.FechaOperacion)
		in.FechaOperacion = &d
	}

	var out model.ComprobantePago
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.Ledger.CurrentEntry(tx, schoolID, in.CronogramaID)
		if err != nil {
			return err
		}
		if !actor.IsStaff {
			ok, err := studentService.IsGuardianOf(ctx, tx, actor.UserID, entry.CronogramaStudentID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNoAutorizado
			}
		}
		if entry.CronogramaPagado {
			return cronoService.ErrYaPagado
		}
		if saldo := entry.Saldo(); in.Monto.GreaterThan(saldo) {
			return fmt.Errorf("%w: monto %s, saldo %s", cronoService.ErrSobrepago, in.Monto.StringFixed(2), saldo.StringFixed(2))
		}

		out = model.ComprobantePago{
			ComprobanteSchoolID:        schoolID,
			ComprobanteCronogramaID:    entry.CronogramaID,
			ComprobanteMonto:           in.Monto,
			ComprobanteMetodo:          in.Metodo,
			ComprobanteEvidenciaURL:    in.EvidenciaURL,
			ComprobanteBanco:           in.Banco,
			ComprobanteNumeroOperacion: in.NumeroOperacion,
			ComprobanteFechaOperacion:  in.FechaOperacion,
			ComprobanteEstado:          model.EstadoPendiente,
			ComprobanteEnviadoPor:      actor.UserID,
			ComprobanteExternalID:      in.ExternalID,
		}
		if len(in.Metadata) > 0 {
			out.ComprobanteMetadata = datatypes.JSONMap(in.Metadata)
		}
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

/* =========================================================
   APPROVE / REJECT
========================================================= */

// transition moves id from PENDIENTE to estado. The WHERE on the current
// state makes it a compare-and-set: only one concurrent caller can win.
func transition(tx *gorm.DB, id uuid.UUID, estado model.EstadoComprobante, by uuid.UUID, motivo *string) error {
	now := time.Now().UTC()
	fields := map[string]any{
		"comprobante_estado":      estado,
		"comprobante_resuelto_at": now,
		"comprobante_updated_at":  now,
	}
	if by != uuid.Nil {
		fields["comprobante_resuelto_por"] = by
	}
	if motivo != nil {
		fields["comprobante_motivo_rechazo"] = *motivo
	}
	res := tx.Model(&model.ComprobantePago{}).
		Where("comprobante_id = ? AND comprobante_estado = ?", id, model.EstadoPendiente).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrYaResuelto
	}
	return nil
}

func find(tx *gorm.DB, schoolID, id uuid.UUID) (*model.ComprobantePago, error) {
	var m model.ComprobantePago
	err := tx.Where("comprobante_id = ? AND comprobante_school_id = ?", id, schoolID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Approve flips the comprobante to APROBADO, applies its amount to the ledger
// and issues the receipt, all in one transaction. If any step fails nothing
// is persisted and the comprobante stays PENDIENTE.
func (s *Service) Approve(ctx context.Context, schoolID uuid.UUID, actor helperAuth.Actor, id uuid.UUID) (*model.ComprobantePago, error) {
	if !actor.IsStaff {
		return nil, ErrNoAutorizado
	}

	var (
		out    *model.ComprobantePago
		codigo string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := find(tx, schoolID, id)
		if err != nil {
			return err
		}
		if c.ComprobanteEstado.Terminal() {
			return ErrYaResuelto
		}
		if err := transition(tx, id, model.EstadoAprobado, actor.UserID, nil); err != nil {
			return err
		}

		origen := cronoModel.OrigenComprobante
		if c.ComprobanteMetodo == model.MetodoPasarela {
			origen = cronoModel.OrigenPasarela
		}
		var by *uuid.UUID
		if actor.UserID != uuid.Nil {
			by = &actor.UserID
		}
		entry, err := s.Ledger.ApplyPayment(tx, schoolID, c.ComprobanteCronogramaID, cronoService.PaymentInput{
			Monto:         c.ComprobanteMonto,
			Origen:        origen,
			ComprobanteID: &c.ComprobanteID,
			AplicadoPor:   by,
		})
		if err != nil {
			return err
		}

		doc, err := s.issueRecibo(tx, c, entry)
		if err != nil {
			return err
		}
		codigo = doc.DocumentoCodigo
		if err := tx.Model(&model.ComprobantePago{}).
			Where("comprobante_id = ?", id).
			Update("comprobante_documento_id", doc.DocumentoID).Error; err != nil {
			return err
		}

		out, err = find(tx, schoolID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, out, codigo)
	return out, nil
}

// Reject closes the comprobante without any ledger effect.
func (s *Service) Reject(ctx context.Context, schoolID uuid.UUID, actor helperAuth.Actor, id uuid.UUID, motivo string) (*model.ComprobantePago, error) {
	if !actor.IsStaff {
		return nil, ErrNoAutorizado
	}
	if len([]rune(motivo)) < 3 {
		return nil, helper.NewFieldError("motivo", "is required")
	}

	var out *model.ComprobantePago
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := find(tx, schoolID, id)
		if err != nil {
			return err
		}
		if c.ComprobanteEstado.Terminal() {
			return ErrYaResuelto
		}
		if err := transition(tx, id, model.EstadoRechazado, actor.UserID, &motivo); err != nil {
			return err
		}
		out, err = find(tx, schoolID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, out, "")
	return out, nil
}

func (s *Service) issueRecibo(tx *gorm.DB, c *model.ComprobantePago, entry *cronoModel.CronogramaPago) (*docModel.DocumentoEmitido, error) {
	var student studentModel.Student
	if err := tx.Where("student_id = ?", entry.CronogramaStudentID).First(&student).Error; err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	var concepto conceptoModel.ConceptoPago
	if err := tx.Where("concepto_id = ?", entry.CronogramaConceptoID).First(&concepto).Error; err != nil {
		return nil, fmt.Errorf("load concepto: %w", err)
	}

	meta := map[string]any{
		"comprobante_id":    c.ComprobanteID.String(),
		"cronograma_id":     entry.CronogramaID.String(),
		"student_nombre":    student.StudentNombre,
		"student_codigo":    student.StudentCodigo,
		"concepto_nombre":   concepto.ConceptoNombre,
		"fecha_vencimiento": dbtime.Format(entry.CronogramaFechaVencimiento),
		"monto":             c.ComprobanteMonto.StringFixed(2),
		"moneda":            concepto.ConceptoMoneda,
		"metodo":            string(c.ComprobanteMetodo),
		"aprobado_at":       time.Now().UTC().Format(time.RFC3339),
		"saldo_restante":    entry.Saldo().StringFixed(2),
	}
	if c.ComprobanteNumeroOperacion != nil {
		meta["numero_operacion"] = *c.ComprobanteNumeroOperacion
	}

	return docService.Issue(tx, docService.IssueInput{
		SchoolID:     c.ComprobanteSchoolID,
		Tipo:         docModel.TipoReciboPago,
		ReferenciaID: c.ComprobanteID,
		Titulo:       fmt.Sprintf("Recibo de pago - %s", concepto.ConceptoNombre),
		Metadata:     meta,
	})
}

func (s *Service) notify(ctx context.Context, c *model.ComprobantePago, codigo string) {
	if c == nil || s.Notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] comprobante notifier panic: %v", r)
		}
	}()
	s.Notifier.Notify(ctx, Notice{
		ComprobanteID: c.ComprobanteID,
		SchoolID:      c.ComprobanteSchoolID,
		UserID:        c.ComprobanteEnviadoPor,
		Estado:        c.ComprobanteEstado,
		Monto:         c.ComprobanteMonto,
		Motivo:        c.ComprobanteMotivoRechazo,
		CodigoRecibo:  codigo,
	})
}

/* =========================================================
   QUERIES
========================================================= */

func (s *Service) Get(ctx context.Context, schoolID, id uuid.UUID) (*model.ComprobantePago, error) {
	return find(s.DB.WithContext(ctx), schoolID, id)
}

func (s *Service) FindByExternalID(ctx context.Context, externalID string) (*model.ComprobantePago, error) {
	var m model.ComprobantePago
	err := s.DB.WithContext(ctx).Where("comprobante_external_id = ?", externalID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type ListFilter struct {
	Estado       string
	CronogramaID *uuid.UUID
	StudentIDs   []uuid.UUID
	EnviadoPor   *uuid.UUID
	Limit        int
	Offset       int
}

func (s *Service) List(ctx context.Context, schoolID uuid.UUID, f ListFilter) ([]model.ComprobantePago, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.ComprobantePago{}).
		Where("comprobante_school_id = ?", schoolID)
	if e := model.EstadoComprobante(f.Estado); e.Valid() {
		q = q.Where("comprobante_estado = ?", e)
	}
	if f.CronogramaID != nil {
		q = q.Where("comprobante_cronograma_id = ?", *f.CronogramaID)
	}
	if len(f.StudentIDs) > 0 {
		sub := s.DB.Model(&cronoModel.CronogramaPago{}).
			Select("cronograma_id").
			Where("cronograma_student_id IN ?", f.StudentIDs)
		q = q.Where("comprobante_cronograma_id IN (?)", sub)
	}
	if f.EnviadoPor != nil {
		q = q.Where("comprobante_enviado_por = ?", *f.EnviadoPor)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var list []model.ComprobantePago
	if err := q.Order("comprobante_created_at DESC").Order("comprobante_id").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
