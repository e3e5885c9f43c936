package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	compModel "colegio_backend/internals/features/finance/comprobantes/model"
	compService "colegio_backend/internals/features/finance/comprobantes/service"
	conceptoModel "colegio_backend/internals/features/finance/conceptos/model"
	cronoModel "colegio_backend/internals/features/finance/cronogramas/model"
	cronoService "colegio_backend/internals/features/finance/cronogramas/service"
	"colegio_backend/internals/features/finance/pasarela/model"
	studentService "colegio_backend/internals/features/students/service"
	authModel "colegio_backend/internals/features/users/auth/model"
	helperAuth "colegio_backend/internals/helpers/auth"
)

const Proveedor = "midtrans"

var (
	ErrNoConfigurada     = errors.New("online payment gateway is not configured")
	ErrMonedaNoSoportada = errors.New("concepto currency is not supported by the payment gateway")
	ErrMontoNoEntero     = errors.New("outstanding balance must be a whole amount for online payment")
	ErrFirmaInvalida     = errors.New("invalid notification signature")
	ErrPayloadInvalido   = errors.New("invalid notification payload")
	ErrPasarela          = errors.New("payment gateway error")
)

type Service struct {
	DB           *gorm.DB
	Ledger       *cronoService.Service
	Comprobantes *compService.Service
	Gateway      Gateway
	ServerKey    string
	Currency     string
}

func New(db *gorm.DB, ledger *cronoService.Service, comprobantes *compService.Service, gw Gateway, serverKey, currency string) *Service {
	return &Service{
		DB:           db,
		Ledger:       ledger,
		Comprobantes: comprobantes,
		Gateway:      gw,
		ServerKey:    serverKey,
		Currency:     strings.ToUpper(strings.TrimSpace(currency)),
	}
}

func NewOrderID() string {
	return "COL-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

/* =========================================================
   CHECKOUT
========================================================= */

type CheckoutResult struct {
	ComprobanteID uuid.UUID       `json:"comprobante_id"`
	OrderID       string          `json:"order_id"`
	Monto         decimal.Decimal `json:"monto"`
	Moneda        string          `json:"moneda"`
	Token         string          `json:"token"`
	RedirectURL   string          `json:"redirect_url"`
}

// StartCheckout opens a gateway transaction for the whole outstanding balance
// of an entry. The comprobante stays PENDIENTE until the notification arrives.
// A still pending checkout for the same balance is returned instead of a new one.
func (s *Service) StartCheckout(ctx context.Context, schoolID uuid.UUID, actor helperAuth.Actor, cronogramaID uuid.UUID) (*CheckoutResult, error) {
	if s.Gateway == nil {
		return nil, ErrNoConfigurada
	}

	var (
		entry    *cronoModel.CronogramaPago
		concepto conceptoModel.ConceptoPago
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.Ledger.CurrentEntry(tx, schoolID, cronogramaID)
		if err != nil {
			return err
		}
		if !actor.IsStaff {
			ok, err := studentService.IsGuardianOf(ctx, tx, actor.UserID, e.CronogramaStudentID)
			if err != nil {
				return err
			}
			if !ok {
				return compService.ErrNoAutorizado
			}
		}
		if e.CronogramaPagado {
			return cronoService.ErrYaPagado
		}
		entry = e
		return tx.Where("concepto_id = ?", e.CronogramaConceptoID).First(&concepto).Error
	})
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(concepto.ConceptoMoneda, s.Currency) {
		return nil, fmt.Errorf("%w: %s", ErrMonedaNoSoportada, concepto.ConceptoMoneda)
	}
	saldo := entry.Saldo()
	if !saldo.Equal(saldo.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s", ErrMontoNoEntero, saldo.StringFixed(2))
	}

	if prev := s.pendingCheckout(ctx, schoolID, cronogramaID, saldo); prev != nil {
		prev.Moneda = concepto.ConceptoMoneda
		return prev, nil
	}

	orderID := NewOrderID()
	comp, err := s.Comprobantes.Submit(ctx, schoolID, actor, compService.SubmitInput{
		CronogramaID: cronogramaID,
		Monto:        saldo,
		Metodo:       compModel.MetodoPasarela,
		ExternalID:   &orderID,
		Metadata:     map[string]any{"proveedor": Proveedor},
	})
	if err != nil {
		return nil, err
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: saldo.IntPart(),
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
		Items: &[]midtrans.ItemDetails{{
			ID:       entry.CronogramaID.String()[:8],
			Price:    saldo.IntPart(),
			Qty:      1,
			Name:     truncate(concepto.ConceptoNombre, 50),
			Category: "COLEGIO",
		}},
	}
	if cust := s.customer(ctx, actor.UserID); cust != nil {
		req.CustomerDetail = cust
	}

	resp, err := s.Gateway.CreateTransaction(req)
	if err != nil {
		// the order never existed on the gateway side; close it so it does not linger
		if _, rerr := s.Comprobantes.Reject(ctx, schoolID, helperAuth.System, comp.ComprobanteID, "pasarela: "+truncate(err.Error(), 200)); rerr != nil {
			log.Printf("[PASARELA] reject after gateway error failed order=%s: %v", orderID, rerr)
		}
		return nil, fmt.Errorf("%w: %v", ErrPasarela, err)
	}

	meta := datatypes.JSONMap{
		"proveedor":    Proveedor,
		"token":        resp.Token,
		"redirect_url": resp.RedirectURL,
	}
	if err := s.DB.WithContext(ctx).Model(&compModel.ComprobantePago{}).
		Where("comprobante_id = ?", comp.ComprobanteID).
		Update("comprobante_metadata", meta).Error; err != nil {
		log.Printf("[PASARELA] save checkout metadata order=%s: %v", orderID, err)
	}

	return &CheckoutResult{
		ComprobanteID: comp.ComprobanteID,
		OrderID:       orderID,
		Monto:         saldo,
		Moneda:        concepto.ConceptoMoneda,
		Token:         resp.Token,
		RedirectURL:   resp.RedirectURL,
	}, nil
}

func (s *Service) pendingCheckout(ctx context.Context, schoolID, cronogramaID uuid.UUID, saldo decimal.Decimal) *CheckoutResult {
	var list []compModel.ComprobantePago
	err := s.DB.WithContext(ctx).
		Where("comprobante_school_id = ? AND comprobante_cronograma_id = ? AND comprobante_estado = ? AND comprobante_metodo = ?",
			schoolID, cronogramaID, compModel.EstadoPendiente, compModel.MetodoPasarela).
		Order("comprobante_created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil
	}
	for _, c := range list {
		token, _ := c.ComprobanteMetadata["token"].(string)
		url, _ := c.ComprobanteMetadata["redirect_url"].(string)
		if token == "" || c.ComprobanteExternalID == nil || !c.ComprobanteMonto.Equal(saldo) {
			continue
		}
		return &CheckoutResult{
			ComprobanteID: c.ComprobanteID,
			OrderID:       *c.ComprobanteExternalID,
			Monto:         c.ComprobanteMonto,
			Token:         token,
			RedirectURL:   url,
		}
	}
	return nil
}

func (s *Service) customer(ctx context.Context, userID uuid.UUID) *midtrans.CustomerDetails {
	if userID == uuid.Nil {
		return nil
	}
	var u authModel.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return nil
	}
	first, last := u.FullName, ""
	if i := strings.LastIndex(u.FullName, " "); i > 0 {
		first, last = u.FullName[:i], u.FullName[i+1:]
	}
	return &midtrans.CustomerDetails{FName: first, LName: last, Email: u.Email}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

/* =========================================================
   NOTIFICATION
========================================================= */

type NotificationResult struct {
	Resultado     string     `json:"resultado"` // aprobado | rechazado | duplicado | pendiente | ignorado | fallido
	ComprobanteID *uuid.UUID `json:"comprobante_id,omitempty"`
}

// HandleNotification verifies and applies one gateway notification. Replays
// of an already resolved order are reported as "duplicado" without effect.
// Only infrastructure failures return an error, so the gateway retries them.
func (s *Service) HandleNotification(ctx context.Context, raw []byte) (*NotificationResult, error) {
	var n Notification
	if err := sonic.Unmarshal(raw, &n); err != nil || strings.TrimSpace(n.OrderID) == "" {
		return nil, ErrPayloadInvalido
	}
	// unsigned calls leave no row in the event log
	if !n.validSignature(s.ServerKey) {
		log.Printf("[PASARELA] bad signature order=%s status=%s", n.OrderID, n.TransactionStatus)
		return nil, ErrFirmaInvalida
	}
	payload := map[string]any{}
	_ = sonic.Unmarshal(raw, &payload)

	ev := &model.EventoPasarela{
		EventoProveedor:   Proveedor,
		EventoOrderID:     n.OrderID,
		EventoTipo:        n.TransactionStatus,
		EventoFirmaValida: true,
		EventoPayload:     datatypes.JSONMap(payload),
	}
	if n.TransactionID != "" {
		ev.EventoTransaccionID = &n.TransactionID
	}
	if err := s.DB.WithContext(ctx).Create(ev).Error; err != nil {
		log.Printf("[PASARELA] log event order=%s: %v", n.OrderID, err)
		ev = nil
	}

	comp, err := s.Comprobantes.FindByExternalID(ctx, n.OrderID)
	if errors.Is(err, compService.ErrNotFound) {
		s.finish(ctx, ev, model.EventoIgnorado, "unknown order_id")
		return &NotificationResult{Resultado: "ignorado"}, nil
	}
	if err != nil {
		s.finish(ctx, ev, model.EventoFallido, err.Error())
		return nil, err
	}
	if ev != nil {
		s.DB.WithContext(ctx).Model(ev).Updates(map[string]any{
			"evento_school_id":      comp.ComprobanteSchoolID,
			"evento_comprobante_id": comp.ComprobanteID,
		})
	}
	res := &NotificationResult{ComprobanteID: &comp.ComprobanteID}

	gross, err := decimal.NewFromString(strings.TrimSpace(n.GrossAmount))
	if err != nil || !gross.Equal(comp.ComprobanteMonto) {
		s.finish(ctx, ev, model.EventoFallido, fmt.Sprintf("gross_amount %q does not match %s", n.GrossAmount, comp.ComprobanteMonto.StringFixed(2)))
		res.Resultado = "ignorado"
		return res, nil
	}

	switch n.accion() {
	case accionAprobar:
		_, err = s.Comprobantes.Approve(ctx, comp.ComprobanteSchoolID, helperAuth.System, comp.ComprobanteID)
		res.Resultado = "aprobado"
	case accionRechazar:
		_, err = s.Comprobantes.Reject(ctx, comp.ComprobanteSchoolID, helperAuth.System, comp.ComprobanteID, "pasarela: "+n.TransactionStatus)
		res.Resultado = "rechazado"
	default:
		s.finish(ctx, ev, model.EventoIgnorado, "")
		res.Resultado = "pendiente"
		return res, nil
	}

	switch {
	case err == nil:
		s.finish(ctx, ev, model.EventoProcesado, "")
	case errors.Is(err, compService.ErrYaResuelto):
		s.finish(ctx, ev, model.EventoProcesado, "")
		res.Resultado = "duplicado"
	case errors.Is(err, cronoService.ErrYaPagado),
		errors.Is(err, cronoService.ErrSobrepago),
		errors.Is(err, cronoService.ErrPagoDuplicado):
		// paid some other way meanwhile; left PENDIENTE for staff to resolve
		s.finish(ctx, ev, model.EventoFallido, err.Error())
		res.Resultado = "fallido"
	default:
		s.finish(ctx, ev, model.EventoFallido, err.Error())
		return nil, err
	}
	return res, nil
}

func (s *Service) finish(ctx context.Context, ev *model.EventoPasarela, estado model.EstadoEvento, msg string) {
	if ev == nil {
		return
	}
	now := time.Now().UTC()
	fields := map[string]any{
		"evento_estado":       estado,
		"evento_procesado_at": now,
	}
	if msg != "" {
		fields["evento_error"] = msg
	}
	if err := s.DB.WithContext(ctx).Model(ev).Updates(fields).Error; err != nil {
		log.Printf("[PASARELA] update event %s: %v", ev.EventoID, err)
	}
}
