package service

import (
	"context"
	"fmt"
	"log"
	"net/mail"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/comprobantes/model"
	authModel "colegio_backend/internals/features/users/auth/model"
	"colegio_backend/internals/helpers/mailer"
)

// Notice describes a resolved comprobante for the person who submitted it.
type Notice struct {
	ComprobanteID uuid.UUID
	SchoolID      uuid.UUID
	UserID        uuid.UUID
	Estado        model.EstadoComprobante
	Monto         decimal.Decimal
	Motivo        *string
	CodigoRecibo  string
}

// Notifier is called after the resolving transaction commits. It must not block.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notice) {}

// MailNotifier e-mails the submitter.
type MailNotifier struct {
	DB     *gorm.DB
	Mailer mailer.Mailer
}

func (n MailNotifier) Notify(ctx context.Context, notice Notice) {
	if notice.UserID == uuid.Nil {
		return
	}
	var u authModel.User
	if err := n.DB.WithContext(ctx).Where("id = ?", notice.UserID).First(&u).Error; err != nil {
		log.Printf("[WARN] notify comprobante %s: %v", notice.ComprobanteID, err)
		return
	}

	msg := mailer.Message{
		To: []mail.Address{{Name: u.FullName, Address: u.Email}},
	}
	switch notice.Estado {
	case model.EstadoAprobado:
		msg.Subject = "Comprobante aprobado"
		msg.TextContent = fmt.Sprintf(
			"Su comprobante por %s fue aprobado.\nCódigo de verificación del recibo: %s\n",
			notice.Monto.StringFixed(2), notice.CodigoRecibo)
	case model.EstadoRechazado:
		motivo := ""
		if notice.Motivo != nil {
			motivo = *notice.Motivo
		}
		msg.Subject = "Comprobante rechazado"
		msg.TextContent = fmt.Sprintf(
			"Su comprobante por %s fue rechazado.\nMotivo: %s\n",
			notice.Monto.StringFixed(2), motivo)
	default:
		return
	}
	n.Mailer.Send(ctx, msg)
}
