package notify

import (
	"fmt"

	"datapro-service/internal/event"
	"datapro-service/internal/model"
	"datapro-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterHandlers subscribes the notification and inventory side effects on
// the default event bus. Called once at boot, after the database is up.
func RegisterHandlers(db *gorm.DB, mailer *Mailer) {
	event.Subscribe(event.CustomerCreated, func(evt event.Event) error {
		customer, ok := evt.Payload.(*model.Customer)
		if !ok {
			return fmt.Errorf("unexpected payload %T", evt.Payload)
		}
		mailer.Send(customer.Email,
			"Welcome to our service",
			fmt.Sprintf("Dear %s,\n\nYour customer profile has been created.\n", customer.FullName()))
		return nil
	})

	event.Subscribe(event.UserCreated, func(evt event.Event) error {
		user, ok := evt.Payload.(*model.User)
		if !ok {
			return fmt.Errorf("unexpected payload %T", evt.Payload)
		}
		mailer.Send(user.Email,
			"Your account has been created",
			"An administrator has created an account for you.\n")
		return nil
	})

	event.Subscribe(event.VisaStatusChanged, func(evt event.Event) error {
		visa, ok := evt.Payload.(*model.Visa)
		if !ok {
			return fmt.Errorf("unexpected payload %T", evt.Payload)
		}
		// only decisions are worth an email
		if visa.Status != model.VisaApproved && visa.Status != model.VisaRejected {
			return nil
		}
		var customer model.Customer
		if err := db.First(&customer, visa.CustomerID).Error; err != nil {
			return err
		}
		mailer.Send(customer.Email,
			fmt.Sprintf("Visa application update: %s", visa.Status),
			fmt.Sprintf("Your visa application %s is now %s.\n", visa.VisaNumber, visa.Status))
		return nil
	})

	event.Subscribe(event.InvoiceSent, func(evt event.Event) error {
		invoice, ok := evt.Payload.(*model.Invoice)
		if !ok {
			return fmt.Errorf("unexpected payload %T", evt.Payload)
		}
		var customer model.Customer
		if err := db.First(&customer, invoice.CustomerID).Error; err != nil {
			return err
		}
		mailer.Send(customer.Email,
			fmt.Sprintf("New invoice: %s", invoice.InvoiceNumber),
			fmt.Sprintf("Invoice %s for %.2f is due on %s.\n",
				invoice.InvoiceNumber, invoice.TotalAmount, invoice.DueDate))
		return nil
	})

	// Fleet inventory follows transport state: the vehicle is tied up while
	// the transport is running and freed when it reaches a terminal state.
	event.Subscribe(event.TransportStatusChanged, func(evt event.Event) error {
		transport, ok := evt.Payload.(*model.TransportService)
		if !ok {
			return fmt.Errorf("unexpected payload %T", evt.Payload)
		}
		if transport.VehicleID == nil {
			return nil
		}

		var status model.VehicleStatus
		switch transport.Status {
		case model.TransportInTransit:
			status = model.VehicleInUse
		case model.TransportDelivered, model.TransportCancelled:
			status = model.VehicleAvailable
		default:
			return nil
		}

		if err := db.Model(&model.Vehicle{}).
			Where("id = ? AND status <> ?", *transport.VehicleID, model.VehicleMaintenance).
			Update("status", status).Error; err != nil {
			return err
		}
		logger.GetLogger().Debug("vehicle status updated from transport event",
			zap.Uint("vehicle_id", *transport.VehicleID),
			zap.String("status", string(status)))
		return nil
	})
}
