package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/realtime"
	"salonpro-crm/services"
	"salonpro-crm/utils"
)

type InvoiceItemInput struct {
	ServiceID uuid.UUID `json:"serviceId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"min=1"`
}

// CreateInvoiceInput links an optional order; the order is marked completed.
type CreateInvoiceInput struct {
	ClientID      uuid.UUID          `json:"clientId" binding:"required"`
	OrderID       *uuid.UUID         `json:"orderId"`
	InvoiceDate   *time.Time         `json:"invoiceDate"`
	Items         []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
	Discount      float64            `json:"discount" binding:"min=0"`
	Tax           float64            `json:"tax" binding:"min=0"` // percent
	PaymentStatus string             `json:"paymentStatus" binding:"omitempty,oneof=paid unpaid partial"`
	PaidAmount    float64            `json:"paidAmount" binding:"min=0"`
	PaymentMethod string             `json:"paymentMethod"`
	Notes         string             `json:"notes"`
}

type UpdateInvoiceInput struct {
	ClientID      *uuid.UUID          `json:"clientId"`
	InvoiceDate   *time.Time          `json:"invoiceDate"`
	Items         *[]InvoiceItemInput `json:"items" binding:"omitempty,min=1,dive"`
	Discount      *float64            `json:"discount" binding:"omitempty,min=0"`
	Tax           *float64            `json:"tax" binding:"omitempty,min=0"`
	PaymentStatus *string             `json:"paymentStatus" binding:"omitempty,oneof=paid unpaid partial"`
	PaidAmount    *float64            `json:"paidAmount" binding:"omitempty,min=0"`
	PaymentMethod *string             `json:"paymentMethod"`
	Notes         *string             `json:"notes"`
}

// lookupError is a missing referenced record, answered with 400.
type lookupError struct {
	msg string
}

func (e *lookupError) Error() string { return e.msg }

// CreateInvoice creates an invoice and completes its linked appointment.
func CreateInvoice(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}

	var input CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	invoiceDate := dbTime(time.Now())
	if input.InvoiceDate != nil {
		invoiceDate = dbTime(*input.InvoiceDate)
	}
	status := input.PaymentStatus
	if status == "" {
		status = models.PaymentUnpaid
	}

	invoice := models.Invoice{
		SalonID:         salonID,
		CreatedByUserID: userID,
		ClientID:        input.ClientID,
		OrderID:         input.OrderID,
		InvoiceDate:     invoiceDate,
		Discount:        input.Discount,
		Tax:             input.Tax,
		PaymentStatus:   status,
		PaidAmount:      input.PaidAmount,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
		InvoiceNumber:   "INV-" + invoiceDate.Format("20060102") + "-" + utils.GenerateRandomString(6),
	}

	var before, after *models.Order

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := requireClient(tx, salonID, input.ClientID); err != nil {
		tx.Rollback()
		respondLookupError(c, err)
		return
	}

	items, subtotal, err := buildInvoiceItems(tx, salonID, input.Items)
	if err != nil {
		tx.Rollback()
		respondLookupError(c, err)
		return
	}
	invoice.Items = items
	invoice.Subtotal = subtotal
	invoice.Total = models.InvoiceTotal(subtotal, invoice.Discount, invoice.Tax)

	if input.OrderID != nil {
		before, after, err = completeOrder(tx, salonID, *input.OrderID)
		if err != nil {
			tx.Rollback()
			respondLookupError(c, err)
			return
		}
	}

	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	if after != nil {
		publishOrder(c.Request.Context(), realtime.EventUpdate, before, after)
	}

	c.JSON(http.StatusCreated, invoice)
}

// GetInvoices lists invoices newest first. Optional query: clientId, status.
func GetInvoices(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Items").Where("salon_id = ?", salonID)
	if raw := c.Query("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		query = query.Where("client_id = ?", clientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Order("invoice_date DESC").Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice returns one invoice.
func GetInvoice(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	invoiceID, ok := utils.ParamUUID(c, "id", "invoice")
	if !ok {
		return
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Items").
		Where("salon_id = ? AND id = ?", salonID, invoiceID).
		First(&invoice).Error; err != nil {
		respondDBError(c, err, "Invoice not found")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice edits an invoice; new items replace the old ones.
func UpdateInvoice(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	invoiceID, ok := utils.ParamUUID(c, "id", "invoice")
	if !ok {
		return
	}

	var input UpdateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var invoice models.Invoice
	if err := tx.Preload("Items").
		Where("salon_id = ? AND id = ?", salonID, invoiceID).
		First(&invoice).Error; err != nil {
		tx.Rollback()
		respondDBError(c, err, "Invoice not found")
		return
	}

	if input.ClientID != nil {
		if err := requireClient(tx, salonID, *input.ClientID); err != nil {
			tx.Rollback()
			respondLookupError(c, err)
			return
		}
		invoice.ClientID = *input.ClientID
	}
	if input.InvoiceDate != nil {
		invoice.InvoiceDate = dbTime(*input.InvoiceDate)
	}

	if input.Items != nil {
		items, subtotal, err := buildInvoiceItems(tx, salonID, *input.Items)
		if err != nil {
			tx.Rollback()
			respondLookupError(c, err)
			return
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing items")
			return
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save invoice items")
			return
		}
		invoice.Items = items
		invoice.Subtotal = subtotal
	}

	if input.Discount != nil {
		invoice.Discount = *input.Discount
	}
	if input.Tax != nil {
		invoice.Tax = *input.Tax
	}
	if input.Items != nil || input.Discount != nil || input.Tax != nil {
		invoice.Total = models.InvoiceTotal(invoice.Subtotal, invoice.Discount, invoice.Tax)
	}
	if input.PaymentStatus != nil {
		invoice.PaymentStatus = *input.PaymentStatus
	}
	if input.PaidAmount != nil {
		invoice.PaidAmount = *input.PaidAmount
	}
	if input.PaymentMethod != nil {
		invoice.PaymentMethod = *input.PaymentMethod
	}
	if input.Notes != nil {
		invoice.Notes = *input.Notes
	}

	if err := tx.Omit("Items").Save(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice deletes an invoice.
func DeleteInvoice(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	invoiceID, ok := utils.ParamUUID(c, "id", "invoice")
	if !ok {
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var invoice models.Invoice
	if err := tx.Where("salon_id = ? AND id = ?", salonID, invoiceID).First(&invoice).Error; err != nil {
		tx.Rollback()
		respondDBError(c, err, "Invoice not found")
		return
	}

	if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice items")
		return
	}
	if err := tx.Delete(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}

// EmailInvoice sends the invoice to the client's e-mail address.
func EmailInvoice(c *gin.Context) {
	if Mailer == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "E-mail delivery is not configured")
		return
	}
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	invoiceID, ok := utils.ParamUUID(c, "id", "invoice")
	if !ok {
		return
	}

	var invoice models.Invoice
	if err := config.DB.Preload("Items").
		Where("salon_id = ? AND id = ?", salonID, invoiceID).
		First(&invoice).Error; err != nil {
		respondDBError(c, err, "Invoice not found")
		return
	}

	var client models.Client
	if err := config.DB.Unscoped().Where("salon_id = ? AND id = ?", salonID, invoice.ClientID).First(&client).Error; err != nil {
		respondDBError(c, err, "Client not found")
		return
	}
	if client.Email == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Client has no e-mail address")
		return
	}

	var salon models.Salon
	if err := config.DB.First(&salon, "id = ?", salonID).Error; err != nil {
		respondDBError(c, err, "Salon not found")
		return
	}

	if err := Mailer.Send(c.Request.Context(), services.InvoiceEmail(salon, client, invoice)); err != nil {
		Log.Error("invoice e-mail failed", "invoiceID", invoice.ID, "error", err)
		utils.RespondWithError(c, http.StatusBadGateway, "Failed to send invoice e-mail")
		return
	}

	now := time.Now().UTC()
	config.DB.Model(&invoice).Update("emailed_at", &now)

	c.JSON(http.StatusOK, gin.H{"message": "Invoice sent", "emailedAt": now})
}

func requireClient(tx *gorm.DB, salonID, clientID uuid.UUID) error {
	var client models.Client
	err := tx.Select("id").Where("salon_id = ? AND id = ?", salonID, clientID).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &lookupError{"Client not found"}
	}
	return err
}

// buildInvoiceItems prices each line from the salon's catalog.
func buildInvoiceItems(tx *gorm.DB, salonID uuid.UUID, lines []InvoiceItemInput) ([]models.InvoiceItem, float64, error) {
	var subtotal float64
	items := make([]models.InvoiceItem, 0, len(lines))
	for _, line := range lines {
		var service models.Service
		err := tx.Where("salon_id = ? AND id = ?", salonID, line.ServiceID).First(&service).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, &lookupError{"Service not found: " + line.ServiceID.String()}
		}
		if err != nil {
			return nil, 0, err
		}

		lineTotal := service.Price * float64(line.Quantity)
		subtotal += lineTotal
		items = append(items, models.InvoiceItem{
			ServiceID:   service.ID,
			ServiceName: service.Name,
			Quantity:    line.Quantity,
			UnitPrice:   service.Price,
			TotalPrice:  lineTotal,
		})
	}
	return items, subtotal, nil
}

// completeOrder marks a billed order completed and returns it before and after.
func completeOrder(tx *gorm.DB, salonID, orderID uuid.UUID) (*models.Order, *models.Order, error) {
	var order models.Order
	err := tx.Where("salon_id = ? AND id = ?", salonID, orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, &lookupError{"Appointment not found"}
	}
	if err != nil {
		return nil, nil, err
	}
	if order.IsDeleted() {
		return nil, nil, &lookupError{"Appointment has been deleted"}
	}

	before := order
	if order.Status != models.OrderCompleted {
		order.Status = models.OrderCompleted
		if err := tx.Model(&order).Update("status", order.Status).Error; err != nil {
			return nil, nil, err
		}
	}
	return &before, &order, nil
}

func respondLookupError(c *gin.Context, err error) {
	var le *lookupError
	if errors.As(err, &le) {
		utils.RespondWithError(c, http.StatusBadRequest, le.msg)
		return
	}
	respondDBError(c, err, "")
}
