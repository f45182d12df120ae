package orders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"chefbazar/models"
	"chefbazar/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

// GET /orders/:id/receipt
func (s *OrderService) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := s.store.FindOrder(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to fetch order")
		return
	}
	// someone else's order is reported the same as a missing one
	if order.Customer.Email != utils.GetEmailFromRequest(r) {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}

	pdfBytes, err := renderReceipt(order)
	if err != nil {
		utils.RespondWithErr(w, err, "Failed to generate receipt")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+order.ID.Hex()+".pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdfBytes); err != nil {
		logrus.WithError(err).WithField("orderId", order.ID.Hex()).Error("failed to write receipt")
	}
}

func renderReceipt(order *models.Order) ([]byte, error) {
	qrPNG, err := qrcode.Encode(order.TransactionID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Local Chef Bazar - Order Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"Order: %s\nTransaction: %s\nPlaced: %s\nStatus: %s",
		order.ID.Hex(),
		order.TransactionID,
		order.CreatedAt.Format("02 Jan 2006 15:04"),
		order.OrderStatus,
	), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Meal")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"%s\nChef: %s\nQuantity: %d x $%.2f\nTotal: $%.2f",
		order.FoodName,
		order.Chef.Name,
		order.Quantity,
		order.Price,
		order.TotalPrice,
	), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Deliver to")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf("%s\n%s\n%s", order.Customer.Name, order.Customer.Email, order.Customer.Address), "", "L", false)

	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imgOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
