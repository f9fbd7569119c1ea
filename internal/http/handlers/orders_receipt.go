package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"thaniel-pos-services/internal/middleware"
	"thaniel-pos-services/pkg/response"

	"github.com/phpdave11/gofpdf"
)

type receiptLine struct {
	Name     string
	Quantity int32
	Notes    string
	Subtotal string
}

type receiptData struct {
	CafeName     string
	OrderCode    string
	TableName    string
	CustomerName string
	PlacedAt     string
	Status       string
	Lines        []receiptLine
	Total        string
	CashierName  string
}

// OrderReceiptPDF renders a printable receipt for one order.
func (h *Handler) OrderReceiptPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	var (
		code         string
		customerName string
		tableName    string
		status       string
		createdAt    time.Time
	)
	err = h.DB.QueryRow(ctx, `
		select o.order_id, o.customer_name, t.name, o.status, o.created_at
		from orders o
		join tables t on t.id = o.table_id
		where o.id = $1
	`, id).Scan(&code, &customerName, &tableName, &status, &createdAt)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	lines, gross, err := h.orderLines(ctx, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	data := receiptData{
		CafeName:     h.Config.OrderCodePrefix,
		OrderCode:    code,
		TableName:    tableName,
		CustomerName: customerName,
		PlacedAt:     createdAt.Format("2006-01-02 15:04"),
		Status:       status,
		Total:        formatReceiptAmount(gross),
	}
	if authCtx, ok := middleware.GetAuthContext(ctx); ok {
		data.CashierName = authCtx.Name
	}
	for _, line := range lines {
		data.Lines = append(data.Lines, receiptLine{
			Name:     line.MenuName,
			Quantity: line.Quantity,
			Notes:    derefString(line.Notes),
			Subtotal: formatReceiptAmount(line.Price * float64(line.Quantity)),
		})
	}

	buf, err := renderReceiptPDF(data)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(code))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatReceiptAmount(amount float64) string {
	return fmt.Sprintf("Rp%.0f", amount)
}

func sanitizeFilename(value string) string {
	re := regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	clean := re.ReplaceAllString(value, "_")
	return strings.Trim(clean, "_")
}

func renderReceiptPDF(data receiptData) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, data.CafeName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order %s", data.OrderCode), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Table %s", data.TableName), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Customer: %s", data.CustomerName), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", data.PlacedAt), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range data.Lines {
		pdf.CellFormat(0, 5, fmt.Sprintf("%dx %s", line.Quantity, line.Name), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %s", line.Subtotal), "", 1, "L", false, 0, "")
		if line.Notes != "" {
			pdf.MultiCell(0, 4, fmt.Sprintf("Notes: %s", line.Notes), "", "L", false)
		}
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", data.Total), "", 1, "L", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", data.Status), "", 1, "L", false, 0, "")
	if data.CashierName != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Cashier: %s", data.CashierName), "", 1, "L", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
