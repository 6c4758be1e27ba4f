package controllers

import (
	"fmt"

	"github.com/218451LIJIAQI/edutech-platform-sub000/middleware"
	"github.com/218451LIJIAQI/edutech-platform-sub000/services"
	"github.com/218451LIJIAQI/edutech-platform-sub000/utils"
	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"
)

// Export handles GET /teacher/earnings/export?format=xlsx|pdf
func (ctrl *EarningsController) Export(c *gin.Context) {
	utils.LogInfo("Teacher earnings export called")
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, "User not found")
		return
	}

	entries, err := ctrl.earnings.EntriesForTeacher(user.ID)
	if err != nil {
		utils.LogError("Failed to load earnings for teacher %d: %v", user.ID, err)
		utils.HandleServiceError(c, err)
		return
	}

	summary, err := ctrl.earnings.SummaryForTeacher(user.ID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	switch format {
	case "xlsx":
		ctrl.exportExcel(c, entries, summary)
	case "pdf":
		ctrl.exportPDF(c, entries, summary)
	default:
		utils.BadRequest(c, "Invalid format", "Format must be xlsx or pdf")
	}
}

func (ctrl *EarningsController) exportExcel(c *gin.Context, entries []services.EarningEntry, summary *services.EarningsSummary) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Earnings")
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", err.Error())
		return
	}

	headers := []string{"Kind", "Payment ID", "Order Item ID", "Course", "Package ID", "Amount", "Earned At"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	for _, e := range entries {
		row := sheet.AddRow()
		row.AddCell().SetString(e.Kind)
		row.AddCell().SetInt(int(e.PaymentID))
		if e.OrderItemID != nil {
			row.AddCell().SetInt(int(*e.OrderItemID))
		} else {
			row.AddCell().SetString("-")
		}
		row.AddCell().SetString(e.CourseTitle)
		row.AddCell().SetInt(int(e.PackageID))
		row.AddCell().SetFloat(e.Amount)
		row.AddCell().SetString(e.EarnedAt.Format("2006-01-02 15:04"))
	}

	sheet.AddRow() // spacing
	totalRow := sheet.AddRow()
	totalRow.AddCell().SetString("Total")
	totalRow.AddCell().SetString(fmt.Sprintf("%.2f", summary.Total))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=earnings.xlsx")
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
		utils.InternalServerError(c, "Failed to write Excel file", err.Error())
		return
	}
	utils.LogInfo("Generated earnings Excel export with %d entries", len(entries))
}

func (ctrl *EarningsController) exportPDF(c *gin.Context, entries []services.EarningEntry, summary *services.EarningsSummary) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 12, "Teacher Earnings Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	colWidths := []float64{30, 25, 30, 90, 30, 30, 40}
	headers := []string{"Kind", "Payment", "Order Item", "Course", "Package", "Amount", "Earned At"}
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, e := range entries {
		orderItem := "-"
		if e.OrderItemID != nil {
			orderItem = fmt.Sprintf("%d", *e.OrderItemID)
		}
		cols := []string{
			e.Kind,
			fmt.Sprintf("%d", e.PaymentID),
			orderItem,
			e.CourseTitle,
			fmt.Sprintf("%d", e.PackageID),
			fmt.Sprintf("%.2f", e.Amount),
			e.EarnedAt.Format("2006-01-02 15:04"),
		}
		for i, col := range cols {
			pdf.CellFormat(colWidths[i], 7, col, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Total earnings: %.2f (%d entries)", summary.Total, summary.Entries))

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "attachment; filename=earnings.pdf")
	if err := pdf.Output(c.Writer); err != nil {
		utils.LogError("Failed to write PDF file: %v", err)
		utils.InternalServerError(c, "Failed to write PDF file", err.Error())
		return
	}
	utils.LogInfo("Generated earnings PDF export with %d entries", len(entries))
}
