package adminapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/talkincode/commercedesk/internal/commerce"
	"github.com/talkincode/commercedesk/internal/domain"
	"github.com/talkincode/commercedesk/internal/webserver"
)

type localePayload struct {
	ID             int64  `json:"id,string"`
	Code           string `json:"code" validate:"omitempty,len=7"`
	Name           string `json:"name" validate:"required,min=1,max=200"`
	Address        string `json:"address" validate:"omitempty,max=200"`
	Number         string `json:"number" validate:"omitempty,max=20"`
	Stairwell      string `json:"stairwell" validate:"omitempty,max=20"`
	Floor          string `json:"floor" validate:"omitempty,max=20"`
	Phone          string `json:"phone" validate:"omitempty,max=40"`
	Email          string `json:"email" validate:"omitempty,email"`
	Notes          string `json:"notes" validate:"omitempty,max=500"`
	MaxUsers       int    `json:"max_users" validate:"omitempty,min=0,max=10000"`
	Active         bool   `json:"active"`
	ModuleCurrency bool   `json:"module_currency"`
	ModuleFood     bool   `json:"module_food"`
	ModuleTickets  bool   `json:"module_tickets"`
	ModuleTravel   bool   `json:"module_travel"`
}

type commercePayload struct {
	Name          string          `json:"name" validate:"required,min=1,max=200"`
	LegalName     string          `json:"legal_name" validate:"omitempty,max=200"`
	Address       string          `json:"address" validate:"omitempty,max=200"`
	Phone         string          `json:"phone" validate:"omitempty,max=40"`
	Email         string          `json:"email" validate:"required,email"`
	Country       string          `json:"country" validate:"omitempty,max=100"`
	Notes         string          `json:"notes" validate:"omitempty,max=500"`
	CommissionPct float64         `json:"commission_pct" validate:"min=0,max=100"`
	Active        *bool           `json:"active"`
	Locales       []localePayload `json:"locales" validate:"omitempty,dive"`
}

func (p *commercePayload) toDomain() *domain.Commerce {
	c := &domain.Commerce{
		Name:          strings.TrimSpace(p.Name),
		LegalName:     p.LegalName,
		Address:       p.Address,
		Phone:         p.Phone,
		Email:         strings.TrimSpace(p.Email),
		Country:       p.Country,
		Notes:         p.Notes,
		CommissionPct: p.CommissionPct,
		Active:        true,
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	if p.Locales != nil {
		c.Locales = make([]domain.Locale, 0, len(p.Locales))
		for _, lp := range p.Locales {
			c.Locales = append(c.Locales, domain.Locale{
				ID:             lp.ID,
				Code:           strings.ToUpper(strings.TrimSpace(lp.Code)),
				Name:           strings.TrimSpace(lp.Name),
				Address:        lp.Address,
				Number:         lp.Number,
				Stairwell:      lp.Stairwell,
				Floor:          lp.Floor,
				Phone:          lp.Phone,
				Email:          lp.Email,
				Notes:          lp.Notes,
				MaxUsers:       lp.MaxUsers,
				Active:         lp.Active,
				ModuleCurrency: lp.ModuleCurrency,
				ModuleFood:     lp.ModuleFood,
				ModuleTickets:  lp.ModuleTickets,
				ModuleTravel:   lp.ModuleTravel,
			})
		}
	}
	return c
}

func registerCommerceRoutes() {
	webserver.ApiGET("/commerce", listCommerces)
	webserver.ApiGET("/commerce/stats", getCommerceStats)
	webserver.ApiGET("/commerce/countries", listCommerceCountries)
	webserver.ApiGET("/commerce/export", exportCommerces)
	webserver.ApiGET("/commerce/:id", getCommerce)
	webserver.ApiPOST("/commerce", createCommerce)
	webserver.ApiPUT("/commerce/:id", updateCommerce)
	webserver.ApiPOST("/commerce/:id/active", setCommerceActive)
	webserver.ApiDELETE("/commerce/:id", deleteCommerce)
}

// parseFilter reads the shared listing filter from query params. state
// accepts active, inactive or all (default).
func parseFilter(c echo.Context) commerce.Filter {
	f := commerce.Filter{
		Query:   strings.TrimSpace(c.QueryParam("q")),
		Country: strings.TrimSpace(c.QueryParam("country")),
	}
	switch strings.ToLower(c.QueryParam("state")) {
	case "active":
		v := true
		f.Active = &v
	case "inactive":
		v := false
		f.Active = &v
	}
	return f
}

func listCommerces(c echo.Context) error {
	page, pageSize := parsePagination(c)

	commerces, err := commerceService.List(c.Request().Context(), parseFilter(c))
	if err != nil {
		return failFromErr(c, err)
	}

	total := int64(len(commerces))
	start := (page - 1) * pageSize
	if start > len(commerces) {
		start = len(commerces)
	}
	end := start + pageSize
	if end > len(commerces) {
		end = len(commerces)
	}
	return paged(c, commerces[start:end], total, page, pageSize)
}

func getCommerce(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid commerce ID", nil)
	}
	item, err := commerceService.Get(c.Request().Context(), id)
	if err != nil {
		return failFromErr(c, err)
	}
	return ok(c, item)
}

func createCommerce(c echo.Context) error {
	var payload commercePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse commerce parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	item := payload.toDomain()
	if _, err := commerceService.Create(c.Request().Context(), item); err != nil {
		return failFromErr(c, err)
	}
	return ok(c, item)
}

func updateCommerce(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid commerce ID", nil)
	}
	var payload commercePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse commerce parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	if err := commerceService.Update(c.Request().Context(), id, payload.toDomain()); err != nil {
		return failFromErr(c, err)
	}
	item, err := commerceService.Get(c.Request().Context(), id)
	if err != nil {
		return failFromErr(c, err)
	}
	return ok(c, item)
}

type activePayload struct {
	Active bool `json:"active"`
}

func setCommerceActive(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid commerce ID", nil)
	}
	var payload activePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse parameters", nil)
	}
	if err := commerceService.SetActive(c.Request().Context(), id, payload.Active); err != nil {
		return failFromErr(c, err)
	}
	return ok(c, map[string]interface{}{"id": id, "active": payload.Active})
}

func deleteCommerce(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid commerce ID", nil)
	}
	if err := commerceService.DeleteCommerceCascade(c.Request().Context(), id); err != nil {
		return failFromErr(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}

func getCommerceStats(c echo.Context) error {
	stats, err := commerceService.Stats(c.Request().Context())
	if err != nil {
		return failFromErr(c, err)
	}
	return ok(c, stats)
}

func listCommerceCountries(c echo.Context) error {
	countries, err := commerceService.Countries(c.Request().Context())
	if err != nil {
		return failFromErr(c, err)
	}
	return ok(c, countries)
}

// exportCommerces streams the filtered commerce listing as an XLSX
// workbook.
func exportCommerces(c echo.Context) error {
	commerces, err := commerceService.List(c.Request().Context(), parseFilter(c))
	if err != nil {
		return failFromErr(c, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Commerces"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to build workbook", err.Error())
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Name", "Legal name", "Email", "Phone", "Country", "Commission %", "Active", "Locales", "Users"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, fmt.Sprintf("%s1", col), h)
	}
	f.SetColWidth(sheet, "A", "B", 28)
	f.SetColWidth(sheet, "C", "E", 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s1", lastCol), headerStyle)

	for i, item := range commerces {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.LegalName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Email)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Phone)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Country)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.CommissionPct)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.Active)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), len(item.Locales))
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), item.UserCount)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to write workbook", err.Error())
	}

	filename := fmt.Sprintf("commerces_%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
