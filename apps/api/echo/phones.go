package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/batch"
	"github.com/trezcool/shule/core/phone"
	"github.com/trezcool/shule/core/reconcile"
	"github.com/trezcool/shule/storage/spreadsheet"
)

const (
	mimeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	fileField = "file"
)

type (
	NormalizeRequest struct {
		Phone string `json:"phone"`
	}

	NormalizeResponse struct {
		Input         string `json:"input"`
		Normalized    string `json:"normalized"`
		International string `json:"international"`
		Mobile        bool   `json:"mobile"`
	}

	RowsRequest struct {
		Rows []reconcile.Row `json:"rows"`
	}

	CommitResponse struct {
		Result reconcile.Result `json:"result"`
		Report batch.Report     `json:"report"`
	}
)

type phoneApi struct {
	normalizer *phone.Normalizer
	svc        *reconcile.Service
}

func registerPhoneAPI(g *echo.Group, normalizer *phone.Normalizer, svc *reconcile.Service) {
	api := phoneApi{normalizer: normalizer, svc: svc}

	pg := g.Group("/phones")
	pg.POST("/normalize", api.normalize)
	pg.POST("/reconcile", api.reconcile)
	pg.POST("/commit", api.commit)
	pg.GET("/template", api.template)
}

// readRows reads the uploaded rows, from an xlsx `file` form field or a JSON body.
func (api *phoneApi) readRows(ctx echo.Context) ([]reconcile.Row, error) {
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := ctx.FormFile(fileField)
		if err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: fileField, Error: "an xlsx file is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(err, "opening upload")
		}
		defer func() { _ = f.Close() }()

		rows, err := spreadsheet.ParsePhoneRows(f)
		if err != nil {
			switch cause := errors.Cause(err); cause {
			case spreadsheet.ErrNoData, spreadsheet.ErrTooManyRows, spreadsheet.ErrBadHeader, spreadsheet.ErrUnreadable:
				return nil, core.NewValidationError(err, core.FieldError{Field: fileField, Error: cause.Error()})
			}
			return nil, errors.Wrap(err, "parsing upload")
		}
		return rows, nil
	}

	var data RowsRequest
	if err := bind(ctx, &data, "RowsRequest"); err != nil {
		return nil, err
	}
	if len(data.Rows) == 0 {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "rows", Error: "this field is required"})
	}
	for i := range data.Rows {
		if data.Rows[i].Line == 0 {
			data.Rows[i].Line = i + 1
		}
	}
	return data.Rows, nil
}

func attachXLSX(ctx echo.Context, filename string, write func(buf *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

// Handlers

func (api *phoneApi) normalize(ctx echo.Context) error {
	var data NormalizeRequest
	if err := bind(ctx, &data, "NormalizeRequest"); err != nil {
		return err
	}
	normalized, err := api.normalizer.Normalize(data.Phone)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "phone", Error: err.Error()})
	}
	return ctx.JSON(http.StatusOK, NormalizeResponse{
		Input:         data.Phone,
		Normalized:    normalized,
		International: phone.International(normalized),
		Mobile:        api.normalizer.Rules().IsMobile(normalized),
	})
}

// reconcile previews an upload. With `?download=rejected` it returns the rejected rows as a workbook.
func (api *phoneApi) reconcile(ctx echo.Context) error {
	rows, err := api.readRows(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Preview(ctx.Request().Context(), rows)
	if err != nil {
		return err
	}
	if ctx.QueryParam("download") == "rejected" {
		return attachXLSX(ctx, "rejected_phones.xlsx", func(buf *bytes.Buffer) error {
			return spreadsheet.WriteRejected(buf, res.Rejected())
		})
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *phoneApi) commit(ctx echo.Context) error {
	rows, err := api.readRows(ctx)
	if err != nil {
		return err
	}
	res, report, err := api.svc.Apply(ctx.Request().Context(), rows)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, CommitResponse{Result: res, Report: report})
}

func (api *phoneApi) template(ctx echo.Context) error {
	rows, err := api.svc.TemplateRows(ctx.Request().Context())
	if err != nil {
		return err
	}
	return attachXLSX(ctx, "guardian_phones.xlsx", func(buf *bytes.Buffer) error {
		return spreadsheet.WriteTemplate(buf, rows)
	})
}
