package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cirestech/usermgmt/internal/api/metrics"
	"github.com/cirestech/usermgmt/internal/core/domain"
	"github.com/cirestech/usermgmt/internal/core/ports"
)

// maxImportBytes bounds an import body or uploaded file.
const maxImportBytes = 32 << 20

// ImportHandler ingests batches of users.
type ImportHandler struct {
	service ports.ImportService
}

func NewImportHandler(service ports.ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

// Import handles POST /api/users/batch. The batch is a JSON array sent either
// as the multipart field "file" or as the raw request body.
//
// @Summary      Batch import users
// @Tags         users
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  false  "JSON array of users"
// @Success      200   {object}  importResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/users/batch [post]
func (h *ImportHandler) Import(c echo.Context) error {
	body, err := importBody(c)
	if err != nil {
		return err
	}
	defer body.Close()

	var records []importRecord
	if err := json.NewDecoder(io.LimitReader(body, maxImportBytes)).Decode(&records); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "import file must be a JSON array of users")
	}

	candidates := make([]ports.ImportCandidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, toImportCandidate(r))
	}

	res := h.service.Import(c.Request().Context(), candidates)
	metrics.ImportBatchSize.Observe(float64(res.Total))
	metrics.UsersImportedTotal.WithLabelValues("accepted").Add(float64(res.Accepted))
	metrics.UsersImportedTotal.WithLabelValues("rejected").Add(float64(res.Rejected))

	return c.JSON(http.StatusOK, importResponse{
		TotalRecords:      res.Total,
		SuccessfulImports: res.Accepted,
		FailedImports:     res.Rejected,
	})
}

func importBody(c echo.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return c.Request().Body, nil
	}
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, domain.Invalid("multipart field \"file\" is required")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart payload")
	}
	return fh.Open()
}
