package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"twcompany/exporter"
	"twcompany/importer"
	"twcompany/internal/api/handlers/common"
	lookupapp "twcompany/internal/application/lookup"
	"twcompany/reconcile"
	apperrors "twcompany/server/errors"
	"twcompany/server/middleware"
)

const (
	// MaxUploadSize предельный размер входного файла
	MaxUploadSize = 20 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Service пакетная обработка
type Service interface {
	Batch(ctx context.Context, queries []reconcile.RawQuery, progress reconcile.ProgressFunc) (*lookupapp.BatchResult, error)
}

// Handler HTTP обработчик пакетной обработки
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler создает обработчик
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default().With("component", "batch_handler"),
	}
}

// Reconcile принимает файл .xlsx или .csv и отдает книгу результата.
// Колонки задаются полями id_column и name_column (текст заголовка),
// иначе определяются по заголовкам. format=json отдает результат в JSON.
// POST /api/batch
func (h *Handler) Reconcile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.HandleGinError(c, apperrors.NewTooLargeError(fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), err))
			return
		}
		middleware.HandleGinError(c, apperrors.NewValidationError("multipart field file is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleGinError(c, apperrors.NewValidationError("failed to open uploaded file", err))
		return
	}
	defer file.Close()

	table, err := importer.Read(fileHeader.Filename, file)
	if err != nil {
		middleware.HandleGinError(c, apperrors.NewValidationError(err.Error(), err))
		return
	}

	selection, err := table.Select(c.PostForm("id_column"), c.PostForm("name_column"))
	if err != nil {
		middleware.HandleGinError(c, apperrors.NewValidationError(err.Error(), err))
		return
	}
	queries, err := table.Queries(selection)
	if err != nil {
		middleware.HandleGinError(c, apperrors.NewValidationError(err.Error(), err))
		return
	}

	batchID := uuid.New().String()
	logger := h.logger.With("batch_id", batchID, "request_id", middleware.GetRequestIDFromGin(c))
	logger.Info("batch started",
		"file", fileHeader.Filename,
		"rows", len(queries),
		"id_column", selection.IDColumn,
		"name_column", selection.NameColumn,
	)

	start := time.Now()
	result, err := h.service.Batch(c.Request.Context(), queries, func(done, total int, label string) {
		logger.Debug("batch progress", "done", done, "total", total, "label", label)
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	logger.Info("batch completed",
		"rows", len(result.Rows),
		"directors", len(result.Directors),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	c.Header("X-Batch-ID", batchID)
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, result)
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteResults(&buf, result.Rows, result.Directors); err != nil {
		common.RespondError(c, apperrors.WrapError(err, "failed to build result workbook"))
		return
	}
	sendWorkbook(c, exporter.ResultFileName, buf.Bytes())
}

// Template отдает пример входного файла
// GET /api/batch/template
func (h *Handler) Template(c *gin.Context) {
	var buf bytes.Buffer
	if err := exporter.WriteTemplate(&buf); err != nil {
		common.RespondError(c, apperrors.WrapError(err, "failed to build template workbook"))
		return
	}
	sendWorkbook(c, exporter.TemplateFileName, buf.Bytes())
}

func sendWorkbook(c *gin.Context, fileName string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	c.Data(http.StatusOK, xlsxContentType, data)
}
