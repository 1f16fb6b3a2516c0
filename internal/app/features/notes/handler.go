// internal/app/features/notes/handler.go
package notes

import (
	errorsfeature "github.com/dalemusser/noteshare/internal/app/features/errors"
	notestore "github.com/dalemusser/noteshare/internal/app/store/notes"
	"github.com/dalemusser/noteshare/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves /api/notes and /api/courses.
type Handler struct {
	Notes    *notestore.Store
	ErrLog   *errorsfeature.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger

	DefaultPageSize int
	MaxPageSize     int
}

func NewHandler(
	notes *notestore.Store,
	errLog *errorsfeature.ErrorLogger,
	audit *auditlog.Logger,
	defaultPageSize, maxPageSize int,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Notes:           notes,
		ErrLog:          errLog,
		AuditLog:        audit,
		Log:             logger,
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}
}
