package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/client"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/service"
	"github.com/lk2023060901/gachalogs/pkg/web"
	weberrors "github.com/lk2023060901/gachalogs/pkg/web/errors"
)

// errorCode 错误对应的业务码与提示
func errorCode(err error) (int, string) {
	var stageErr *client.StageError
	switch {
	case errors.Is(err, service.ErrForbidden):
		return weberrors.CodeForbidden, service.UserMessage(err)
	case errors.Is(err, service.ErrConfirmRequired):
		return weberrors.CodeConflict, "删除操作需要确认，请附带 confirm=true 重试"
	case errors.Is(err, service.ErrUploadDisabled):
		return weberrors.CodeInvalidParams, "未配置导出文件上传"
	case errors.Is(err, service.ErrImportRejected):
		return weberrors.CodeConflict, service.ImportHint(err)
	case errors.Is(err, service.ErrInvalidImport),
		errors.Is(err, service.ErrCorruptBatch),
		errors.Is(err, service.ErrUnsupportedRegion):
		return weberrors.CodeInvalidParams, service.ImportHint(err)
	case errors.Is(err, service.ErrNoLogs), errors.Is(err, dao.ErrNotFound):
		return weberrors.CodeNotFound, service.UserMessage(err)
	case errors.Is(err, client.ErrNoURL), errors.Is(err, client.ErrInvalidURL):
		return weberrors.CodeInvalidParams, service.UserMessage(err)
	case errors.Is(err, client.ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		return weberrors.CodeTimeout, service.UserMessage(err)
	case errors.As(err, &stageErr),
		errors.Is(err, client.ErrAuthKeyExpired),
		errors.Is(err, client.ErrCredentialInvalid),
		errors.Is(err, client.ErrNoRecords),
		errors.Is(err, client.ErrRequestFailed),
		errors.Is(err, client.ErrResponseInvalid):
		return weberrors.CodeExternalError, service.UserMessage(err)
	}
	if hint := service.ImportHint(err); hint != "" {
		return weberrors.CodeExternalError, hint
	}
	return weberrors.CodeInternalError, service.UserMessage(err)
}

func (h *GachaLogHandler) fail(c *gin.Context, err error) {
	code, msg := errorCode(err)
	if code >= weberrors.CodeInternalError {
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(), "user_id", c.Param("user_id"), "code", code, "error", err)
	} else {
		h.logger.WarnContext(c.Request.Context(), "request rejected",
			"path", c.FullPath(), "user_id", c.Param("user_id"), "code", code, "error", err)
	}
	web.Fail(c, code, msg)
}
