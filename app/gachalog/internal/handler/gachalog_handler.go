package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/service"
	"github.com/lk2023060901/gachalogs/pkg/checksum"
	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/lk2023060901/gachalogs/pkg/web"
	weberrors "github.com/lk2023060901/gachalogs/pkg/web/errors"
)

// HeaderOperatorID 发起操作的用户，缺省视为路径中的用户本人
const HeaderOperatorID = "X-Operator-ID"

// GachaLogHandler 抽卡记录接口
type GachaLogHandler struct {
	svc    *service.GachaLogService
	logger logger.Logger
}

// NewGachaLogHandler 创建抽卡记录处理器
func NewGachaLogHandler(svc *service.GachaLogService, l logger.Logger) *GachaLogHandler {
	return &GachaLogHandler{
		svc:    svc,
		logger: logger.OrDefault(l).Named("handler.gachalog"),
	}
}

// RefreshRequest 刷新请求
type RefreshRequest struct {
	URL    string `json:"url"`
	Cookie string `json:"cookie"`
	Force  bool   `json:"force"`
}

// RefreshResponse 刷新响应
type RefreshResponse struct {
	UID     string                 `json:"uid"`
	Message string                 `json:"message"`
	Cached  bool                   `json:"cached"`
	Added   map[model.Category]int `json:"added,omitempty"`
	Logs    model.Logs             `json:"logs"`
}

// LogsResponse 本地记录
type LogsResponse struct {
	UID  string          `json:"uid"`
	Time int64           `json:"time"`
	Logs json.RawMessage `json:"logs"`
}

// DeleteResponse 删除结果
type DeleteResponse struct {
	UID     string `json:"uid,omitempty"`
	Message string `json:"message"`
}

// ImportResponse 导入结果
type ImportResponse struct {
	UserID  string                 `json:"user_id"`
	UID     string                 `json:"uid"`
	Format  string                 `json:"format"`
	Backup  bool                   `json:"backup"`
	Message string                 `json:"message"`
	Added   map[model.Category]int `json:"added,omitempty"`
}

// ExportResponse 上传后的导出文件
type ExportResponse struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// Register 注册路由
func (h *GachaLogHandler) Register(r *gin.Engine) {
	users := r.Group("/api/v1/users/:user_id")
	{
		users.POST("/refresh", h.Refresh)
		users.GET("/logs", h.Logs)
		users.GET("/config", h.Config)
		users.DELETE("", h.Delete)
		users.POST("/import", h.Import)
		users.GET("/export", h.Export)
		users.GET("/stats", h.Stats)
	}
}

// operator 请求头中的操作者，缺省为路径中的用户
func operator(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(HeaderOperatorID)); id != "" {
		return id
	}
	return c.Param("user_id")
}

// Refresh 获取最新记录并合并
// @Router /api/v1/users/{user_id}/refresh [post]
func (h *GachaLogHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			web.Fail(c, weberrors.CodeInvalidParams, "invalid request: "+err.Error())
			return
		}
	}

	res, err := h.svc.Refresh(c.Request.Context(), service.RefreshRequest{
		UserID: c.Param("user_id"),
		URL:    strings.TrimSpace(req.URL),
		Cookie: strings.TrimSpace(req.Cookie),
		Force:  req.Force,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Success(c, RefreshResponse{
		UID:     res.AccountID,
		Message: res.Message,
		Cached:  res.Cached,
		Added:   res.Added,
		Logs:    res.Logs,
	})
}

// Logs 本地记录，支持 If-None-Match
// @Router /api/v1/users/{user_id}/logs [get]
func (h *GachaLogHandler) Logs(c *gin.Context) {
	view, err := h.svc.GetLogs(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := json.Marshal(view.Logs)
	if err != nil {
		h.fail(c, err)
		return
	}

	etag := checksum.ETag(data)
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	web.Success(c, LogsResponse{UID: view.AccountID, Time: view.Time, Logs: data})
}

// Config 脱敏后的配置
// @Router /api/v1/users/{user_id}/config [get]
func (h *GachaLogHandler) Config(c *gin.Context) {
	view, err := h.svc.GetConfig(c.Request.Context(), operator(c), c.Param("user_id"), c.Query("reveal"))
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Success(c, view)
}

// Delete 删除记录或全部配置
// @Router /api/v1/users/{user_id} [delete]
func (h *GachaLogHandler) Delete(c *gin.Context) {
	scope, ok := dao.ParseDeleteScope(web.GetQuery(c, "scope", "records"))
	if !ok {
		web.Fail(c, weberrors.CodeInvalidParams, "scope must be records or all")
		return
	}

	res, err := h.svc.Delete(c.Request.Context(), operator(c), c.Param("user_id"), scope, web.QueryBool(c, "confirm"))
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Success(c, DeleteResponse{UID: res.AccountID, Message: res.Message})
}

// Import 请求体为导入文件本身，或 {"file_url": "..."}
// @Router /api/v1/users/{user_id}/import [post]
func (h *GachaLogHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		web.Fail(c, weberrors.CodeTooLarge, "导入文件过大")
		return
	}

	var ref struct {
		FileURL string `json:"file_url"`
	}
	var res *service.ImportResult
	if json.Unmarshal(data, &ref) == nil && ref.FileURL != "" {
		res, err = h.svc.ImportFromURL(c.Request.Context(), operator(c), ref.FileURL)
	} else {
		res, err = h.svc.Import(c.Request.Context(), operator(c), data)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Success(c, ImportResponse{
		UserID:  res.UserID,
		UID:     res.AccountID,
		Format:  res.Format,
		Backup:  res.Backup != "",
		Message: res.Message,
		Added:   res.Added,
	})
}

// Export 下载 UIGF 文件；upload=true 时返回上传后的链接
// @Router /api/v1/users/{user_id}/export [get]
func (h *GachaLogHandler) Export(c *gin.Context) {
	upload := web.QueryBool(c, "upload")
	res, err := h.svc.Export(c.Request.Context(), operator(c), c.Param("user_id"), upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	if upload {
		web.Success(c, ExportResponse{FileName: res.FileName, URL: res.URL})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Data)
}

// Stats 各卡池统计
// @Router /api/v1/users/{user_id}/stats [get]
func (h *GachaLogHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	web.Success(c, st)
}
