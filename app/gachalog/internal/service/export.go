package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
	"github.com/lk2023060901/gachalogs/pkg/app"
)

// firstSyntheticID 补全 id 的起点
const firstSyntheticID = 1000000000000000001

// ExportResult 导出结果
type ExportResult struct {
	FileName string
	Data     []byte
	UIGF     *model.UIGF
	// URL 上传后的下载地址
	URL string
}

// BuildUIGF 转换为 UIGF，按时间从旧到新排列，缺失的 id 依次补全
func BuildUIGF(uid string, logs model.Logs, now time.Time, exportApp string) *model.UIGF {
	var list []model.UIGFRecord
	for _, c := range model.Categories() {
		for _, r := range logs.Get(c).Records() {
			list = append(list, model.UIGFRecord{PullRecord: r, UIGFGachaType: string(c)})
		}
	}
	slices.SortStableFunc(list, func(a, b model.UIGFRecord) int {
		return model.CompareRecency(a.PullRecord, b.PullRecord)
	})

	next := uint64(firstSyntheticID)
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = strconv.FormatUint(next, 10)
			next++
		}
	}
	if list == nil {
		list = []model.UIGFRecord{}
	}

	return &model.UIGF{
		Info: model.UIGFInfo{
			UID:              uid,
			Lang:             "zh-cn",
			ExportTime:       now.In(model.Location).Format(model.TimeLayout),
			ExportTimestamp:  now.Unix(),
			ExportApp:        exportApp,
			ExportAppVersion: app.Version,
			UIGFVersion:      model.UIGFVersion,
		},
		List: list,
	}
}

// Export 导出 UIGF 文件，upload 为 true 时同时上传
func (s *GachaLogService) Export(ctx context.Context, operatorID, userID string, upload bool) (*ExportResult, error) {
	if err := s.authorize(operatorID, userID); err != nil {
		return nil, err
	}
	view, err := s.GetLogs(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	uigf := BuildUIGF(view.AccountID, view.Logs, now, s.cfg.ExportApp)
	data, err := json.MarshalIndent(uigf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal uigf: %w", err)
	}
	res := &ExportResult{
		FileName: fmt.Sprintf("UIGF-%s-%s.json", view.AccountID, now.In(model.Location).Format("20060102150405")),
		Data:     data,
		UIGF:     uigf,
	}

	if upload {
		if s.uploader == nil {
			return nil, ErrUploadDisabled
		}
		url, err := s.uploader.Upload(ctx, res.FileName, data, "application/json")
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to upload export", "user_id", userID, "file", res.FileName, "error", err)
			return nil, fmt.Errorf("failed to upload export: %w", err)
		}
		res.URL = url
	}
	s.logger.InfoContext(ctx, "gacha logs exported", "operator", operatorID, "user_id", userID, "records", len(uigf.List))
	return res, nil
}
