package model

// UIGFVersion 导出使用的 UIGF 版本
const UIGFVersion = "v2.2"

// UIGFInfo UIGF 文件头
type UIGFInfo struct {
	UID              string `json:"uid"`
	Lang             string `json:"lang"`
	ExportTime       string `json:"export_time,omitempty"`
	ExportTimestamp  int64  `json:"export_timestamp,omitempty"`
	ExportApp        string `json:"export_app,omitempty"`
	ExportAppVersion string `json:"export_app_version,omitempty"`
	UIGFVersion      string `json:"uigf_version,omitempty"`
}

// UIGFRecord UIGF 记录，比内部格式多一个 uigf_gacha_type
type UIGFRecord struct {
	PullRecord
	UIGFGachaType string `json:"uigf_gacha_type"`
}

// UIGF 统一可交换祈愿记录格式
type UIGF struct {
	Info UIGFInfo     `json:"info"`
	List []UIGFRecord `json:"list"`
}
