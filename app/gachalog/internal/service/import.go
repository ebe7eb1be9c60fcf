package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-version"

	"github.com/lk2023060901/gachalogs/app/gachalog/internal/dao"
	"github.com/lk2023060901/gachalogs/app/gachalog/internal/model"
)

// 导入文件格式
const (
	FormatInner = "inner"
	FormatUIGF  = "uigf"
)

const (
	hintBadFormat = "导入的抽卡记录文件格式异常"
	hintBadBatch  = "UIGF 文件中某时刻的数据既非单抽也非十连，拒绝导入异常数据！"
	// syntheticIDPrefix 导出时补全的 id 前缀，导入时不可信
	syntheticIDPrefix = "1000"
)

var (
	// 导入记录必需的字段
	requiredKeys = []string{"gacha_type", "time", "name", "item_type", "rank_type", "id"}
	// 支持的 UIGF 版本范围
	uigfConstraint = version.MustConstraints(version.NewConstraint(">= 2.0, < 3.0"))
	// 支持的 UID 首位
	supportedUIDPrefixes = []string{"1", "2", "5"}
)

// ImportFile 解析后的导入文件
type ImportFile struct {
	Format    string
	AccountID string
	// Timestamp 最新一条记录的时间
	Timestamp int64
	// Inner 内部格式的完整记录
	Inner model.Logs
	// Records UIGF 格式的记录列表，保持文件原有 id
	Records []model.PullRecord
}

// ParseImport 识别内部格式或 UIGF 格式并校验每条记录
func ParseImport(data []byte) (*ImportFile, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, invalidImport(err, "可能由于文件不是合法的 JSON")
	}

	var (
		file *ImportFile
		err  error
	)
	switch {
	case len(probe) > 0 && allDigits(keysOf(probe)):
		file, err = parseInner(probe)
	case len(probe["info"]) > 0 && len(probe["list"]) > 0:
		file, err = parseUIGF(probe)
	default:
		return nil, errors.WithHint(errors.Wrap(ErrInvalidImport, "neither inner nor uigf"), "抽卡记录导入文件格式错误！")
	}
	if err != nil {
		return nil, err
	}

	if !slices.ContainsFunc(supportedUIDPrefixes, func(p string) bool { return strings.HasPrefix(file.AccountID, p) }) {
		return nil, errors.WithHintf(errors.Wrapf(ErrUnsupportedRegion, "uid %s", file.AccountID),
			"抽卡记录拥有者 UID%s 所属服务器暂未支持", file.AccountID)
	}
	return file, nil
}

func parseInner(probe map[string]json.RawMessage) (*ImportFile, error) {
	file := &ImportFile{Format: FormatInner, Inner: model.Logs{}}
	var alias []model.PullRecord

	for _, code := range keysOf(probe) {
		c, err := model.ParseCategory(code)
		if err != nil {
			return nil, invalidImport(err, hintBadFormat)
		}
		var raw []map[string]string
		if err := json.Unmarshal(probe[code], &raw); err != nil {
			return nil, invalidImport(errors.Wrapf(err, "category %s", code), hintBadFormat)
		}

		records := make([]model.PullRecord, 0, len(raw))
		for i, m := range raw {
			if m["uid"] == "" {
				return nil, invalidImport(errors.Newf("category %s record #%d: missing uid", code, i), hintBadFormat)
			}
			r, err := toRecord(m, file.AccountID, requiredKeys)
			if err != nil {
				return nil, invalidImport(errors.Wrapf(err, "category %s record #%d", code, i), hintBadFormat)
			}
			if file.AccountID == "" {
				file.AccountID = r.UID
			}
			if err := file.observe(r); err != nil {
				return nil, invalidImport(errors.Wrapf(err, "category %s record #%d", code, i), hintBadFormat)
			}
			records = append(records, r)
		}

		if c == model.CategoryCharacter2 {
			alias = append(alias, records...)
			continue
		}
		file.Inner[c] = model.SortCategoryLog(records)
	}
	if len(alias) > 0 {
		merged, err := file.Inner[model.CategoryCharacter].Insert(model.SortCategoryLog(alias).Records()...)
		if err != nil {
			return nil, invalidImport(err, hintBadFormat)
		}
		file.Inner[model.CategoryCharacter] = merged
	}
	if file.AccountID == "" {
		return nil, invalidImport(errors.New("no records"), hintBadFormat)
	}
	return file, nil
}

func parseUIGF(probe map[string]json.RawMessage) (*ImportFile, error) {
	var info struct {
		UID         string `json:"uid"`
		UIGFVersion string `json:"uigf_version"`
	}
	if err := json.Unmarshal(probe["info"], &info); err != nil {
		return nil, invalidImport(errors.Wrap(err, "info"), hintBadFormat)
	}
	if info.UID == "" || !allDigits([]string{info.UID}) {
		return nil, invalidImport(errors.Newf("info.uid %q", info.UID), hintBadFormat)
	}
	if info.UIGFVersion != "" {
		v, err := version.NewVersion(info.UIGFVersion)
		if err != nil || !uigfConstraint.Check(v) {
			return nil, errors.WithHintf(errors.Wrapf(ErrInvalidImport, "uigf_version %s", info.UIGFVersion),
				"暂不支持 UIGF %s 版本的文件", info.UIGFVersion)
		}
	}

	var raw []map[string]string
	if err := json.Unmarshal(probe["list"], &raw); err != nil {
		return nil, invalidImport(errors.Wrap(err, "list"), hintBadFormat)
	}
	if len(raw) == 0 {
		return nil, invalidImport(errors.New("empty list"), hintBadFormat)
	}

	keys := append(slices.Clone(requiredKeys), "uigf_gacha_type")
	file := &ImportFile{Format: FormatUIGF, AccountID: info.UID, Records: make([]model.PullRecord, 0, len(raw))}
	for i, m := range raw {
		if uid, ok := m["uid"]; ok && uid != "" && uid != info.UID {
			return nil, invalidImport(errors.Newf("record #%d: uid %s differs from %s", i, uid, info.UID), hintBadFormat)
		}
		r, err := toRecord(m, info.UID, keys)
		if err != nil {
			return nil, invalidImport(errors.Wrapf(err, "record #%d", i), hintBadFormat)
		}
		if err := file.observe(r); err != nil {
			return nil, invalidImport(errors.Wrapf(err, "record #%d", i), hintBadFormat)
		}
		file.Records = append(file.Records, r)
	}
	return file, nil
}

// observe 校验账号一致并更新最新时间
func (f *ImportFile) observe(r model.PullRecord) error {
	if r.UID != f.AccountID {
		return errors.Newf("uid %s differs from %s", r.UID, f.AccountID)
	}
	ts, err := r.Timestamp()
	if err != nil {
		return err
	}
	f.Timestamp = max(f.Timestamp, ts.Unix())
	return nil
}

// toRecord 按官方返回补全可选字段并校验
func toRecord(m map[string]string, uid string, keys []string) (model.PullRecord, error) {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return model.PullRecord{}, errors.Newf("missing key %q", k)
		}
	}
	if m["id"] == "" || !allDigits([]string{m["id"]}) {
		return model.PullRecord{}, errors.Newf("id %q is not numeric", m["id"])
	}
	r := model.PullRecord{
		UID:       orDefault(m["uid"], uid),
		GachaType: m["gacha_type"],
		ItemID:    m["item_id"],
		Count:     orDefault(m["count"], "1"),
		Time:      m["time"],
		Name:      m["name"],
		Lang:      orDefault(m["lang"], "zh-cn"),
		ItemType:  m["item_type"],
		RankType:  m["rank_type"],
		ID:        m["id"],
	}
	if err := r.Validate(); err != nil {
		return model.PullRecord{}, err
	}
	return r, nil
}

// ImportResult 导入结果
type ImportResult struct {
	// UserID 实际写入的用户
	UserID    string
	AccountID string
	Format    string
	// Backup 导入前的备份文件，原本没有记录时为空
	Backup  string
	Message string
	Added   map[model.Category]int
	Logs    model.Logs
}

// ImportFromURL 下载文件后导入
func (s *GachaLogService) ImportFromURL(ctx context.Context, operatorID, fileURL string) (*ImportResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ImportFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, invalidImport(err, "导入文件链接无效")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to download import file", "error", err)
		return nil, errors.WithHint(errors.Wrap(err, "download import file"), "可能由于网络问题未能获取文件")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithHintf(errors.Newf("download import file: status %d", resp.StatusCode), "可能由于网络问题未能获取文件")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxImportBytes+1))
	if err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "read import file"), "可能由于网络问题未能获取文件")
	}
	if int64(len(data)) > s.cfg.MaxImportBytes {
		return nil, invalidImport(errors.Newf("file larger than %d bytes", s.cfg.MaxImportBytes), "导入文件过大")
	}
	return s.Import(ctx, operatorID, data)
}

// Import 导入内部格式（覆盖恢复）或 UIGF 格式（按批次合并）的记录。
// 校验全部通过后才会备份并写入文件。
func (s *GachaLogService) Import(ctx context.Context, operatorID string, data []byte) (*ImportResult, error) {
	// 1. 解析文件
	file, err := ParseImport(data)
	if err != nil {
		s.logger.WarnContext(ctx, "import file rejected", "operator", operatorID, "error", err)
		return nil, err
	}

	// 2. 决定导入目标
	userID, cfg, err := s.importTarget(ctx, operatorID, file.AccountID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()
	logsLock := &heldLock{locker: s.locker}
	defer logsLock.release()
	if err := logsLock.switchTo(ctx, s.logsKey(cfg.Logs, file.AccountID)); err != nil {
		return nil, err
	}

	// 3. 生成新记录
	result := &ImportResult{UserID: userID, AccountID: file.AccountID, Format: file.Format}
	var logs model.Logs
	if file.Format == FormatInner {
		logs = file.Inner
		result.Message = fmt.Sprintf("成功恢复 QQ%s 的抽卡记录！", userID)
	} else {
		local, err := s.loadLogs(ctx, cfg)
		if err != nil {
			return nil, err
		}
		var added map[model.Category]int
		logs, added, err = mergeBatches(local, file.Records)
		if err != nil {
			return nil, err
		}
		result.Added = added
		result.Message = fmt.Sprintf("成功合并 QQ%s 的抽卡记录！\n%s", userID, importAddedMessage(added))
	}

	// 4. 备份已有记录
	if cfg.Logs != "" && s.logs.Exists(cfg.Logs) {
		bak, err := s.logs.Backup(ctx, cfg.Logs)
		if err != nil {
			return nil, err
		}
		result.Backup = bak
	}

	// 5. 写入记录与配置
	if cfg.Logs == "" {
		cfg.Logs = s.logs.PathFor(file.AccountID)
	}
	if _, err := s.logs.Save(ctx, cfg.Logs, logs); err != nil {
		return nil, err
	}
	cfg.Time = file.Timestamp
	if _, err := s.configs.Save(ctx, userID, cfg, dao.SaveOptions{}); err != nil {
		return nil, err
	}

	s.metrics.RecordAdded(result.Added)
	s.logger.InfoContext(ctx, "gacha logs imported",
		"operator", operatorID, "user_id", userID, "uid", file.AccountID, "format", file.Format, "backup", result.Backup)
	result.Logs = logs
	return result, nil
}

// importTarget 普通用户只能导入自己的配置；超级用户可以更新绑定了该 UID 的他人配置
func (s *GachaLogService) importTarget(ctx context.Context, operatorID, uid string) (string, *model.UserConfig, error) {
	own, err := s.loadConfig(ctx, operatorID)
	if err != nil {
		return "", nil, err
	}
	bind := func(cfg *model.UserConfig) *model.UserConfig {
		cfg = cfg.Clone()
		cfg.GameUID = uid
		if cfg.Region == "" {
			cfg.Region = model.DefaultRegion(uid)
		}
		if cfg.GameBiz == "" {
			cfg.GameBiz = model.DefaultGameBiz
		}
		return cfg
	}
	if own != nil && own.GameUID == uid {
		return operatorID, bind(own), nil
	}

	// 超级用户优先更新已绑定该 UID 的配置
	superuser := s.IsSuperuser(operatorID)
	if superuser {
		other, otherCfg, err := s.configs.FindByUID(ctx, uid)
		switch {
		case err == nil:
			return other, otherCfg, nil
		case !errors.Is(err, dao.ErrNotFound):
			return "", nil, err
		}
	}

	switch {
	case own == nil:
		return operatorID, model.NewUserConfig(uid), nil
	case own.GameUID == "":
		return operatorID, bind(own), nil
	case superuser:
		return "", nil, errors.WithHintf(errors.Wrapf(ErrImportRejected, "user %s owns uid %s", operatorID, own.GameUID),
			"QQ%s 已经有 UID%s 的抽卡记录，如需导入 UID%s 的抽卡记录，请 UID%s 的用户自己导入，或先使用一次抽卡记录查询后再导入",
			operatorID, own.GameUID, uid, uid)
	default:
		return "", nil, errors.WithHintf(errors.Wrapf(ErrImportRejected, "user %s owns uid %s", operatorID, own.GameUID),
			"QQ%s 已经有 UID%s 的抽卡记录，不能导入属于 UID%s 的抽卡记录", operatorID, own.GameUID, uid)
	}
}

// mergeBatches 按时刻分批合并 UIGF 记录。
// 每个时刻只能是单抽或十连；本地已有的时刻整批跳过；补全的 id 清空。
func mergeBatches(local model.Logs, records []model.PullRecord) (model.Logs, map[model.Category]int, error) {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b model.PullRecord) int {
		return model.CompareRecency(b, a)
	})

	batches := make(map[string][]model.PullRecord)
	var order []string
	for _, r := range sorted {
		if strings.HasPrefix(r.ID, syntheticIDPrefix) {
			r.ID = ""
		}
		if _, ok := batches[r.Time]; !ok {
			order = append(order, r.Time)
		}
		batches[r.Time] = append(batches[r.Time], r)
	}
	for _, t := range order {
		if n := len(batches[t]); n != 1 && n != 10 {
			return nil, nil, errors.WithHint(errors.Wrapf(ErrCorruptBatch, "%d records at %s", n, t), hintBadBatch)
		}
	}

	localTimes := make(map[string]struct{})
	for _, c := range model.Categories() {
		for _, r := range local.Get(c).Records() {
			localTimes[r.Time] = struct{}{}
		}
	}

	fresh := make(map[model.Category][]model.PullRecord)
	added := make(map[model.Category]int)
	for _, t := range order {
		if _, ok := localTimes[t]; ok {
			continue
		}
		for _, r := range batches[t] {
			c, err := r.Category()
			if err != nil {
				return nil, nil, invalidImport(err, hintBadFormat)
			}
			fresh[c] = append(fresh[c], r)
			added[c]++
		}
	}

	out := local.Clone()
	for c, recs := range fresh {
		merged, err := out.Get(c).Insert(model.SortCategoryLog(recs).Records()...)
		if err != nil {
			return nil, nil, err
		}
		out[c] = merged
	}
	return out, added, nil
}

func importAddedMessage(added map[model.Category]int) string {
	var lines []string
	for _, c := range model.Categories() {
		if n := added[c]; n > 0 {
			lines = append(lines, addedLine(c, n))
		}
	}
	if len(lines) == 0 {
		return "不过似乎没有新增记录.."
	}
	return strings.Join(lines, "\n")
}

// ImportHint 导入错误的用户提示
func ImportHint(err error) string {
	return errors.FlattenHints(err)
}

func invalidImport(cause error, hint string) error {
	return errors.WithHint(fmt.Errorf("%w: %w", ErrInvalidImport, cause), hint)
}

func keysOf(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func allDigits(ss []string) bool {
	for _, s := range ss {
		if s == "" {
			return false
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
