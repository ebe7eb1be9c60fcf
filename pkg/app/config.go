package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lk2023060901/gachalogs/pkg/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 GACHALOGS_GACHALOG_DATA_DIR -> gachalog.data_dir
const EnvPrefix = "GACHALOGS"

// LoadResult 最终生效的路径
type LoadResult struct {
	ConfigPath string
	LogPath    string
	Manager    config.Manager
}

// LoadConfig 加载配置，优先级：命令行显式参数 > 环境变量 > 配置文件 > 默认值
func LoadConfig(target any, args []string, defaults map[string]any) (*LoadResult, error) {
	execDir, err := GetExecDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable directory: %w", err)
	}

	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", filepath.Join(execDir, "config.yaml"), "path to config file")
	logPath := fs.String("log.path", filepath.Join(execDir, "logs", "gachalogs.log"), "output path for logs")
	dataDir := fs.String("data-dir", "", "directory holding config.json and gachalogs-<uid>.json")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := *configPath
	if !fs.Changed("config") {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			path = env
		}
	}

	v := viper.New()
	v.SetDefault("log.output_path", *logPath)
	if fs.Changed("log.path") {
		v.Set("log.output_path", *logPath)
		v.Set("log.enable_file", true)
	}
	if fs.Changed("data-dir") {
		v.Set("gachalog.data_dir", *dataDir)
	}

	mgr := config.NewManager(
		config.WithViper(v),
		config.WithEnvPrefix(EnvPrefix),
		config.WithDefaults(defaults),
	)
	if err := mgr.LoadFile(path); err != nil {
		return nil, err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	result := &LoadResult{
		ConfigPath: path,
		LogPath:    mgr.GetString("log.output_path"),
		Manager:    mgr,
	}
	if v.GetBool("log.enable_file") {
		if err := os.MkdirAll(filepath.Dir(result.LogPath), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	return result, nil
}

// GetExecDir 可执行文件所在目录（解析符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}
