package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/gachalogs/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	startErr error
	stopErr  error
}

func (s *fakeServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return s.startErr
}

func (s *fakeServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return s.stopErr
}

func (s *fakeServer) state() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.stopped
}

// TestBaseAppRunShutdown 测试启动后通过 Shutdown 退出
func TestBaseAppRunShutdown(t *testing.T) {
	srv := &fakeServer{}
	var order []string
	a := NewApplication(Components{
		Servers: []Server{srv},
		Closers: []Closer{
			CloserFunc(func() error { order = append(order, "first"); return nil }),
			CloserFunc(func() error { order = append(order, "second"); return nil }),
		},
	}, WithLogger(logger.NewNoop()), WithStopTimeout(time.Second))

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	require.Eventually(t, func() bool {
		started, _ := srv.state()
		return started
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, a.Shutdown())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	_, stopped := srv.state()
	assert.True(t, stopped)
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Error(t, a.Context().Err())
}

// TestBaseAppRunTwice 测试重复启动
func TestBaseAppRunTwice(t *testing.T) {
	a := NewBaseApp(WithLogger(logger.NewNoop()))
	a.started.Store(true)
	assert.ErrorIs(t, a.Run(), ErrAppAlreadyRunning)
}

// TestBaseAppStartFailure 测试服务启动失败
func TestBaseAppStartFailure(t *testing.T) {
	boom := errors.New("boom")
	srv := &fakeServer{startErr: boom}
	a := NewApplication(Components{Servers: []Server{srv}}, WithLogger(logger.NewNoop()))

	err := a.Run()
	assert.ErrorIs(t, err, boom)
	_, stopped := srv.state()
	assert.True(t, stopped)
}

// TestBaseAppLogger 测试具名日志
func TestBaseAppLogger(t *testing.T) {
	named := logger.NewNoop()
	a := NewBaseApp(
		WithLogger(logger.NewNoop()),
		WithNamedLoggers(map[string]logger.Logger{"access": named}),
	)
	assert.Same(t, named, a.Logger("access"))
	assert.NotNil(t, a.Logger("other"))
}

type loadTarget struct {
	Gachalog struct {
		DataDir string        `mapstructure:"data_dir"`
		Expire  time.Duration `mapstructure:"expire"`
	} `mapstructure:"gachalog"`
	Log struct {
		OutputPath string `mapstructure:"output_path"`
	} `mapstructure:"log"`
}

// TestLoadConfig 测试命令行参数覆盖配置文件
func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gachalog:\n  data_dir: /from/file\n"), 0o644))

	var cfg loadTarget
	res, err := LoadConfig(&cfg, []string{"-c", path, "--data-dir", "/from/flag"}, map[string]any{
		"gachalog.expire": "1h",
	})
	require.NoError(t, err)

	assert.Equal(t, path, res.ConfigPath)
	assert.Equal(t, "/from/flag", cfg.Gachalog.DataDir)
	assert.Equal(t, time.Hour, cfg.Gachalog.Expire)
	assert.NotEmpty(t, cfg.Log.OutputPath)
}

// TestLoadConfigMissing 测试配置文件不存在
func TestLoadConfigMissing(t *testing.T) {
	var cfg loadTarget
	_, err := LoadConfig(&cfg, []string{"-c", filepath.Join(t.TempDir(), "none.yaml")}, nil)
	assert.Error(t, err)
}
