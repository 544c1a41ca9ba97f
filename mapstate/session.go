package mapstate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// State 会话缓存中持久化的内容
type State struct {
	Points      []string `yaml:"points,omitempty"`
	Lines       []string `yaml:"lines,omitempty"`
	SavedPoints []string `yaml:"saved_points,omitempty"`
	SavedLines  []string `yaml:"saved_lines,omitempty"`
}

// SessionRepository 会话缓存的读写接口
type SessionRepository interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Clear(ctx context.Context) error
}

// MemorySession 进程内的会话缓存
type MemorySession struct {
	mu    sync.Mutex
	state State
}

// NewMemorySession 创建空的内存会话
func NewMemorySession() *MemorySession { return &MemorySession{} }

func (m *MemorySession) Load(context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone(), nil
}

func (m *MemorySession) Save(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.clone()
	return nil
}

func (m *MemorySession) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{}
	return nil
}

// FileSession 把会话保存为 YAML 文件
type FileSession struct {
	Path string
}

// NewFileSession 创建基于文件的会话
func NewFileSession(path string) *FileSession { return &FileSession{Path: path} }

// Load 文件不存在或损坏时返回空状态
func (f *FileSession) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read session: %w", err)
	}
	var s State
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return State{}, nil
	}
	return s, nil
}

// Save 先写临时文件再 rename
func (f *FileSession) Save(ctx context.Context, s State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FileSession) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s State) clone() State {
	return State{
		Points:      slices.Clone(s.Points),
		Lines:       slices.Clone(s.Lines),
		SavedPoints: slices.Clone(s.SavedPoints),
		SavedLines:  slices.Clone(s.SavedLines),
	}
}
