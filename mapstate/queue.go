package mapstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueClosed 队列关闭后提交任务返回该错误
var ErrQueueClosed = errors.New("queue closed")

type task struct {
	name string
	run  func(ctx context.Context) error
	done chan struct{} // 仅 barrier 使用
}

// Queue 远程调用的先进先出队列, 单个 worker 顺序执行
// 失败只记录日志, 不重试
type Queue struct {
	tasks   chan task
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	onResult func(name string, err error)
}

// QueueOption NewQueue 的可选配置
type QueueOption func(*Queue)

// WithResultHook 每个任务执行完后在 worker 中回调 fn
func WithResultHook(fn func(name string, err error)) QueueOption {
	return func(q *Queue) { q.onResult = fn }
}

// NewQueue 启动 worker; size 为缓冲大小, timeout 为单次调用超时 (<=0 表示不限)
// 选项在 worker 启动前应用, 之后不可修改
func NewQueue(size int, timeout time.Duration, logger *slog.Logger, opts ...QueueOption) *Queue {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		tasks:   make(chan task, size),
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.wg.Add(1)
	go q.loop()
	return q
}

// Submit 入队一个远程调用, 队列满时阻塞
func (q *Queue) Submit(name string, run func(ctx context.Context) error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("dropped call on closed queue", "call", name)
		return ErrQueueClosed
	}
	q.tasks <- task{name: name, run: run}
	return nil
}

// Flush 等待此前提交的所有任务执行完毕
func (q *Queue) Flush(ctx context.Context) error {
	done := make(chan struct{})
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	select {
	case q.tasks <- task{name: "flush", done: done}:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 执行完剩余任务后停止 worker
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) loop() {
	defer q.wg.Done()
	for t := range q.tasks {
		if t.done != nil {
			close(t.done)
			continue
		}
		err := q.exec(t)
		if err != nil {
			q.logger.Error("remote call failed", "call", t.name, "err", err)
		} else {
			q.logger.Debug("remote call done", "call", t.name)
		}
		if q.onResult != nil {
			q.onResult(t.name, err)
		}
	}
}

func (q *Queue) exec(t task) error {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	return t.run(ctx)
}
