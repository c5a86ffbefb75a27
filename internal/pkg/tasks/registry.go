// Package tasks 按 key 管理可取消的进行中任务，同一 key 的新任务会取消旧任务
package tasks

import (
	"context"
	"sync"
)

type entry struct {
	id     uint64
	cancel context.CancelFunc
}

type Registry struct {
	mu      sync.Mutex
	seq     uint64
	running map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{running: make(map[string]entry)}
}

// Start 取消 key 上进行中的任务并登记新任务，返回任务上下文和结束回调
func (r *Registry) Start(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	if prev, ok := r.running[key]; ok {
		prev.cancel()
	}
	r.seq++
	id := r.seq
	r.running[key] = entry{id: id, cancel: cancel}
	r.mu.Unlock()

	done := func() {
		r.mu.Lock()
		if cur, ok := r.running[key]; ok && cur.id == id {
			delete(r.running, key)
		}
		r.mu.Unlock()
		cancel()
	}
	return ctx, done
}

// Running 当前登记中的任务数
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}
