package utils

import (
	"sync"

	"go.uber.org/zap"
)

// WorkerPool 固定宽度的执行器，请求处理排进队列由 worker 消化
// 队列满时提交方阻塞等待，借此给并发请求数封顶
type WorkerPool struct {
	jobs    chan func()
	workers int
	wg      sync.WaitGroup
	quit    chan struct{}
	log     *zap.Logger
}

func NewWorkerPool(workers, queueSize int, log *zap.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		jobs:    make(chan func(), queueSize),
		workers: workers,
		quit:    make(chan struct{}),
		log:     log,
	}
}

// Start 启动全部 worker
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			p.invoke(id, job)
		case <-p.quit:
			return
		}
	}
}

// invoke 单个任务 panic 不能拖垮 worker
func (p *WorkerPool) invoke(id int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker 任务 panic",
				zap.Int("worker", id),
				zap.Any("panic", r),
			)
		}
	}()
	job()
}

// Submit 提交任务，队列满时阻塞直到有空位
func (p *WorkerPool) Submit(job func()) {
	p.jobs <- job
}

// Stop 通知所有 worker 退出并等待收尾
func (p *WorkerPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}
