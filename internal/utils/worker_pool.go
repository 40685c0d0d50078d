package utils

import "sync"

// WorkerPool runs submitted tasks on a fixed set of goroutines. The health
// monitor fans collector reads out through one so a stuck probe occupies a
// worker instead of growing goroutines without bound.
type WorkerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewWorkerPool starts size workers ready to run tasks.
func NewWorkerPool(size int) *WorkerPool {
	pool := &WorkerPool{
		tasks: make(chan func(), size),
	}

	pool.wg.Add(size)
	for i := 0; i < size; i++ {
		go pool.run()
	}

	return pool
}

func (wp *WorkerPool) run() {
	defer wp.wg.Done()
	for task := range wp.tasks {
		task()
	}
}

// Submit queues a task, blocking while the queue is full.
func (wp *WorkerPool) Submit(task func()) {
	wp.tasks <- task
}

// Shutdown lets queued tasks finish and releases the workers. Submit must
// not be called afterwards.
func (wp *WorkerPool) Shutdown() {
	close(wp.tasks)
	wp.wg.Wait()
}
