package mine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Coordinator drives a pool of mining workers. Workers own their
// evaluator state and talk to the coordinator only at batch
// granularity: a worker finishes a batch, reports its stats and asks
// whether to continue. Stopping is therefore cooperative; a running
// batch always completes.
type Coordinator struct {
	NumWorkers int
	BatchSize  int

	// NewMiner builds one worker's miner; called once per worker with
	// a distinct seed.
	NewMiner func(workerID int, seed uint64) (*Miner, error)

	iterations atomic.Int64
	candidates atomic.Int64
	batches    atomic.Int64
}

// Stats returns the totals across all workers so far.
func (c *Coordinator) Stats() (iterations, candidates, batches int64) {
	return c.iterations.Load(), c.candidates.Load(), c.batches.Load()
}

// Run mines until stop is closed (or forever when stop is nil).
// It returns once every worker has finished its current batch.
func (c *Coordinator) Run(stop <-chan struct{}) error {
	numWorkers := c.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	batchSize := c.BatchSize
	if batchSize < 1 {
		batchSize = 1000
	}

	// Progress reporter goroutine
	done := make(chan struct{})
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		var lastIterations int64
		lastTime := startTime
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				now := time.Now()
				iterations := c.iterations.Load()
				candidates := c.candidates.Load()
				dt := now.Sub(lastTime).Seconds()
				rate := float64(iterations-lastIterations) / dt
				lastIterations = iterations
				lastTime = now
				glog.Infof("[%s] %d iterations | %d candidates | %.0f iter/s",
					time.Since(startTime).Round(time.Second), iterations, candidates, rate)
			}
		}
	}()

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once
	baseSeed := uint64(time.Now().UnixNano())
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			miner, err := c.NewMiner(workerID, baseSeed+uint64(workerID)*0x9E3779B97F4A7C15)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				glog.Errorf("worker %d failed to start: %v", workerID, err)
				return
			}
			for {
				select {
				case <-stop:
					return
				default:
				}
				result := miner.ExecuteBatch(batchSize)
				c.iterations.Add(int64(result.Iterations))
				c.candidates.Add(int64(result.Candidates))
				c.batches.Add(1)
			}
		}(i)
	}
	wg.Wait()
	close(done)

	iterations, candidates, batches := c.Stats()
	glog.Infof("mining stopped after %s: %d batches, %d iterations, %d candidates",
		time.Since(startTime).Round(time.Second), batches, iterations, candidates)
	return firstErr
}
