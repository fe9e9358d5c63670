package pipeline

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Run processes the input files with cfg.Processes concurrent workers.
// Files are independent: each worker captures its file's failure
// (including recovered panics) in the corresponding FileResult and moves
// on, never aborting siblings. Results are returned in input order.
func Run(paths []string, cfg Config) ([]FileResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	zapChannels, err := LoadZapfile(cfg.Zapfile)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"files":     len(paths),
		"processes": cfg.Processes,
		"zapped":    len(zapChannels),
	}).Info("starting cleanup run")

	results := make([]FileResult, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Processes; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ix := range jobs {
				results[ix] = processOne(paths[ix], zapChannels, cfg)
			}
		}()
	}
	for ix := range paths {
		jobs <- ix
	}
	close(jobs)
	wg.Wait()

	for _, res := range results {
		if res.Err != nil {
			logrus.WithField("file", res.Path).WithError(res.Err).
				Error("cleanup failed")
		}
	}
	return results, nil
}

// processOne isolates a single file's pipeline, converting panics into a
// recorded failure.
func processOne(path string, zapChannels []int, cfg Config) (result FileResult) {
	defer func() {
		if r := recover(); r != nil {
			result = FileResult{
				Path: path,
				Err:  fmt.Errorf("panic during cleanup: %v", r),
			}
		}
	}()
	return CleanupFile(path, zapChannels, cfg)
}
