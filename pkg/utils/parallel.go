package utils

import "sync"

// ParallelMap 并发地将 fn 应用到 inputs 的每个元素上，结果顺序与输入一致。
// workers 限制并发 goroutine 数量；单元素输入直接同步处理，避免调度开销。
func ParallelMap[T any, R any](inputs []T, workers int, fn func(T) R) []R {
	n := len(inputs)
	if n == 0 {
		return nil
	}
	if n == 1 || workers <= 1 {
		results := make([]R, n)
		for i, in := range inputs {
			results[i] = fn(in)
		}
		return results
	}
	if workers > n {
		workers = n
	}

	results := make([]R, n)
	var wg sync.WaitGroup
	idxCh := make(chan int, n)
	for i := 0; i < n; i++ {
		idxCh <- i
	}
	close(idxCh)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range idxCh {
				results[i] = fn(inputs[i])
			}
		}()
	}
	wg.Wait()
	return results
}
