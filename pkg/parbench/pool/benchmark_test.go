package pool_test

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/jamesainslie/parbench/pkg/parbench/pool"
)

// BenchmarkSubmitJoin measures dispatch overhead with empty units, which
// bounds how fine-grained streaming mode can be.
func BenchmarkSubmitJoin(b *testing.B) {
	for _, workers := range []int{1, 4, runtime.NumCPU()} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			p := pool.New(workers)
			defer p.Close()

			noop := func() error { return nil }
			for b.Loop() {
				for range 1000 {
					if err := p.Submit(noop); err != nil {
						b.Fatalf("submit failed: %v", err)
					}
				}
				if err := p.Join(); err != nil {
					b.Fatalf("join failed: %v", err)
				}
			}
		})
	}
}
