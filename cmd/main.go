package main

import (
	"context"
	"fmt"
	"time"

	"github.com/baxromumarov/isolate"
)

func fetch(ctx context.Context, addr string) (string, error) {
	if addr == "db-3" {
		return "", fmt.Errorf("%s: connection refused", addr)
	}
	select {
	case <-time.After(1 * time.Second):
		return addr + ": ok", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	addrs := []string{"db-1", "db-2", "db-3"}

	now := time.Now()

	// The first failure kills the sibling workers, so this returns well
	// before the 1s sleeps finish.
	results, err := isolate.Map(ctx, addrs, fetch, isolate.WithLimit(2))
	if err != nil {
		fmt.Println("Final error:", err)
		if info, ok := isolate.WorkerOf(err); ok {
			fmt.Println("Failed worker:", info)
		}
	} else {
		fmt.Println("Results:", results)
	}

	fmt.Println("Elapsed time:", time.Since(now))
}
