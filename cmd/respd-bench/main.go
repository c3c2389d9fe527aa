package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/respd"
)

type result struct {
	operation  string
	duration   time.Duration
	totalOps   int64
	failures   int64
	avgLatency time.Duration
	opsPerSec  float64
}

func main() {
	var (
		operation   = flag.String("operation", "all", "Operation to benchmark: get, set, del, or all")
		duration    = flag.Duration("duration", 5*time.Second, "Duration of each benchmark")
		concurrency = flag.Int("concurrency", 8, "Number of concurrent workers")
		servers     = flag.String("servers", "localhost:6380", "Comma-separated list of server addresses")
		valueSize   = flag.Int("value-size", 128, "Size of stored values in bytes")
		poolSize    = flag.Int("pool-size", 16, "Connections per server pool")
	)
	flag.Parse()

	client, err := respd.NewClient(
		respd.NewStaticServers(strings.Split(*servers, ",")...),
		respd.Config{MaxSize: int32(*poolSize)},
	)
	if err != nil {
		log.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	// Probe the server before burning a full benchmark run on a typo.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_, err = client.Get(ctx, "bench:probe")
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot reach %s: %v\n", *servers, err)
		os.Exit(1)
	}

	fmt.Printf("servers=%s concurrency=%d duration=%s value-size=%d\n\n",
		*servers, *concurrency, *duration, *valueSize)

	operations := []string{"set", "get", "del"}
	if *operation != "all" {
		operations = []string{*operation}
	}

	for _, op := range operations {
		res := run(client, op, *duration, *concurrency, *valueSize)
		printResult(res)
	}
}

func run(client *respd.Client, operation string, duration time.Duration, concurrency, valueSize int) result {
	value := make([]byte, valueSize)
	for i := range value {
		value[i] = byte('a' + i%26)
	}

	// Preload keys so get and del operate on existing data.
	if operation != "set" {
		ctx := context.Background()
		for i := range 1000 {
			if err := client.Set(ctx, benchKey(i), value); err != nil {
				log.Fatalf("preload failed: %v", err)
			}
		}
	}

	var ops, failures, latencyNs int64
	deadline := time.Now().Add(duration)

	var wg sync.WaitGroup
	for worker := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			for i := worker; time.Now().Before(deadline); i++ {
				key := benchKey(i % 1000)

				start := time.Now()
				var err error
				switch operation {
				case "get":
					_, err = client.Get(ctx, key)
				case "set":
					err = client.Set(ctx, key, value)
				case "del":
					// Deleting a missing key is still a valid round trip.
					_, err = client.Del(ctx, key)
				}
				atomic.AddInt64(&latencyNs, time.Since(start).Nanoseconds())

				atomic.AddInt64(&ops, 1)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}
	wg.Wait()

	total := atomic.LoadInt64(&ops)
	res := result{
		operation: operation,
		duration:  duration,
		totalOps:  total,
		failures:  atomic.LoadInt64(&failures),
		opsPerSec: float64(total) / duration.Seconds(),
	}
	if total > 0 {
		res.avgLatency = time.Duration(atomic.LoadInt64(&latencyNs) / total)
	}
	return res
}

func benchKey(i int) string {
	return "bench:key:" + strconv.Itoa(i)
}

func printResult(res result) {
	fmt.Printf("--- %s ---\n", res.operation)
	fmt.Printf("  ops:         %d\n", res.totalOps)
	fmt.Printf("  failures:    %d\n", res.failures)
	fmt.Printf("  throughput:  %.0f ops/s\n", res.opsPerSec)
	fmt.Printf("  avg latency: %s\n\n", res.avgLatency)
}
