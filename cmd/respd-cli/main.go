package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pior/respd"
)

const usage = `Commands:
  get <key>
  set <key> <value>
  del <key> [key ...]
  stats
  quit`

func main() {
	var (
		server  = flag.String("server", "localhost:6380", "Server address")
		timeout = flag.Duration("timeout", 5*time.Second, "Per-command timeout")
	)
	flag.Parse()

	client, err := respd.NewClient(respd.NewStaticServers(*server), respd.Config{
		MaxSize: 2,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("connected to %s\n%s\n", *server, usage)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		runCommand(ctx, client, fields)
		cancel()
	}
}

func runCommand(ctx context.Context, client *respd.Client, fields []string) {
	switch fields[0] {
	case "get":
		if len(fields) != 2 {
			fmt.Println("usage: get <key>")
			return
		}
		item, err := client.Get(ctx, fields[1])
		if err != nil {
			printError(err)
			return
		}
		if !item.Found {
			fmt.Println("(nil)")
			return
		}
		fmt.Printf("%q\n", item.Value)

	case "set":
		if len(fields) < 3 {
			fmt.Println("usage: set <key> <value>")
			return
		}
		value := strings.Join(fields[2:], " ")
		if err := client.Set(ctx, fields[1], []byte(value)); err != nil {
			printError(err)
			return
		}
		fmt.Println("Ok")

	case "del":
		if len(fields) < 2 {
			fmt.Println("usage: del <key> [key ...]")
			return
		}
		removed, err := client.Del(ctx, fields[1:]...)
		if err != nil {
			printError(err)
			return
		}
		fmt.Printf("(integer) %d\n", removed)

	case "stats":
		stats := client.Stats()
		fmt.Printf("gets=%d hits=%d sets=%d dels=%d errors=%d\n",
			stats.Gets, stats.GetHits, stats.Sets, stats.Dels, stats.Errors)

	default:
		fmt.Println(usage)
	}
}

func printError(err error) {
	if errors.Is(err, respd.ErrServerReply) {
		fmt.Printf("(error) %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
