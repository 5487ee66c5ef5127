package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"shopscrape/internal/progress"
	"shopscrape/internal/scraper"
)

var errRunOver = errors.New("run over")

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "progress feed address")
	once := flag.Bool("once", false, "exit after the first run finishes or fails")
	flag.Parse()

	for {
		err := watch(*addr, *once)
		if errors.Is(err, errRunOver) {
			return
		}
		if err != nil {
			log.Printf("[progress-watch] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // reconnect
	}
}

func watch(addr string, once bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[progress-watch] connected to %s", addr)

	over := false
	err = progress.Follow(conn, func(ev scraper.Event) bool {
		fmt.Fprintf(os.Stdout, "%s  %s\n", ev.At.Local().Format("15:04:05"), progress.Describe(ev))
		if once && progress.Terminal(ev) {
			over = true
			return false
		}
		return true
	})
	if over {
		return errRunOver
	}
	if err != nil {
		return err
	}
	return os.ErrClosed
}
