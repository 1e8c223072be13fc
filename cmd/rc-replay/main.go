// Command rc-replay feeds a recorded raw DUML byte capture back through
// the streaming parser and prints one JSON line per decoded controller
// snapshot, followed by a summary count on stderr. It exists for
// reproducing and debugging captures offline, without a live serial link.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/snglth/rc-monitor/internal/duml"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <recording.bin>|-\n", os.Args[0])
		os.Exit(1)
	}

	var in io.Reader
	if os.Args[1] == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "open: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)

	count := 0
	parser := duml.NewParser(func(s *duml.Snapshot) {
		count++
		_ = enc.Encode(s)
	})

	buf := make([]byte, 4096)
	r := bufio.NewReader(in)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintf(os.Stderr, "read: %v\n", err)
				os.Exit(1)
			}
			break
		}
	}

	out.Flush()
	fmt.Fprintf(os.Stderr, "\ndecoded %d RC push frames from %s\n", count, os.Args[1])
}
