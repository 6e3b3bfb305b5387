package main

import (
	"flag"
	"fmt"
	"os"

	"robosoccer/internal/replay"
	"robosoccer/internal/sim"
)

// replaydump prints a match replay: by default a per-goal timeline plus a
// final summary, with -all every recorded event.
func main() {
	var all bool
	flag.BoolVar(&all, "all", false, "print every event instead of goals only")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replaydump [-all] match.jsonl.zst")
		os.Exit(2)
	}

	r, err := replay.NewReader(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer r.Close()

	var frames int
	var last sim.Snapshot
	for {
		fr, ok, err := r.Next()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !ok {
			break
		}
		frames++
		last = fr.Snapshot
		for _, ev := range fr.Events {
			if !all && ev.Type != "goal" {
				continue
			}
			fmt.Printf("%8.2fs  %-16s %v\n", ev.T, ev.Type, ev.Payload)
		}
	}
	fmt.Printf("frames=%d  final: Blue %d - %d Red at t=%.1fs\n",
		frames, last.BlueScore, last.RedScore, last.Time)
}
