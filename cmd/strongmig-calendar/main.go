package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/meltforce/strongmig/internal/calendar"
	"github.com/meltforce/strongmig/internal/strong"
)

func main() {
	start := flag.String("start", "", "show workouts from this date (YYYY-MM-DD)")
	end := flag.String("end", "", "show workouts until this date (YYYY-MM-DD)")
	summary := flag.Bool("summary", false, "show summary statistics")
	gaps := flag.Int("gaps", 0, "find gaps of N or more days without workouts")
	delimiter := flag.String("delimiter", ";", "input delimiter")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: strongmig-calendar [flags] [historical_workouts.csv]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	path := "historical_workouts.csv"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	from, err := parseDate(*start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
		os.Exit(1)
	}
	until, err := parseDate(*end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -end: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", path, err)
		os.Exit(1)
	}
	defer f.Close()

	comma := ';'
	if *delimiter != "" {
		comma = []rune(*delimiter)[0]
	}
	records, err := strong.Read(f, comma)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", path, err)
		os.Exit(1)
	}

	cal := calendar.Build(records)
	if *summary {
		cal.Summary().RenderSummary(os.Stdout)
	}
	if *gaps > 0 {
		printGaps(cal.Gaps(*gaps), *gaps)
	}
	if !*summary && *gaps == 0 {
		cal.Between(from, until).Render(os.Stdout)
	}
}

func printGaps(gaps []calendar.Gap, minDays int) {
	if len(gaps) == 0 {
		fmt.Printf("\nNo gaps of %d+ days found.\n\n", minDays)
		return
	}
	fmt.Printf("\nGAPS (%d+ days without workouts)\n", minDays)
	for _, g := range gaps {
		fmt.Printf("%s to %s: %d day gap\n", g.After.Format("2006-01-02"), g.Before.Format("2006-01-02"), g.Days)
	}
	fmt.Println()
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
