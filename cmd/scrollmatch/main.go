package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/scrollkit/scrollmatch/internal/store"
	"github.com/scrollkit/scrollmatch/pkg/ruleset"
	"github.com/scrollkit/scrollmatch/seqmatch"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type scanContext struct {
	matches int
}

func main() {
	windowSize, err := strconv.Atoi(getenv("SCROLLMATCH_WINDOW", "256"))
	if err != nil || windowSize <= 0 {
		log.Fatalf("bad SCROLLMATCH_WINDOW: %v", os.Getenv("SCROLLMATCH_WINDOW"))
	}

	// Optional rules path
	rulesPath := os.Getenv("SCROLLMATCH_RULES_PATH")
	if rulesPath == "" {
		if st, err := os.Stat("./rules"); err == nil && st.IsDir() {
			rulesPath = "./rules"
		}
	}

	var rules []ruleset.Rule
	if rulesPath != "" {
		rules, err = ruleset.LoadDirRecursive(rulesPath)
		if err != nil {
			log.Fatalf("load rules from %s: %v", rulesPath, err)
		}
		log.Printf("loaded rules from %s: count=%d", rulesPath, len(rules))
	}

	// A DSN switches the rule source to the shared Postgres table.
	if dsn := os.Getenv("SCROLLMATCH_DB_DSN"); dsn != "" {
		st, err := store.Open(dsn)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer st.Close()
		ctx := context.Background()
		if err := st.InitSchema(ctx); err != nil {
			log.Fatalf("init schema: %v", err)
		}
		dbRules, err := st.CompileAll(ctx)
		if err != nil {
			log.Fatalf("load stored rules: %v", err)
		}
		log.Printf("loaded stored rules: count=%d", len(dbRules))
		rules = append(rules, dbRules...)
	}

	if len(rules) == 0 {
		log.Fatal("no rules: set SCROLLMATCH_RULES_PATH or SCROLLMATCH_DB_DSN")
	}

	m := seqmatch.New[string, scanContext](windowSize)
	m.SetContext(scanContext{})
	m.RegisterExtractor(1, func(st *seqmatch.MatchState[string], c *scanContext) (seqmatch.Action, error) {
		c.matches++
		log.Printf("match rule=%s position=%d items=%d", st.PatternName, st.Position, len(st.MatchedItems))
		return seqmatch.Continue(), nil
	})
	patterns := make([]seqmatch.Pattern[string], 0, len(rules))
	for i := range rules {
		if rules[i].Pattern.Settings.Extractor == seqmatch.NoExtractor {
			rules[i].Pattern.Settings.Extractor = 1
		}
		patterns = append(patterns, rules[i].Pattern)
	}
	if err := ruleset.Install(m, rules); err != nil {
		log.Fatalf("install rules: %v", err)
	}

	pf := seqmatch.PrefilterFromPatterns(patterns)
	log.Printf("prefilter: needles=%d %s", len(pf.Needles()), pf.Stats().PerformanceSummary())

	in := os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	windows, skipped := 0, 0
	window := make([]string, 0, windowSize)
	flush := func() {
		if len(window) == 0 {
			return
		}
		windows++
		if !pf.MightMatch(window) {
			skipped++
			window = window[:0]
			return
		}
		if err := m.Run(window); err != nil {
			log.Fatalf("run window %d: %v", windows, err)
		}
		window = window[:0]
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		window = append(window, sc.Text())
		if len(window) >= windowSize {
			flush()
		}
	}
	if err := sc.Err(); err != nil {
		log.Fatalf("read input: %v", err)
	}
	flush()

	log.Printf("done: windows=%d prefiltered=%d matches=%d items=%d",
		windows, skipped, m.Context().matches, m.TotalProcessed())
}
