// Package schedule builds stimulus schedules for headless runs.
package schedule

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Event is one scheduled stimulus: at Tick, apply Magnitude.
type Event struct {
	Tick      int
	Magnitude float64
}

// Load reads a schedule file with one "tick magnitude" pair per line.
// Blank lines and lines starting with # are skipped. Events are returned
// sorted by tick.
func Load(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only schedule.
			_ = cerr
		}
	}()

	var events []Event
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"tick magnitude\", got %q", lineNo, line)
		}
		tick, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid tick %q", lineNo, fields[0])
		}
		if tick < 0 {
			return nil, fmt.Errorf("line %d: tick must be >= 0", lineNo)
		}
		magnitude, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid magnitude %q", lineNo, fields[1])
		}
		events = append(events, Event{Tick: tick, Magnitude: magnitude})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("schedule is empty")
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Tick < events[j].Tick })
	return events, nil
}

// Regular produces one stimulus every `every` ticks up to `ticks`.
func Regular(every, ticks int, magnitude float64) []Event {
	if every <= 0 || ticks <= 0 {
		return nil
	}
	events := make([]Event, 0, ticks/every)
	for t := every; t <= ticks; t += every {
		events = append(events, Event{Tick: t, Magnitude: magnitude})
	}
	return events
}

// Poisson produces stimuli with the given per-tick probability, using a
// seeded source so runs are reproducible.
func Poisson(rate float64, ticks int, magnitude float64, seed int64) []Event {
	if rate <= 0 || ticks <= 0 {
		return nil
	}
	rnd := rand.New(rand.NewSource(seed))
	var events []Event
	for t := 1; t <= ticks; t++ {
		if rnd.Float64() < rate {
			events = append(events, Event{Tick: t, Magnitude: magnitude})
		}
	}
	return events
}
