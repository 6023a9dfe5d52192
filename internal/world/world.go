// Package world loads the landmark map and sensor log files the filter runs
// against. The filter core itself never touches the file system; it consumes
// the already-parsed structures produced here.
package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mcl-sim/internal/filter"
)

// ParseMap reads a landmark map: one `id x y` line per landmark, with
// positive integer ids. Blank lines and lines starting with '#' are skipped.
func ParseMap(r io.Reader) (filter.LandmarkMap, error) {
	landmarks := make(filter.LandmarkMap)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("map line %d: expected `id x y`, got %q", lineNo, line)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("map line %d: invalid landmark id %q", lineNo, fields[0])
		}
		if _, exists := landmarks[id]; exists {
			return nil, fmt.Errorf("map line %d: duplicate landmark id %d", lineNo, id)
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("map line %d: invalid x %q", lineNo, fields[1])
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("map line %d: invalid y %q", lineNo, fields[2])
		}
		landmarks[id] = filter.Landmark{X: x, Y: y}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	if len(landmarks) == 0 {
		return nil, fmt.Errorf("map contains no landmarks")
	}
	return landmarks, nil
}

// ReadMap loads a landmark map from a file.
func ReadMap(path string) (filter.LandmarkMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening map: %w", err)
	}
	defer f.Close()

	landmarks, err := ParseMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return landmarks, nil
}
