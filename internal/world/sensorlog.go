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

// ParseSensorLog reads a sensor measurement log. Each `ODOMETRY rot1 trans
// rot2` line opens a new timestep record; the `SENSOR id range bearing`
// lines that follow attach landmark observations to it. Records come back in
// file order, one per timestep.
func ParseSensorLog(r io.Reader) ([]filter.Record, error) {
	var records []filter.Record
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "ODOMETRY":
			if len(fields) != 4 {
				return nil, fmt.Errorf("log line %d: expected `ODOMETRY rot1 trans rot2`, got %q", lineNo, line)
			}
			values, err := parseFloats(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("log line %d: %w", lineNo, err)
			}
			records = append(records, filter.Record{
				Odometry: filter.Odometry{Rot1: values[0], Trans: values[1], Rot2: values[2]},
			})
		case "SENSOR":
			if len(records) == 0 {
				return nil, fmt.Errorf("log line %d: SENSOR before any ODOMETRY", lineNo)
			}
			if len(fields) != 4 {
				return nil, fmt.Errorf("log line %d: expected `SENSOR id range bearing`, got %q", lineNo, line)
			}
			id, err := strconv.Atoi(fields[1])
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("log line %d: invalid landmark id %q", lineNo, fields[1])
			}
			values, err := parseFloats(fields[2:])
			if err != nil {
				return nil, fmt.Errorf("log line %d: %w", lineNo, err)
			}
			last := &records[len(records)-1]
			last.Observations = append(last.Observations, filter.Observation{
				LandmarkID: id,
				Range:      values[0],
				Bearing:    values[1],
			})
		default:
			return nil, fmt.Errorf("log line %d: unknown record type %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading sensor log: %w", err)
	}
	return records, nil
}

// ReadSensorLog loads a sensor measurement log from a file.
func ReadSensorLog(path string) ([]filter.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sensor log: %w", err)
	}
	defer f.Close()

	records, err := ParseSensorLog(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", field)
		}
		values[i] = v
	}
	return values, nil
}
