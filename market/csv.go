package market

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Candle files are comma separated:
//
//	date,open,high,low,close,volume
//
// with dates either "2006-01-02" or RFC3339. Header lines and malformed rows
// are skipped; rows are returned in ascending time order regardless of file
// order.

const dateLayout = "2006-01-02"

// ReadCandleCSV loads a candle series from a CSV file.
func ReadCandleCSV(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var candles []Candle
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(strings.ToLower(line), "date,") || strings.HasPrefix(strings.ToLower(line), "time,") {
			continue
		}

		c, err := parseCandleLine(line)
		if err != nil {
			continue
		}
		candles = append(candles, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan candle file: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no valid candles in %s", path)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Before(candles[j].Time)
	})
	return candles, nil
}

func parseCandleLine(line string) (Candle, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 5 {
		return Candle{}, fmt.Errorf("short line: %q", line)
	}

	ts, err := time.Parse(dateLayout, parts[0])
	if err != nil {
		ts, err = time.Parse(time.RFC3339, parts[0])
		if err != nil {
			return Candle{}, fmt.Errorf("bad timestamp %q", parts[0])
		}
	}

	fields := make([]float64, 0, 5)
	for _, p := range parts[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Candle{}, fmt.Errorf("bad field %q", p)
		}
		fields = append(fields, v)
	}

	c := Candle{
		Open:  fields[0],
		High:  fields[1],
		Low:   fields[2],
		Close: fields[3],
		Time:  ts,
	}
	if len(fields) > 4 {
		c.Volume = fields[4]
	}
	return c, nil
}
