package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"quantum-sensing/internal/models"
)

// Header is the first line of every saved series.
const Header = "Time (s), Sensor Reading"

// FileExtension is the conventional extension for saved series.
const FileExtension = ".txt"

// FormatSample renders one data row without the trailing newline.
func FormatSample(s models.Sample) string {
	return fmt.Sprintf("%.2f, %d", s.Elapsed, s.Reading)
}

func WriteSeries(w io.Writer, samples []models.Sample) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return err
	}
	for _, s := range samples {
		if _, err := bw.WriteString(FormatSample(s) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveFile writes the series to path, replacing any existing file.
func SaveFile(path string, samples []models.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteSeries(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ReadSeries parses a saved series. Blank lines are ignored.
func ReadSeries(r io.Reader) ([]models.Sample, error) {
	scanner := bufio.NewScanner(r)
	out := make([]models.Sample, 0)
	line := 0
	sawHeader := false
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !sawHeader {
			if text != Header {
				return nil, fmt.Errorf("line %d: unexpected header %q", line, text)
			}
			sawHeader = true
			continue
		}
		s, err := parseRow(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, fmt.Errorf("missing header")
	}
	return out, nil
}

func LoadFile(path string) ([]models.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeries(f)
}

func parseRow(text string) (models.Sample, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return models.Sample{}, fmt.Errorf("expected 2 columns, got %d", len(parts))
	}
	elapsed, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Sample{}, fmt.Errorf("elapsed: %w", err)
	}
	reading, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return models.Sample{}, fmt.Errorf("reading: %w", err)
	}
	return models.Sample{Elapsed: elapsed, Reading: reading}, nil
}
