package mealimport

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"meal-kart/internal/model"

	"github.com/shopspring/decimal"
)

// Loader reads a meal catalogue file.
type Loader interface {
	// Load reads a CSV file, gzip-compressed or plain, and returns its meals.
	Load(ctx context.Context, path string) ([]model.Meal, error)
}

// Columns recognised in the header row. id and name are required.
var columns = []string{"id", "name", "description", "type", "available", "price", "photo", "category"}

var gzipMagic = []byte{0x1f, 0x8b}

// Parse reads catalogue rows from r. Compressed input is detected from the
// gzip magic bytes. Rows without an id or name are skipped.
func Parse(ctx context.Context, r io.Reader) ([]model.Meal, int, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == gzipMagic[0] && magic[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		return parseCSV(ctx, gz)
	}
	return parseCSV(ctx, br)
}

func parseCSV(ctx context.Context, r io.Reader) ([]model.Meal, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range columns[:2] {
		if _, ok := index[required]; !ok {
			return nil, 0, fmt.Errorf("missing %q column", required)
		}
	}

	var meals []model.Meal
	skipped := 0
	for line := 2; ; line++ {
		if line%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		meal, ok, err := mealFromRecord(record, index)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			skipped++
			continue
		}
		meals = append(meals, meal)
	}
	return meals, skipped, nil
}

func mealFromRecord(record []string, index map[string]int) (model.Meal, bool, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	optional := func(name string) *string {
		if v := field(name); v != "" {
			return &v
		}
		return nil
	}

	meal := model.Meal{
		ID:          field("id"),
		Name:        field("name"),
		Description: optional("description"),
		Type:        optional("type"),
		Category:    optional("category"),
		Photo:       optional("photo"),
		Tags:        []string{},
		Available:   true,
	}
	if meal.ID == "" || meal.Name == "" {
		return model.Meal{}, false, nil
	}

	if v := field("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return model.Meal{}, false, fmt.Errorf("meal %s: invalid available value %q", meal.ID, v)
		}
		meal.Available = available
	}
	if v := field("price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return model.Meal{}, false, fmt.Errorf("meal %s: invalid price %q", meal.ID, v)
		}
		meal.Price = price
	}
	return meal, true, nil
}
