package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// generateSampleMeals writes a small gzip-compressed meal catalogue that
// cmd/import-meals can load from the local file system.
func main() {
	dataDir := "data/meals"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	rows := [][]string{
		{"id", "name", "description", "type", "available", "price", "photo", "category"},
		{"MEAL-001", "Chicken Shawarma Bowl", "Grilled chicken, rice, garlic sauce", "lunch", "true", "32.50", "", "high-protein"},
		{"MEAL-002", "Beef Kofta Plate", "Kofta with bulgur and salad", "dinner", "true", "38.00", "", "high-protein"},
		{"MEAL-003", "Salmon Quinoa", "Baked salmon over quinoa", "dinner", "true", "44.00", "", "balanced"},
		{"MEAL-004", "Oat Pancakes", "Oat pancakes with berries", "breakfast", "true", "18.00", "", "breakfast"},
		{"MEAL-005", "Lentil Soup", "Red lentil soup", "lunch", "true", "16.50", "", "low-calorie"},
		{"MEAL-006", "Greek Yoghurt Cup", "Yoghurt, honey and walnuts", "snack", "true", "12.00", "", "snack"},
		{"MEAL-007", "Turkey Wrap", "Turkey, hummus and greens", "lunch", "false", "27.00", "", "balanced"},
	}

	filePath := filepath.Join(dataDir, "catalogue.csv.gz")
	if err := writeCatalogue(filePath, rows); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d meals\n", filePath, len(rows)-1)
	fmt.Println("\nImport with: go run ./cmd/import-meals -file meals/catalogue.csv.gz")
}

func writeCatalogue(filePath string, rows [][]string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	w := csv.NewWriter(gzipWriter)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
