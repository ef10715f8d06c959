// Package excel loads the word catalog from Excel or CSV files
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/swipevocab/internal/database"
	"github.com/example/swipevocab/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	WordColumn        string // Column with the word
	PosColumn         string // Column with the part of speech
	LevelColumn       string // Column with the CEFR level
	TranslationColumn string // Column with the translation
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		PosColumn:         "B",
		LevelColumn:       "C",
		TranslationColumn: "D",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// ImportWords imports words from an Excel or CSV file. Existing (word, pos)
// pairs are updated in place so re-importing the same file is safe.
func ImportWords(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

// importFromExcel imports words from an Excel file
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	wordRepo := database.NewWordRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		var word, pos, level, translation string
		if colIdx := columnToIndex(config.WordColumn); colIdx < len(row) {
			word = row[colIdx]
		}
		if colIdx := columnToIndex(config.PosColumn); colIdx < len(row) {
			pos = row[colIdx]
		}
		if colIdx := columnToIndex(config.LevelColumn); colIdx < len(row) {
			level = row[colIdx]
		}
		if colIdx := columnToIndex(config.TranslationColumn); colIdx < len(row) {
			translation = row[colIdx]
		}

		if err := upsertWord(wordRepo, word, pos, level, translation, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports words from a CSV file with the same column layout:
// word,pos,level,translation
func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	wordRepo := database.NewWordRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++

		var word, pos, level, translation string
		if len(row) > 0 {
			word = row[0]
		}
		if len(row) > 1 {
			pos = row[1]
		}
		if len(row) > 2 {
			level = row[2]
		}
		if len(row) > 3 {
			translation = row[3]
		}

		if err := upsertWord(wordRepo, word, pos, level, translation, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// upsertWord creates or updates a single catalog entry
func upsertWord(wordRepo *database.WordRepository, word, pos, level, translation string, result *ImportResult) error {
	word = strings.TrimSpace(word)
	pos = strings.ToLower(strings.TrimSpace(pos))
	level = strings.ToUpper(strings.TrimSpace(level))
	translation = strings.TrimSpace(translation)

	if word == "" {
		result.Skipped++
		return nil
	}

	existing, err := wordRepo.GetByWordAndPos(word, pos)
	if err != nil && err != database.ErrNotFound {
		return err
	}

	if existing != nil {
		// Слово уже есть - обновляем перевод и уровень
		existing.Level = level
		existing.Translation = translation
		if err := wordRepo.Update(existing); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	newWord := &models.Word{
		Word:        word,
		Pos:         pos,
		Level:       level,
		Translation: translation,
	}
	if err := wordRepo.Create(newWord); err != nil {
		return err
	}
	result.Created++
	return nil
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for _, c := range column {
		if c < 'A' || c > 'Z' {
			return 0
		}
		index = index*26 + int(c-'A') + 1
	}
	if index == 0 {
		return 0
	}
	return index - 1
}
