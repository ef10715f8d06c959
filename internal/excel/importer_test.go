package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/swipevocab/internal/database"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportCSVCreatesWords(t *testing.T) {
	require.NoError(t, database.Connect("", ":memory:"))
	t.Cleanup(func() { database.Close() })

	config := DefaultImportConfig()
	config.FilePath = writeTestCSV(t, "word,pos,level,translation\n"+
		"abandon,verb,B2,покидать\n"+
		"brisk,adj,C1,бодрый\n"+
		",noun,A1,без слова\n")

	result, err := ImportWords(config)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped) // row without a word
	assert.Empty(t, result.Errors)

	words, err := database.NewWordRepository().GetAll()
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "abandon", words[0].Word)
	assert.Equal(t, "verb", words[0].Pos)
	assert.Equal(t, "B2", words[0].Level)
}

func TestImportUpsertsExistingWords(t *testing.T) {
	require.NoError(t, database.Connect("", ":memory:"))
	t.Cleanup(func() { database.Close() })

	config := DefaultImportConfig()
	config.FilePath = writeTestCSV(t, "word,pos,level,translation\n"+
		"abandon,verb,B2,покидать\n")

	_, err := ImportWords(config)
	require.NoError(t, err)

	// Повторный импорт с новым переводом не дублирует слово
	config.FilePath = writeTestCSV(t, "word,pos,level,translation\n"+
		"abandon,verb,B2,оставлять\n")
	result, err := ImportWords(config)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	words, err := database.NewWordRepository().GetAll()
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "оставлять", words[0].Translation)
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 3, columnToIndex("D"))
	assert.Equal(t, 26, columnToIndex("AA"))
	assert.Equal(t, 0, columnToIndex(""))
}
