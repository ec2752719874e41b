package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	tbl := NewTable([]string{"uuid", "book_title", "answer_quote_text"})
	tbl.Append(map[string]string{"uuid": "u1", "book_title": "The Aeneid", "answer_quote_text": "arma virumque cano"})
	tbl.Append(map[string]string{"uuid": "u2", "book_title": "The Aeneid", "answer_quote_text": ""})

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, tbl.WriteCSV(path))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "arma virumque cano", got.Rows[0]["answer_quote_text"])
	assert.Equal(t, "", got.Rows[1]["answer_quote_text"])
}

func TestReadCSVMissing(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestMergeColumnsAdditive(t *testing.T) {
	dst := NewTable([]string{"uuid", "book_title", "colA"})
	dst.Append(map[string]string{"uuid": "u1", "book_title": "b1", "colA": "5"})

	src := NewTable([]string{"uuid", "book_title", "colB"})
	src.Append(map[string]string{"uuid": "u1", "book_title": "b1", "colB": "9"})

	require.NoError(t, MergeColumns(dst, src))

	require.Len(t, dst.Rows, 1)
	assert.Equal(t, "5", dst.Rows[0]["colA"])
	assert.Equal(t, "9", dst.Rows[0]["colB"])
}

func TestMergeColumnsPreservesUntouched(t *testing.T) {
	dst := NewTable([]string{"uuid", "book_title", "response_model_a"})
	dst.Append(map[string]string{"uuid": "u1", "book_title": "b1", "response_model_a": "first pass"})
	dst.Append(map[string]string{"uuid": "u2", "book_title": "b1", "response_model_a": "kept"})

	src := NewTable([]string{"uuid", "book_title", "response_model_b"})
	src.Append(map[string]string{"uuid": "u1", "book_title": "b1", "response_model_b": "second pass"})

	require.NoError(t, MergeColumns(dst, src))

	assert.Equal(t, "first pass", dst.Rows[0]["response_model_a"])
	assert.Equal(t, "second pass", dst.Rows[0]["response_model_b"])
	// Row untouched by the second pass keeps its prior values
	assert.Equal(t, "kept", dst.Rows[1]["response_model_a"])
	assert.Equal(t, "", dst.Rows[1]["response_model_b"])
}

func TestMergeColumnsMissingJoinKeys(t *testing.T) {
	dst := NewTable([]string{"something_else"})
	src := NewTable([]string{"uuid", "book_title"})

	err := MergeColumns(dst, src)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "uuid")
}

func TestMergeSkipsSourceOnlyRows(t *testing.T) {
	dst := NewTable([]string{"uuid", "book_title"})
	dst.Append(map[string]string{"uuid": "u1", "book_title": "b1"})

	src := NewTable([]string{"uuid", "book_title", "colB"})
	src.Append(map[string]string{"uuid": "u1", "book_title": "b1", "colB": "x"})
	src.Append(map[string]string{"uuid": "u9", "book_title": "b9", "colB": "dropped"})

	require.NoError(t, MergeColumns(dst, src))
	assert.Len(t, dst.Rows, 1)
}

func TestLimit(t *testing.T) {
	tbl := NewTable([]string{"uuid", "book_title"})
	for i := 0; i < 5; i++ {
		tbl.Append(map[string]string{"uuid": string(rune('a' + i)), "book_title": "b"})
	}

	assert.Len(t, tbl.Limit(3).Rows, 3)
	assert.Len(t, tbl.Limit(0).Rows, 5)
	assert.Len(t, tbl.Limit(10).Rows, 5)
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("True"))
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool("1"))
	assert.False(t, ParseBool("False"))
	assert.False(t, ParseBool(""))
	assert.False(t, ParseBool("yes"))
}
