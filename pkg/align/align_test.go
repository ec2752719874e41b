package align

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/runlog"
)

func TestExtractTag(t *testing.T) {
	tests := []struct {
		name string
		text string
		tag  string
		want string
	}{
		{
			name: "simple match",
			text: "preamble <window>arma virumque cano</window> postamble",
			tag:  "window",
			want: "arma virumque cano",
		},
		{
			name: "multiline content",
			text: "<window>line one\nline two</window>",
			tag:  "window",
			want: "line one\nline two",
		},
		{
			name: "first of several spans wins",
			text: "<line>103</line> and later <line>999</line>",
			tag:  "line",
			want: "103",
		},
		{
			name: "whitespace trimmed",
			text: "<text>  quoted span  </text>",
			tag:  "text",
			want: "quoted span",
		},
		{
			name: "missing tag yields empty",
			text: "no tags here at all",
			tag:  "window",
			want: "",
		},
		{
			name: "unclosed tag yields empty",
			text: "<window>never closed",
			tag:  "window",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTag(tt.text, tt.tag))
		})
	}
}

func inputTable() *dataset.Table {
	tbl := dataset.NewTable([]string{dataset.ColUUID, dataset.ColBookTitle, "commenter"})
	tbl.Append(map[string]string{dataset.ColUUID: "u1", dataset.ColBookTitle: "b1", "commenter": "servius"})
	tbl.Append(map[string]string{dataset.ColUUID: "u2", dataset.ColBookTitle: "b1", "commenter": "donatus"})
	return tbl
}

func okRecord(uuid, book, model, response string) runlog.Record {
	return runlog.Record{
		UUID: uuid, BookTitle: book, Model: model,
		Status: runlog.StatusOK, ResponseRaw: &response,
	}
}

func TestAlignExtractsAndDropsUnmatched(t *testing.T) {
	records := []runlog.Record{
		okRecord("u1", "b1", "m1", "reasoning <window>arma virumque</window>"),
	}

	out, err := Align(inputTable(), records, "m1", []Rule{{Tag: "window", Column: ResponseColumn("m1")}})
	require.NoError(t, err)

	// u2 has no log entry and is dropped, not nulled.
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "u1", out.Rows[0][dataset.ColUUID])
	assert.Equal(t, "arma virumque", out.Rows[0][ResponseColumn("m1")])
	assert.Equal(t, "servius", out.Rows[0]["commenter"])
}

func TestAlignRawResponseRule(t *testing.T) {
	records := []runlog.Record{okRecord("u1", "b1", "m1", "full raw text")}

	out, err := Align(inputTable(), records, "m1", []Rule{{Column: ResponseColumn("m1")}})
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "full raw text", out.Rows[0][ResponseColumn("m1")])
}

func TestAlignErrorRecordYieldsEmpty(t *testing.T) {
	records := []runlog.Record{
		{UUID: "u1", BookTitle: "b1", Model: "m1", Status: runlog.StatusError},
	}

	out, err := Align(inputTable(), records, "m1", []Rule{{Tag: "window", Column: ResponseColumn("m1")}})
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "", out.Rows[0][ResponseColumn("m1")])
}

func TestAlignModelFilter(t *testing.T) {
	records := []runlog.Record{
		okRecord("u1", "b1", "m1", "<window>from m1</window>"),
		okRecord("u2", "b1", "m2", "<window>from m2</window>"),
	}

	out, err := Align(inputTable(), records, "m1", []Rule{{Tag: "window", Column: ResponseColumn("m1")}})
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "u1", out.Rows[0][dataset.ColUUID])
}

func TestAlignLastWriteWins(t *testing.T) {
	records := []runlog.Record{
		okRecord("u1", "b1", "m1", "<window>first</window>"),
		okRecord("u1", "b1", "m1", "<window>second</window>"),
	}

	out, err := Align(inputTable(), records, "m1", []Rule{{Tag: "window", Column: ResponseColumn("m1")}})
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "second", out.Rows[0][ResponseColumn("m1")])
}

func TestAlignUnfilteredMixedModelsIsDeterministic(t *testing.T) {
	// Without a model filter, records from different models can share a
	// (uuid, book_title) pair; the latest one in file order must win,
	// run after run.
	records := []runlog.Record{
		okRecord("u1", "b1", "m1", "<window>from m1</window>"),
		okRecord("u1", "b1", "m2", "<window>from m2</window>"),
	}

	for i := 0; i < 20; i++ {
		out, err := Align(inputTable(), records, "", []Rule{{Tag: "window", Column: "extracted"}})
		require.NoError(t, err)
		require.Len(t, out.Rows, 1)
		assert.Equal(t, "from m2", out.Rows[0]["extracted"])
	}
}

func TestAlignRejectsKeylessInput(t *testing.T) {
	tbl := dataset.NewTable([]string{"other"})
	_, err := Align(tbl, nil, "m1", []Rule{{Column: "c"}})
	assert.Error(t, err)
}

func TestWriteAlignedMergePreservesOtherColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aligned.csv")

	// First pass: model m1.
	firstRecords := []runlog.Record{okRecord("u1", "b1", "m1", "<window>alpha</window>")}
	first, err := Align(inputTable(), firstRecords, "m1", []Rule{{Tag: "window", Column: ResponseColumn("m1")}})
	require.NoError(t, err)
	_, err = WriteAligned(path, first)
	require.NoError(t, err)

	// Second pass: a different model, disjoint column.
	secondRecords := []runlog.Record{okRecord("u1", "b1", "m2", "<window>beta</window>")}
	second, err := Align(inputTable(), secondRecords, "m2", []Rule{{Tag: "window", Column: ResponseColumn("m2")}})
	require.NoError(t, err)
	final, err := WriteAligned(path, second)
	require.NoError(t, err)

	require.Len(t, final.Rows, 1)
	assert.Equal(t, "alpha", final.Rows[0][ResponseColumn("m1")])
	assert.Equal(t, "beta", final.Rows[0][ResponseColumn("m2")])
	assert.Equal(t, "servius", final.Rows[0]["commenter"])

	// Reloading from disk must show the same accumulated state.
	reloaded, err := dataset.ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, reloaded.Rows, 1)
	assert.Equal(t, "alpha", reloaded.Rows[0][ResponseColumn("m1")])
	assert.Equal(t, "beta", reloaded.Rows[0][ResponseColumn("m2")])
}

func TestWriteAlignedOverwritesKeylessDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aligned.csv")

	junk := dataset.NewTable([]string{"unrelated"})
	junk.Append(map[string]string{"unrelated": "x"})
	require.NoError(t, junk.WriteCSV(path))

	records := []runlog.Record{okRecord("u1", "b1", "m1", "<window>alpha</window>")}
	aligned, err := Align(inputTable(), records, "m1", []Rule{{Tag: "window", Column: ResponseColumn("m1")}})
	require.NoError(t, err)

	final, err := WriteAligned(path, aligned)
	require.NoError(t, err)
	require.Len(t, final.Rows, 1)
	assert.False(t, final.HasColumn("unrelated"))
}
