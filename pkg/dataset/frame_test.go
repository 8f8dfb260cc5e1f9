package dataset_test

import (
	"math"
	"strings"
	"testing"

	"mlpipe/pkg/dataset"
	"mlpipe/pkg/serrors"

	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *dataset.Frame {
	t.Helper()

	f, err := dataset.New(
		[]string{"id", "room_type", "price"},
		[][]string{
			{"1", "Private room", "60"},
			{"2", "Entire home/apt", "150"},
			{"3", "Private room", ""},
			{"4", "Shared room", "30"},
		},
	)
	require.NoError(t, err)

	return f
}

func TestNew_RejectsRaggedRows(t *testing.T) {
	_, err := dataset.New([]string{"a", "b"}, [][]string{{"1"}})

	require.ErrorIs(t, err, serrors.ErrInvalidData)
}

func TestColumn_UnknownName(t *testing.T) {
	f := sampleFrame(t)

	_, err := f.Column("latitude")
	require.ErrorIs(t, err, serrors.ErrInvalidData)
}

func TestFloatColumn_MissingBecomesNaN(t *testing.T) {
	f := sampleFrame(t)

	prices, err := f.FloatColumn("price")
	require.NoError(t, err)
	require.Len(t, prices, 4)
	require.Equal(t, 60.0, prices[0])
	require.True(t, math.IsNaN(prices[2]))
}

func TestFilter_KeepsMatchingRows(t *testing.T) {
	f := sampleFrame(t)
	idx, ok := f.ColumnIndex("room_type")
	require.True(t, ok)

	private := f.Filter(func(row []string) bool { return row[idx] == "Private room" })

	require.Equal(t, 2, private.NumRows())
	require.Equal(t, f.Columns, private.Columns)
}

func TestSelect_PreservesOrder(t *testing.T) {
	f := sampleFrame(t)

	picked := f.Select([]int{3, 0})

	require.Equal(t, [][]string{
		{"4", "Shared room", "30"},
		{"1", "Private room", "60"},
	}, picked.Rows)
}

func TestCSV_RoundTrip(t *testing.T) {
	f := sampleFrame(t)

	var buf strings.Builder
	require.NoError(t, f.WriteCSV(&buf))

	parsed, err := dataset.ReadCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Equal(t, f.Columns, parsed.Columns)
	require.Equal(t, f.Rows, parsed.Rows)
}

func TestReadCSV_EmptyInput(t *testing.T) {
	_, err := dataset.ReadCSV(strings.NewReader(""))

	require.ErrorIs(t, err, serrors.ErrInvalidData)
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := dataset.ReadCSVFile(t.TempDir() + "/nope.csv")

	require.ErrorIs(t, err, serrors.ErrNotFound)
}
