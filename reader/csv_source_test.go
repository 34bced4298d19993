package reader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"heatmapflow/models"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heatmap_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceReadsRows(t *testing.T) {
	path := writeFile(t, "symbol,name,change,price,color,area\n"+
		"AAA,Alpha,+5.00%,10.00,green,100\n"+
		"BBB,,-3.20%,20.00,,not-a-number\n")

	records, err := NewCSVSource(path).Extract(context.Background(), "stock", "america")
	require.NoError(t, err)
	require.Equal(t, []models.RawRecord{
		{Symbol: "AAA", Name: "Alpha", Change: "+5.00%", Price: "10.00", Color: "green", Area: 100},
		{Symbol: "BBB", Change: "-3.20%", Price: "20.00", Area: models.DefaultArea},
	}, records)
}

func TestCSVSourceEmptyFile(t *testing.T) {
	records, err := NewCSVSource(writeFile(t, "")).Extract(context.Background(), "stock", "america")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := src.Extract(context.Background(), "stock", "america")

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	require.Equal(t, "open", extractErr.Stage)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoError(t, src.Close())
}

func TestExtractionErrorMessage(t *testing.T) {
	err := NewExtractionError("stock", "america", "wait", errors.New("timeout"))
	require.Equal(t, "extract stock/america failed at wait: timeout", err.Error())
	require.EqualError(t, errors.Unwrap(err), "timeout")
}
