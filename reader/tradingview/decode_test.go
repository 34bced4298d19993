package tradingview

import (
	"testing"

	"github.com/stretchr/testify/require"

	"heatmapflow/config"
	"heatmapflow/models"
)

func TestHeatmapURLDefaults(t *testing.T) {
	cfg := config.Default().Source
	require.Equal(t,
		"https://www.tradingview.com/heatmap/stock/?color=change&dataset=america&group=sector&size=market_cap_basic",
		HeatmapURL(cfg, "", ""))
}

func TestHeatmapURLOverrides(t *testing.T) {
	cfg := config.Default().Source
	cfg.BaseURL = "http://localhost:9222/"
	require.Equal(t,
		"http://localhost:9222/heatmap/crypto/?color=change&dataset=global&group=sector&size=market_cap_basic",
		HeatmapURL(cfg, "crypto", "global"))
}

func TestDecodeRecords(t *testing.T) {
	data := []byte(`[
		{"symbol":"AAA","name":"Alpha","change":"+5.00%","price":"10.00","color":"rgb(0, 128, 0)","area":100},
		{"symbol":"BBB","name":"BBB","change":"-3.20%","price":"20.00","color":"","area":400.5},
		{"symbol":"","name":"ghost","area":50},
		{"symbol":"CCC","area":null},
		"not an object"
	]`)
	records, err := DecodeRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, models.RawRecord{
		Symbol: "AAA", Name: "Alpha", Change: "+5.00%", Price: "10.00", Color: "rgb(0, 128, 0)", Area: 100,
	}, records[0])
	require.Equal(t, 400.5, records[1].Area)

	require.Equal(t, "CCC", records[2].Symbol)
	require.Empty(t, records[2].Change)
	require.Equal(t, models.DefaultArea, records[2].Area)
}

func TestDecodeRecordsEmpty(t *testing.T) {
	for _, in := range []string{"", "null", "[]"} {
		records, err := DecodeRecords([]byte(in))
		require.NoError(t, err, "input %q", in)
		require.Empty(t, records, "input %q", in)
	}
}

func TestDecodeRecordsRejectsGarbage(t *testing.T) {
	_, err := DecodeRecords([]byte(`{"symbol":"AAA"}`))
	require.Error(t, err)

	_, err = DecodeRecords([]byte(`[{"symbol":`))
	require.Error(t, err)
}

func TestExtractScriptIsEmbedded(t *testing.T) {
	require.Contains(t, extractScript, "[data-symbol]")
	require.Contains(t, extractScript, "getBoundingClientRect")
}
