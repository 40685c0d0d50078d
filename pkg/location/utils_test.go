package location

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWiFiScan(t *testing.T) {
	output := strings.NewReader(
		`AA\:BB\:CC\:DD\:EE\:FF:75
11\:22\:33\:44\:55\:66:40
not-a-mac:90
00\:14\:22\:01\:23\:45:bad
`)

	aps, err := parseWiFiScan(output)

	require.NoError(t, err)
	require.Len(t, aps, 2)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", aps[0].MACAddress)
	assert.Equal(t, 75.0, aps[0].SignalStrength)
	assert.Equal(t, "11:22:33:44:55:66", aps[1].MACAddress)
}

func TestParseCellTower(t *testing.T) {
	output := strings.NewReader(
		`modem.3gpp.mcc             : 262
modem.3gpp.mnc             : 1
modem.3gpp.lac             : 1A2B
modem.3gpp.cid             : 00C3D4
modem.generic.model        : QUECTEL EC25
`)

	tower, err := parseCellTower(output)

	require.NoError(t, err)
	assert.Equal(t, 262, tower.MobileCountryCode)
	assert.Equal(t, 1, tower.MobileNetworkCode)
	assert.Equal(t, 0x1A2B, tower.LocationAreaCode)
	assert.Equal(t, 0xC3D4, tower.CellID)
}

func TestParseCellTower_IncompleteData(t *testing.T) {
	output := strings.NewReader("modem.3gpp.lac : 1A2B\n")

	_, err := parseCellTower(output)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete cell tower data")
}
