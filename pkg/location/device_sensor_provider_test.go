package location

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReadFix_GGAFix tests coordinate and HDOP extraction from a GGA
// sentence.
func TestReadFix_GGAFix(t *testing.T) {
	stream := strings.NewReader(
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n")

	loc, err := readFix(context.Background(), stream)

	require.NoError(t, err)
	assert.InDelta(t, 48.1173, loc.Latitude, 1e-4)
	assert.InDelta(t, 11.5167, loc.Longitude, 1e-4)
	assert.InDelta(t, 0.9, loc.Accuracy, 1e-9)
	assert.Zero(t, loc.Speed)
}

// TestReadFix_RMCContributesSpeed tests that a preceding RMC sentence
// fills speed over ground, converted from knots.
func TestReadFix_RMCContributesSpeed(t *testing.T) {
	stream := strings.NewReader(
		"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\r\n" +
			"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n")

	loc, err := readFix(context.Background(), stream)

	require.NoError(t, err)
	assert.InDelta(t, 11.5236, loc.Speed, 1e-3)
	assert.InDelta(t, 48.1173, loc.Latitude, 1e-4)
}

// TestReadFix_SkipsInvalidFixAndGarbage tests that no-fix GGA sentences,
// unparseable lines and partial reads are skipped.
func TestReadFix_SkipsInvalidFixAndGarbage(t *testing.T) {
	stream := strings.NewReader(
		"31.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n" + // torn first line
			"$GPGGA,120000,0000.000,N,00000.000,E,0,00,99.9,0.0,M,0.0,M,,*49\r\n" + // no fix
			"not nmea at all\r\n" +
			"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n")

	loc, err := readFix(context.Background(), stream)

	require.NoError(t, err)
	assert.InDelta(t, 48.1173, loc.Latitude, 1e-4)
}

// TestReadFix_NoFixInStream tests the exhausted-stream error.
func TestReadFix_NoFixInStream(t *testing.T) {
	stream := strings.NewReader(
		"$GPGGA,120000,0000.000,N,00000.000,E,0,00,99.9,0.0,M,0.0,M,,*49\r\n")

	_, err := readFix(context.Background(), stream)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid GPS data")
}

// TestReadFix_ContextCancelled tests that cancellation stops the scan.
func TestReadFix_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := strings.NewReader(
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\r\n")

	_, err := readFix(ctx, stream)

	assert.ErrorIs(t, err, context.Canceled)
}
