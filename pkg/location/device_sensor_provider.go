package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/tarm/serial"
)

// knotsToMetersPerSecond converts NMEA speed over ground.
const knotsToMetersPerSecond = 0.514444

// DeviceSensorProvider retrieves location data from a GPS receiver on a
// serial port. The port is opened per reading and closed afterwards.
type DeviceSensorProvider struct {
	port        string
	baudRate    int
	readTimeout time.Duration
}

// NewDeviceSensorProvider creates a new instance of DeviceSensorProvider with the specified port and baud rate.
func NewDeviceSensorProvider(port string, baudRate int) *DeviceSensorProvider {
	return &DeviceSensorProvider{
		port:        port,
		baudRate:    baudRate,
		readTimeout: time.Second,
	}
}

// GetLocation reads NMEA sentences from the receiver until a GGA sentence
// with a usable fix arrives. An RMC sentence seen on the way contributes
// speed over ground.
func (d *DeviceSensorProvider) GetLocation(ctx context.Context) (Location, error) {
	c := &serial.Config{Name: d.port, Baud: d.baudRate, ReadTimeout: d.readTimeout}
	s, err := serial.OpenPort(c)
	if err != nil {
		return Location{}, err
	}
	defer s.Close()

	return readFix(ctx, s)
}

// Close is a no-op; the port is opened per reading.
func (d *DeviceSensorProvider) Close() error {
	return nil
}

// readFix scans the NMEA stream for the next valid fix. Unparseable lines
// are skipped; the first line after opening a port is often partial.
func readFix(ctx context.Context, r io.Reader) (Location, error) {
	var speed float64

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return Location{}, err
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		switch sent := sentence.(type) {
		case nmea.RMC:
			if sent.Validity == nmea.ValidRMC {
				speed = sent.Speed * knotsToMetersPerSecond
			}
		case nmea.GGA:
			if sent.FixQuality == nmea.Invalid {
				continue
			}
			return Location{
				Latitude:  sent.Latitude,
				Longitude: sent.Longitude,
				Accuracy:  sent.HDOP,
				Speed:     speed,
			}, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return Location{}, err
	}
	return Location{}, errors.New("no valid GPS data found")
}
