package location

import (
	"context"

	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider resolves the host position through the Google
// Maps Geolocation API, using nearby WiFi access points and cell towers as
// hints when the host can see them.
type GoogleGeolocationProvider struct {
	client     *maps.Client
	modemIndex int
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:     c,
		modemIndex: modemIndex,
	}, nil
}

// GetLocation retrieves the host's location using the Geolocation API.
func (g *GoogleGeolocationProvider) GetLocation(ctx context.Context) (Location, error) {
	// Hints are best effort; a host without nmcli or a modem still
	// resolves over IP.
	wifiAPs, _ := getWiFiAccessPoints(ctx)
	cellTowers, _ := getCellTowers(ctx, g.modemIndex)

	req := &maps.GeolocationRequest{
		ConsiderIP:       true,
		WiFiAccessPoints: wifiAPs,
		CellTowers:       cellTowers,
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Location{}, err
	}

	return Location{
		Latitude:  resp.Location.Lat,
		Longitude: resp.Location.Lng,
		Accuracy:  resp.Accuracy,
	}, nil
}

// Close is a no-op; the maps client keeps no connection state.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}
