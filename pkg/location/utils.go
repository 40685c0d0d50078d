package location

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"
)

// getWiFiAccessPoints retrieves nearby WiFi access points using nmcli.
func getWiFiAccessPoints(ctx context.Context) ([]maps.WiFiAccessPoint, error) {
	if _, err := exec.LookPath("nmcli"); err != nil {
		return nil, fmt.Errorf("nmcli not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run nmcli: %w", err)
	}

	return parseWiFiScan(bytes.NewReader(output))
}

// parseWiFiScan reads nmcli terse output. The colons inside the BSSID are
// backslash-escaped, so the field separator is the last colon on the line.
func parseWiFiScan(r io.Reader) ([]maps.WiFiAccessPoint, error) {
	var wifiAPs []maps.WiFiAccessPoint

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		sep := strings.LastIndex(line, ":")
		if sep < 0 {
			continue
		}
		mac := strings.ReplaceAll(strings.TrimSpace(line[:sep]), `\:`, ":")
		if _, err := net.ParseMAC(mac); err != nil {
			continue
		}
		signal, err := strconv.Atoi(strings.TrimSpace(line[sep+1:]))
		if err != nil {
			continue
		}
		wifiAPs = append(wifiAPs, maps.WiFiAccessPoint{
			MACAddress:     mac,
			SignalStrength: float64(signal),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan nmcli output: %w", err)
	}

	return wifiAPs, nil
}

// getCellTowers retrieves the serving cell tower using mmcli for the given modem index.
func getCellTowers(ctx context.Context, modemIndex int) ([]maps.CellTower, error) {
	if _, err := exec.LookPath("mmcli"); err != nil {
		return nil, fmt.Errorf("mmcli not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, "mmcli", "-m", strconv.Itoa(modemIndex), "--output-keyvalue")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run mmcli for modem %d: %w", modemIndex, err)
	}

	tower, err := parseCellTower(bytes.NewReader(output))
	if err != nil {
		return nil, err
	}

	return []maps.CellTower{tower}, nil
}

// parseCellTower reads mmcli key-value output. LAC and cell ID are reported
// in hex.
func parseCellTower(r io.Reader) (maps.CellTower, error) {
	var tower maps.CellTower

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "modem.3gpp.mcc":
			mcc, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			tower.MobileCountryCode = mcc
		case "modem.3gpp.mnc":
			mnc, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			tower.MobileNetworkCode = mnc
		case "modem.3gpp.lac":
			lac, err := strconv.ParseInt(value, 16, 32)
			if err != nil {
				continue
			}
			tower.LocationAreaCode = int(lac)
		case "modem.3gpp.cid":
			cid, err := strconv.ParseInt(value, 16, 32)
			if err != nil {
				continue
			}
			tower.CellID = int(cid)
		}
	}

	if err := scanner.Err(); err != nil {
		return maps.CellTower{}, fmt.Errorf("failed to scan mmcli output: %w", err)
	}

	if tower.MobileCountryCode == 0 || tower.MobileNetworkCode == 0 {
		return maps.CellTower{}, errors.New("incomplete cell tower data")
	}

	return tower, nil
}
