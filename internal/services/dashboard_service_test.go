package services_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/benmeehan/iot-dashboard/internal/dashboard"
	"github.com/benmeehan/iot-dashboard/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_ServesAndStops(t *testing.T) {
	// Setup
	hub := dashboard.NewHub(zerolog.Nop())
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	svc := services.NewDashboardService("127.0.0.1:0", handler, hub, zerolog.Nop())

	// Execute
	require.NoError(t, svc.Start())

	res, err := http.Get("http://" + svc.Addr() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	err = svc.Start()
	assert.Error(t, err)
	assert.Equal(t, "dashboard service is already running", err.Error())

	// Assert: after Stop the port is closed.
	require.NoError(t, svc.Stop())

	_, err = http.Get("http://" + svc.Addr() + "/")
	assert.Error(t, err)

	err = svc.Stop()
	assert.Error(t, err)
	assert.Equal(t, "dashboard service is not running", err.Error())
}
