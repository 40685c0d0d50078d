package dashboard

// indexPage is the embedded dashboard. It talks to the JSON API and the
// websocket feed only, so it needs no build step or asset pipeline.
const indexPage = `<!DOCTYPE html>
<html>
<head>
    <title>IoT Telemetry Dashboard</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Segoe UI', Arial, sans-serif; background: #0a1929; color: #fff; }

        .container { display: grid; grid-template-columns: 320px 1fr; height: 100vh; gap: 16px; padding: 16px; }

        .panel {
            background: rgba(15, 23, 42, 0.95);
            border-radius: 12px;
            padding: 16px;
            border: 1px solid rgba(255,255,255,0.1);
            overflow-y: auto;
        }

        .main-panel { display: flex; flex-direction: column; gap: 16px; min-width: 0; }

        h3 { margin: 0 0 12px 0; font-size: 15px; color: #60a5fa; border-bottom: 2px solid #1e40af; padding-bottom: 6px; }

        button {
            width: 100%; padding: 9px; margin: 6px 0;
            border: 1px solid #334155; border-radius: 6px;
            background: #1e293b; color: #fff; cursor: pointer; font-size: 13px;
        }
        button:hover { background: #334155; }

        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        td { padding: 4px 2px; border-bottom: 1px solid #1e293b; }
        td.value { text-align: right; font-variant-numeric: tabular-nums; color: #93c5fd; }

        #map { height: 42vh; border-radius: 12px; }
        .charts { display: grid; grid-template-columns: 1fr 1fr; gap: 16px; flex: 1; min-height: 260px; }
        iframe { width: 100%; height: 100%; border: 0; border-radius: 12px; background: #fff; }

        .badge { display: inline-block; padding: 2px 8px; border-radius: 10px; font-size: 12px; }
        .badge.connected { background: #14532d; color: #86efac; }
        .badge.disconnected, .badge.idle { background: #7f1d1d; color: #fca5a5; }
        .badge.connecting { background: #713f12; color: #fde68a; }

        #devices div { padding: 6px; border-bottom: 1px solid #1e293b; font-size: 13px; }
        #notices div { padding: 4px 0; font-size: 12px; color: #94a3b8; }
        #notices .warning { color: #fde68a; }
        #notices .error { color: #fca5a5; }
    </style>
</head>
<body>
<div class="container">
    <div class="panel">
        <h3>Link <span id="link-state" class="badge idle">idle</span></h3>
        <div id="link-device" style="font-size:13px;color:#94a3b8;margin-bottom:8px;"></div>
        <button id="scan">Scan for devices</button>
        <div id="devices"></div>
        <button id="disconnect">Disconnect</button>

        <h3 style="margin-top:16px;">Telemetry</h3>
        <table id="readout">
            <tr><td>Source</td><td class="value" id="f-source">-</td></tr>
            <tr><td>Latitude</td><td class="value" id="f-lat">-</td></tr>
            <tr><td>Longitude</td><td class="value" id="f-lon">-</td></tr>
            <tr><td>Speed (m/s)</td><td class="value" id="f-speed">-</td></tr>
            <tr><td>Roll</td><td class="value" id="f-roll">-</td></tr>
            <tr><td>Pitch</td><td class="value" id="f-pitch">-</td></tr>
            <tr><td>Yaw</td><td class="value" id="f-yaw">-</td></tr>
            <tr><td>Alert</td><td class="value" id="f-alert">-</td></tr>
            <tr><td>Activity</td><td class="value" id="f-activity">-</td></tr>
        </table>

        <h3 style="margin-top:16px;">Export</h3>
        <button id="export">Export history JSON</button>
        <div id="export-result" style="font-size:12px;color:#94a3b8;word-break:break-all;"></div>

        <h3 style="margin-top:16px;">Notices</h3>
        <div id="notices"></div>
    </div>

    <div class="main-panel">
        <div id="map"></div>
        <div class="charts">
            <iframe id="chart-speed" src="/charts/speed"></iframe>
            <iframe id="chart-attitude" src="/charts/attitude"></iframe>
        </div>
    </div>
</div>

<script>
    var map = L.map('map').setView([0, 0], 2);
    L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
        maxZoom: 19,
        attribution: '&copy; OpenStreetMap contributors'
    }).addTo(map);

    var trackLine = L.polyline([], { color: '#60a5fa', weight: 3 }).addTo(map);
    var marker = null;
    var centered = false;

    function setText(id, value) {
        document.getElementById(id).textContent = value;
    }

    function renderSample(sample) {
        setText('f-source', sample.source || '-');
        setText('f-lat', sample.lat.toFixed(5));
        setText('f-lon', sample.lon.toFixed(5));
        setText('f-speed', sample.speed.toFixed(2));
        setText('f-roll', sample.roll.toFixed(1));
        setText('f-pitch', sample.pitch.toFixed(1));
        setText('f-yaw', sample.yaw.toFixed(1));
        setText('f-alert', sample.alert);
        setText('f-activity', sample.activity);

        if (sample.lat !== 0 || sample.lon !== 0) {
            var pos = [sample.lat, sample.lon];
            trackLine.addLatLng(pos);
            if (marker === null) {
                marker = L.marker(pos).addTo(map);
            } else {
                marker.setLatLng(pos);
            }
            if (!centered) {
                map.setView(pos, 15);
                centered = true;
            }
        }
    }

    function loadTrack() {
        fetch('/api/track').then(function (res) { return res.json(); }).then(function (fc) {
            fc.features.forEach(function (feature) {
                if (feature.geometry.type === 'LineString') {
                    var latlngs = feature.geometry.coordinates.map(function (c) { return [c[1], c[0]]; });
                    trackLine.setLatLngs(latlngs);
                    if (latlngs.length > 0 && !centered) {
                        map.setView(latlngs[latlngs.length - 1], 15);
                        centered = true;
                    }
                }
            });
        });
    }

    function refreshStatus() {
        fetch('/api/status').then(function (res) { return res.json(); }).then(function (st) {
            var badge = document.getElementById('link-state');
            badge.textContent = st.link_state;
            badge.className = 'badge ' + st.link_state;

            var device = st.connected_device || '';
            var extras = [];
            if (st.phone_tracking) { extras.push('phone tracking'); }
            if (st.continuing_to_track) { extras.push('device quiet'); }
            document.getElementById('link-device').textContent =
                device + (extras.length ? ' (' + extras.join(', ') + ')' : '');

            var noticesBox = document.getElementById('notices');
            noticesBox.innerHTML = '';
            (st.notices || []).slice().reverse().forEach(function (n) {
                var row = document.createElement('div');
                row.className = n.level;
                row.textContent = n.origin + ': ' + n.message;
                noticesBox.appendChild(row);
            });
        });
    }

    document.getElementById('scan').addEventListener('click', function () {
        var box = document.getElementById('devices');
        box.textContent = 'Scanning...';
        fetch('/api/link/scan', { method: 'POST' }).then(function (res) { return res.json(); }).then(function (devices) {
            box.innerHTML = '';
            if (!devices.length) {
                box.textContent = 'No devices found';
                return;
            }
            devices.forEach(function (d) {
                var row = document.createElement('div');
                var btn = document.createElement('button');
                btn.textContent = 'Connect ' + d.device_id + ' (fw ' + d.firmware + ')';
                btn.addEventListener('click', function () {
                    fetch('/api/link/connect', {
                        method: 'POST',
                        headers: { 'Content-Type': 'application/json' },
                        body: JSON.stringify({ device_id: d.device_id })
                    }).then(refreshStatus);
                });
                row.appendChild(btn);
                box.appendChild(row);
            });
        });
    });

    document.getElementById('disconnect').addEventListener('click', function () {
        fetch('/api/link/disconnect', { method: 'POST' }).then(refreshStatus);
    });

    document.getElementById('export').addEventListener('click', function () {
        fetch('/api/export', { method: 'POST' }).then(function (res) { return res.json(); }).then(function (result) {
            document.getElementById('export-result').textContent =
                result.path ? result.path + ' (' + result.count + ' samples)' : (result.error || 'failed');
        });
    });

    function connectFeed() {
        var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        var ws = new WebSocket(proto + location.host + '/ws');
        ws.onmessage = function (ev) {
            renderSample(JSON.parse(ev.data));
        };
        ws.onclose = function () {
            setTimeout(connectFeed, 2000);
        };
    }

    fetch('/api/latest').then(function (res) { return res.json(); }).then(function (latest) {
        renderSample(latest.sample);
    });
    loadTrack();
    refreshStatus();
    setInterval(refreshStatus, 5000);
    setInterval(function () {
        document.getElementById('chart-speed').contentWindow.location.reload();
        document.getElementById('chart-attitude').contentWindow.location.reload();
    }, 15000);
    connectFeed();
</script>
</body>
</html>
`
