package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/kwv/chamferview/cloud"
)

// stateResponse is the body of /api/state
type stateResponse struct {
	Frame     cloud.Frame      `json:"frame"`
	Layer     layerResponse    `json:"layer"`
	DataModes []cloud.DataMode `json:"dataModes"`
	EditModes []cloud.EditMode `json:"editModes"`
}

type layerResponse struct {
	Name  string  `json:"name"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Delta float64 `json:"delta"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(session *cloud.Session, config *cloud.Config) (http.Handler, error) {
	sceneRenderer, err := cloud.NewSceneRenderer(config)
	if err != nil {
		return nil, fmt.Errorf("raster renderer: %w", err)
	}
	vectorRenderer, err := cloud.NewVectorRenderer(config)
	if err != nil {
		return nil, fmt.Errorf("vector renderer: %w", err)
	}
	chartOpts, err := cloud.NewChartOptions(config)
	if err != nil {
		return nil, fmt.Errorf("chart options: %w", err)
	}
	layer := session.Layer()

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		frame := session.Snapshot()
		writeJSON(w, http.StatusOK, struct {
			Status     string    `json:"status"`
			Timestamp  time.Time `json:"timestamp"`
			SessionID  string    `json:"sessionId"`
			Generation uint64    `json:"generation"`
		}{
			Status:     "ok",
			Timestamp:  time.Now(),
			SessionID:  frame.SessionID,
			Generation: frame.Generation,
		})
	})

	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse{
			Frame: session.Snapshot(),
			Layer: layerResponse{
				Name:  cloud.LayerInteraction,
				Min:   layer.Bound.Min[0],
				Max:   layer.Bound.Max[0],
				Delta: layer.Delta,
			},
			DataModes: cloud.DataModes(),
			EditModes: cloud.EditModes(),
		})
	})

	// Pointer events that do not land on the interaction layer answer 204
	mux.HandleFunc("/api/pointer", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var ev cloud.PointerEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "invalid pointer event: "+err.Error(), http.StatusBadRequest)
			return
		}
		frame, changed := session.HandlePointer(ev)
		if !changed {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, frame)
	})

	mux.HandleFunc("/api/edit-mode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req modeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		mode, err := cloud.ParseEditMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := session.SetEditMode(mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[HTTP] edit mode set to %s", mode)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/data-mode", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req modeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		mode, err := cloud.ParseDataMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		frame, err := session.Regenerate(mode)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, frame)
	})

	mux.HandleFunc("/api/randomize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		frame, err := session.Randomize()
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, frame)
	})

	mux.HandleFunc("/scene.png", func(w http.ResponseWriter, r *http.Request) {
		img := sceneRenderer.Render(session.Snapshot())
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := png.Encode(w, img); err != nil {
			log.Printf("Error encoding scene PNG: %v", err)
		}
	})

	mux.HandleFunc("/scene.svg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := vectorRenderer.RenderToSVG(w, session.Snapshot()); err != nil {
			log.Printf("Error encoding scene SVG: %v", err)
		}
	})

	mux.HandleFunc("/chart", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := cloud.RenderChart(w, session.Snapshot(), chartOpts); err != nil {
			log.Printf("Error rendering chart: %v", err)
		}
	})

	mux.HandleFunc("/api/geojson", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(cloud.FrameFeatures(session.Snapshot())); err != nil {
			log.Printf("Error encoding GeoJSON: %v", err)
		}
	})

	// Default route serves the interactive dashboard
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = fmt.Fprint(w, dashboardHTML)
	})

	// Wrap mux with logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	}), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeSessionError maps session errors onto status codes
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cloud.ErrConfiguration):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, cloud.ErrEmptyCloud):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// dashboardHTML hit-tests the pointer against the interaction layer, snaps
// it to the nearest anchor and posts it; rendering uses the returned frame.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>chamferview</title>
<style>
body{font-family:sans-serif;margin:16px}
.controls{display:flex;gap:12px;align-items:center;margin-bottom:8px}
canvas{border:1px solid #ccc;cursor:crosshair}
#title{font-size:18px;margin:8px 0}
</style>
</head>
<body>
<div class="controls">
<label>Data <select id="data-mode"></select></label>
<label>Edit <select id="edit-mode"></select></label>
<button id="randomize">Randomize</button>
</div>
<div id="title"></div>
<canvas id="scene" width="600" height="600"></canvas>
<script>
(function(){
  var cv = document.getElementById('scene'), ctx = cv.getContext('2d');
  var layer = null, frame = null, busy = false;

  function toPx(p){
    var s = layer.max - layer.min;
    return [(p[0]-layer.min)/s*cv.width, cv.height-(p[1]-layer.min)/s*cv.height];
  }
  function toWorld(x, y){
    var s = layer.max - layer.min;
    return [layer.min + x/cv.width*s, layer.min + (cv.height-y)/cv.height*s];
  }
  function snap(v){
    var n = Math.ceil((layer.max-layer.min)/layer.delta - 1e-9);
    var i = Math.round((v-layer.min)/layer.delta);
    i = Math.max(0, Math.min(n-1, i));
    return layer.min + i*layer.delta;
  }
  function dots(points, color){
    ctx.fillStyle = color;
    (points || []).forEach(function(p){
      var q = toPx(p);
      ctx.beginPath(); ctx.arc(q[0], q[1], 4, 0, 2*Math.PI); ctx.fill();
    });
  }
  function draw(){
    ctx.clearRect(0, 0, cv.width, cv.height);
    var o = toPx([0,0]);
    ctx.strokeStyle = '#ddd';
    ctx.beginPath(); ctx.moveTo(0,o[1]); ctx.lineTo(cv.width,o[1]); ctx.moveTo(o[0],0); ctx.lineTo(o[0],cv.height); ctx.stroke();
    dots(frame.reference, '#0000FF');
    dots(frame.movable, '#FF0000');
    if (frame.editMode === 'Rotate') {
      var h = toPx(frame.handle);
      ctx.strokeStyle = '#00AA00';
      ctx.beginPath(); ctx.moveTo(o[0],o[1]); ctx.lineTo(h[0],h[1]); ctx.stroke();
      dots([frame.handle], '#00AA00');
    }
    document.getElementById('title').textContent = frame.title;
  }
  function post(url, body){
    return fetch(url, {method:'POST', headers:{'Content-Type':'application/json'}, body: JSON.stringify(body || {})});
  }
  function accept(res){
    if (res.status === 200) { return res.json().then(function(f){ frame = f; draw(); }); }
  }
  function fill(sel, values, current){
    sel.innerHTML = '';
    values.forEach(function(v){
      var o = document.createElement('option'); o.value = v; o.textContent = v;
      if (v === current) { o.selected = true; }
      sel.appendChild(o);
    });
  }

  cv.addEventListener('mousemove', function(e){
    if (!layer || busy) { return; }
    var r = cv.getBoundingClientRect();
    var w = toWorld(e.clientX - r.left, e.clientY - r.top);
    if (w[0] < layer.min || w[0] > layer.max || w[1] < layer.min || w[1] > layer.max) { return; }
    busy = true;
    post('/api/pointer', {points:[{layer: layer.name, x: snap(w[0]), y: snap(w[1])}]})
      .then(accept).finally(function(){ busy = false; });
  });
  document.getElementById('data-mode').addEventListener('change', function(e){
    post('/api/data-mode', {mode: e.target.value}).then(accept);
  });
  document.getElementById('edit-mode').addEventListener('change', function(e){
    post('/api/edit-mode', {mode: e.target.value}).then(function(){ frame.editMode = e.target.value; draw(); });
  });
  document.getElementById('randomize').addEventListener('click', function(){
    post('/api/randomize').then(accept);
  });

  fetch('/api/state').then(function(r){ return r.json(); }).then(function(s){
    layer = s.layer; frame = s.frame;
    fill(document.getElementById('data-mode'), s.dataModes, frame.dataMode);
    fill(document.getElementById('edit-mode'), s.editModes, frame.editMode);
    draw();
  });
})();
</script>
</body>
</html>`
