package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"tailscale.com/tsweb"

	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/httputil"
	"github.com/banshee-data/gesture.vault/internal/vault"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// AttachAdminRoutes adds the key, full status, attempt log and the trace
// chart of the last recording to the /debug/ index. These expose
// signatures, so they stay behind the debug access check.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("key", "Enrolled key (GET) and reset (DELETE)", http.HandlerFunc(s.keyHandler))
	debug.Handle("vault", "Workflow status with key and last outcome", http.HandlerFunc(s.showVault))
	debug.Handle("attempts", "Verification attempts with signatures", http.HandlerFunc(s.listAttemptsFull))
	debug.Handle("trace", "Gyro trace of the last recording", http.HandlerFunc(s.handleTraceChart))
}

func (s *Server) keyHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		k, ok := s.vault.Key()
		if !ok {
			httputil.NotFound(w, vault.ErrNoKey.Error())
			return
		}
		httputil.WriteJSONOK(w, k)
	case http.MethodDelete:
		err := s.ctrl.Reset()
		if errors.Is(err, vault.ErrBusy) {
			httputil.Conflict(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, map[string]any{"state": s.ctrl.State()})
	default:
		httputil.MethodNotAllowed(w)
	}
}

type vaultStatus struct {
	Status
	Key  *vault.Key     `json:"key,omitempty"`
	Last *vault.Outcome `json:"last_outcome,omitempty"`
}

func (s *Server) showVault(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	st := vaultStatus{Status: s.status()}
	if k, ok := s.vault.Key(); ok {
		st.Key = &k
	}
	if o, ok := s.ctrl.LastOutcome(); ok {
		st.Last = &o
	}
	httputil.WriteJSONOK(w, st)
}

func (s *Server) listAttemptsFull(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet) {
		return
	}
	if list, ok := s.loadAttempts(w, r); ok {
		httputil.WriteJSONOK(w, list)
	}
}

// handleTraceChart renders the last recording's three axes with the
// extracted segment ends marked.
func (s *Server) handleTraceChart(w http.ResponseWriter, r *http.Request) {
	out, ok := s.ctrl.LastOutcome()
	if !ok || out.Buffer == nil {
		httputil.NotFound(w, "no recording yet")
		return
	}
	b := out.Buffer
	p := s.ctrl.Params()

	xs := make([]string, b.Len())
	for i := range xs {
		xs[i] = strconv.Itoa(i)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Gesture trace", Theme: "dark", Width: "100%", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Recording " + out.RecordingID, Subtitle: fmt.Sprintf("signature=%q samples=%d %s", out.Signature, out.Samples, p)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sample"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rad/s"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(xs)
	for _, a := range gesture.Axes {
		v := b.Axis(a)
		data := make([]opts.LineData, len(v))
		for i, y := range v {
			data[i] = opts.LineData{Value: y}
		}
		marks := make([]opts.MarkPointNameCoordItem, 0, len(out.EndIndices[a.String()]))
		for _, e := range out.EndIndices[a.String()] {
			if e < len(v) {
				marks = append(marks, opts.MarkPointNameCoordItem{
					Name:       a.String(),
					Coordinate: []interface{}{strconv.Itoa(e), v[e]},
					Symbol:     "pin",
				})
			}
		}
		line.AddSeries(a.String(), data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithMarkPointNameCoordItemOpts(marks...),
		)
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
