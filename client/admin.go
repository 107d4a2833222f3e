package client

import (
	"encoding/json"
	"net/http"
)

// HandleStatus 输出 UI 状态：连接、玩家数量、本地位置
// GET /status
func HandleStatus(s *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Status())
	}
}

// HandleMetrics 输出会话运行指标
// GET /metrics
func HandleMetrics(s *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Metrics().Snapshot())
	}
}

// HandleAdminConfig 读取与热更新接近阈值、自动问候开关
// GET /admin/config  返回当前配置
// POST /admin/config 以 JSON 载荷更新部分字段
func HandleAdminConfig(s *Session) http.HandlerFunc {
	type cfg struct {
		ProximityThreshold *float64 `json:"proximityThreshold,omitempty"`
		AutoGreet          *bool    `json:"autoGreet,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			var cur cfg
			err := s.Do(r.Context(), func() {
				threshold := s.prox.Threshold()
				autoGreet := s.cfg.AutoGreet
				cur = cfg{ProximityThreshold: &threshold, AutoGreet: &autoGreet}
			})
			if err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(cur)
		case http.MethodPost:
			var body cfg
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			if body.ProximityThreshold != nil && *body.ProximityThreshold <= 0 {
				http.Error(w, "proximityThreshold must be positive", http.StatusBadRequest)
				return
			}
			err := s.Do(r.Context(), func() {
				if body.ProximityThreshold != nil {
					s.prox.SetThreshold(*body.ProximityThreshold)
				}
				if body.AutoGreet != nil {
					s.cfg.AutoGreet = *body.AutoGreet
				}
				Log.Infof("config updated: proximityThreshold=%.2f autoGreet=%v", s.prox.Threshold(), s.cfg.AutoGreet)
			})
			if err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// NewStatusMux 状态与管理接口
func NewStatusMux(s *Session) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", HandleStatus(s))
	mux.HandleFunc("/metrics", HandleMetrics(s))
	mux.HandleFunc("/admin/config", HandleAdminConfig(s))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
