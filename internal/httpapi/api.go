package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/codepulse/internal/dto"
	"github.com/yuqie6/codepulse/internal/eventbus"
	"github.com/yuqie6/codepulse/internal/model"
	"github.com/yuqie6/codepulse/internal/pkg/buildinfo"
	"github.com/yuqie6/codepulse/internal/pkg/config"
	"github.com/yuqie6/codepulse/internal/repository"
	"github.com/yuqie6/codepulse/internal/service"
)

const ssePingInterval = 15 * time.Second

// SnapshotSource 活动快照来源（由 service.ActivityService 实现）
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, now time.Time) (*model.ActivitySnapshot, error)
	Peek(now time.Time) *model.ActivitySnapshot
}

// Deps HTTP 层依赖；Sync/DB 可为空
type Deps struct {
	App         config.AppConfig
	AllowOrigin string
	Activity    SnapshotSource
	Sync        *service.SkillSyncService
	DB          *repository.Database
	Hub         *eventbus.Hub
	Now         func() time.Time
}

type apiServer struct {
	deps      Deps
	startTime time.Time
}

// NewHandler 构建完整路由
func NewHandler(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Hub == nil {
		deps.Hub = eventbus.NewHub()
	}
	a := &apiServer{deps: deps, startTime: deps.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.wrapGET(a.handleHealth))
	mux.HandleFunc("/api/events", a.wrapGET(a.handleSSE))
	mux.HandleFunc("/api/activity", a.wrapGET(a.handleActivity))
	mux.HandleFunc("/api/status", a.wrapGET(a.handleStatus))
	return a.withCORS(mux)
}

func (a *apiServer) wrapGET(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (a *apiServer) withCORS(next http.Handler) http.Handler {
	origin := strings.TrimSpace(a.deps.AllowOrigin)
	if origin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *apiServer) handleActivity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if a.deps.Activity == nil {
		writeError(w, http.StatusServiceUnavailable, "activity source not configured")
		return
	}

	snap, err := a.deps.Activity.GetSnapshot(r.Context(), a.deps.Now())
	if err != nil {
		slog.Warn("获取活动快照失败", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTO(snap))
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := dto.HealthDTO{
		OK:        true,
		Name:      a.deps.App.Name,
		Version:   a.version(),
		StartedAt: a.startTime.Format(time.RFC3339),
	}
	if a.deps.Activity != nil {
		if snap := a.deps.Activity.Peek(a.deps.Now()); snap != nil {
			out.CachedAt = snap.FetchedAt.Format(time.RFC3339)
			out.Status = string(snap.Status)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := a.deps.Now()
	out := dto.StatusDTO{
		App: dto.AppStatusDTO{
			Name:      a.deps.App.Name,
			Version:   a.version(),
			Commit:    buildinfo.Commit,
			StartedAt: a.startTime.Format(time.RFC3339),
			UptimeSec: int64(now.Sub(a.startTime).Seconds()),
		},
		Events: dto.EventsStatusDTO{
			Subscribers: a.deps.Hub.Subscribers(),
			Dropped:     a.deps.Hub.Dropped(),
		},
	}
	if db := a.deps.DB; db != nil {
		out.App.SafeMode = db.SafeMode
		out.Storage = dto.StorageStatusDTO{SchemaVersion: db.SchemaVersion, SafeModeReason: db.MigrationError}
	}
	if svc, ok := a.deps.Activity.(*service.ActivityService); ok && svc != nil {
		out.Cache.TTLSec = int64(svc.TTL().Seconds())
		out.Cache.Fetches = svc.Fetches()
	}
	if a.deps.Activity != nil {
		if snap := a.deps.Activity.Peek(now); snap != nil {
			out.Cache.CachedAt = snap.FetchedAt.Format(time.RFC3339)
			out.Cache.LastActivityAt = snap.LastActivityAt.Format(time.RFC3339)
			out.Cache.TotalSeconds = snap.TotalSeconds
		}
	}
	if s := a.deps.Sync; s != nil {
		out.Sync.Enabled = s.Enabled()
		out.Sync.ResolvedSkills = s.Cache().Len()
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	sub := a.deps.Hub.Subscribe(ctx, 32)

	// initial event
	_, _ = io.WriteString(w, "event: ready\n")
	_, _ = io.WriteString(w, "data: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, "event: ping\n")
			_, _ = io.WriteString(w, "data: {}\n\n")
			flusher.Flush()
		case evt, ok := <-sub:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt)
			_, _ = io.WriteString(w, "event: "+sanitizeSSEName(evt.Type)+"\n")
			_, _ = io.WriteString(w, "data: ")
			_, _ = w.Write(b)
			_, _ = io.WriteString(w, "\n\n")
			flusher.Flush()
		}
	}
}

func (a *apiServer) version() string {
	if v := strings.TrimSpace(a.deps.App.Version); v != "" {
		return v
	}
	return buildinfo.Version
}

func toActivityDTO(s *model.ActivitySnapshot) dto.ActivityResponseDTO {
	return dto.ActivityResponseDTO{
		CachedAt: s.FetchedAt.Format(time.RFC3339),
		Data: dto.ActivityDataDTO{
			Range:            s.Range,
			Editors:          s.Editors,
			OperatingSystems: s.OperatingSystems,
			Categories:       s.Categories,
			Languages:        s.Languages,
			GrandTotal:       s.GrandTotal,
		},
		Status: string(s.Status),
	}
}
