package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"terraincore/cmd/terrain-service/metrics"
	"terraincore/cmd/terrain-service/store"
	"terraincore/cmd/terrain-service/worldregistry"
	"terraincore/internal/logging"
	"terraincore/internal/terrain"
)

// Handler serves the demo's REST surface: world creation, snapshot
// retrieval, path/pick queries, and the admin regenerate endpoint.
type Handler struct {
	registry *worldregistry.Registry
	cache    *store.QueryCache
	metrics  *metrics.Metrics
}

// NewHandler wires the registry, the Redis query cache, and the Prometheus
// collectors a request handler needs. cache may be nil to run without
// Redis (queries always miss and compute directly).
func NewHandler(registry *worldregistry.Registry, cache *store.QueryCache, m *metrics.Metrics) *Handler {
	return &Handler{registry: registry, cache: cache, metrics: m}
}

// CreateWorldRequest is the POST /worlds body.
type CreateWorldRequest struct {
	Config   terrain.Config   `json:"config"`
	Controls terrain.Controls `json:"controls"`
}

// CreateWorldResponse carries the world's id and its terrain version.
type CreateWorldResponse struct {
	WorldID        uuid.UUID `json:"worldId"`
	TerrainVersion int64     `json:"terrainVersion"`
}

// CreateWorld handles POST /worlds.
func (h *Handler) CreateWorld(w http.ResponseWriter, r *http.Request) {
	var req CreateWorldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	world, err := h.registry.CreateWorld(r.Context(), req.Config, req.Controls)
	if err != nil {
		logging.LogError(r.Context(), err, "create world failed", nil)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, CreateWorldResponse{
		WorldID:        world.ID,
		TerrainVersion: world.TerrainVersion,
	})
}

// GetSnapshot handles GET /worlds/{id}/snapshot.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	world, err := h.worldFromPath(r)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	snap := terrain.Snapshot{
		SchemaVersion:  1,
		Controls:       world.Controls,
		MapWidth:       world.Config.Width,
		MapHeight:      world.Config.Height,
		TerrainVersion: world.TerrainVersion,
	}
	respondJSON(w, http.StatusOK, snap)
}

// PathResponse is the GET /worlds/{id}/path response body.
type PathResponse struct {
	Faces []terrain.FaceId `json:"faces"`
	Cost  float64          `json:"cost"`
}

// GetPath handles GET /worlds/{id}/path?from=&to=, caching results in Redis
// keyed on (worldID, terrainVersion, from, to).
func (h *Handler) GetPath(w http.ResponseWriter, r *http.Request) {
	world, err := h.worldFromPath(r)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	from, to, ok := parseFaceQuery(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "from and to must be integer face ids")
		return
	}

	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.PathQueryLatency.Observe(time.Since(start).Seconds())
		}
	}()

	if h.cache != nil {
		if cached, err := h.cache.GetPath(r.Context(), world.ID, world.TerrainVersion, from, to); err == nil {
			h.recordCache("path", true)
			respondJSON(w, http.StatusOK, toFaceIds(cached))
			return
		}
		h.recordCache("path", false)
	}

	path, cost := world.Graph.FindPath(terrain.FaceId(from), terrain.FaceId(to))
	if path == nil && h.metrics != nil {
		h.metrics.PathQueryNotFound.Inc()
	}

	if h.cache != nil {
		_ = h.cache.SetPath(r.Context(), world.ID, world.TerrainVersion, from, to, toPathResult(path, cost))
	}

	respondJSON(w, http.StatusOK, PathResponse{Faces: path, Cost: cost})
}

// PickResponse is the GET /worlds/{id}/pick response body.
type PickResponse struct {
	FaceID     terrain.FaceId     `json:"faceId"`
	ProvinceID terrain.ProvinceId `json:"provinceId"`
	Found      bool               `json:"found"`
}

// GetPick handles GET /worlds/{id}/pick?x=&y=, caching results in Redis
// keyed on (worldID, terrainVersion, cellX, cellY).
func (h *Handler) GetPick(w http.ResponseWriter, r *http.Request) {
	world, err := h.worldFromPath(r)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	x, y, ok := parsePointQuery(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "x and y must be numeric")
		return
	}

	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.PickQueryLatency.Observe(time.Since(start).Seconds())
		}
	}()

	cellX, cellY := pickCell(x, y)
	if h.cache != nil {
		if cached, err := h.cache.GetPick(r.Context(), world.ID, world.TerrainVersion, cellX, cellY); err == nil {
			h.recordCache("pick", true)
			respondJSON(w, http.StatusOK, PickResponse{
				FaceID:     terrain.FaceId(cached.FaceID),
				ProvinceID: terrain.ProvinceId(cached.ProvinceID),
				Found:      cached.Found,
			})
			return
		}
		h.recordCache("pick", false)
	}

	faceID, provinceID, found := world.PickIndex.Pick(terrain.Vec2{X: x, Y: y})

	if h.cache != nil {
		_ = h.cache.SetPick(r.Context(), world.ID, world.TerrainVersion, cellX, cellY, store.PickResult{
			FaceID:     int32(faceID),
			ProvinceID: int32(provinceID),
			Found:      found,
		})
	}

	respondJSON(w, http.StatusOK, PickResponse{FaceID: faceID, ProvinceID: provinceID, Found: found})
}

// RegenerateWorld handles POST /admin/regenerate/{id} — gated by
// AdminMiddleware — forcing an immediate rebuild instead of waiting for the
// next dirty sweep.
func (h *Handler) RegenerateWorld(w http.ResponseWriter, r *http.Request) {
	worldID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid world id")
		return
	}

	world, err := h.registry.ForceRegenerate(r.Context(), worldID)
	if err != nil {
		logging.LogError(r.Context(), err, "force regenerate failed", map[string]interface{}{"world_id": worldID})
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	if h.cache != nil {
		_ = h.cache.DeleteWorld(r.Context(), worldID)
	}

	respondJSON(w, http.StatusOK, CreateWorldResponse{
		WorldID:        world.ID,
		TerrainVersion: world.TerrainVersion,
	})
}

func (h *Handler) worldFromPath(r *http.Request) (*worldregistry.World, error) {
	worldID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return h.registry.Get(worldID)
}

func (h *Handler) recordCache(kind string, hit bool) {
	if h.metrics == nil {
		return
	}
	if hit {
		h.metrics.CacheHits.WithLabelValues(kind).Inc()
	} else {
		h.metrics.CacheMisses.WithLabelValues(kind).Inc()
	}
}

func parseFaceQuery(r *http.Request) (from, to int32, ok bool) {
	f, err1 := strconv.ParseInt(r.URL.Query().Get("from"), 10, 32)
	t, err2 := strconv.ParseInt(r.URL.Query().Get("to"), 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return int32(f), int32(t), true
}

func parsePointQuery(r *http.Request) (x, y float64, ok bool) {
	xv, err1 := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	yv, err2 := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return xv, yv, true
}

// pickCell buckets a pick query's point into a coarse grid cell for cache
// keying, matching the (worldID, cellX, cellY) keying §4 specifies and the
// 32-unit cell size navigation.BuildPickIndex partitions the map into.
func pickCell(x, y float64) (int, int) {
	const cellSize = 32.0
	return int(x / cellSize), int(y / cellSize)
}

func toPathResult(path []terrain.FaceId, cost float64) store.PathResult {
	faces := make([]int32, len(path))
	for i, f := range path {
		faces[i] = int32(f)
	}
	return store.PathResult{Faces: faces, Cost: cost}
}

func toFaceIds(r store.PathResult) PathResponse {
	faces := make([]terrain.FaceId, len(r.Faces))
	for i, f := range r.Faces {
		faces[i] = terrain.FaceId(f)
	}
	return PathResponse{Faces: faces, Cost: r.Cost}
}
