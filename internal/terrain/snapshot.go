package terrain

import "encoding/json"

// Snapshot is the minimal byte-portable wire form consumed by downstream
// systems. The core never serializes a Cache; downstream systems rebuild a
// cache from a Snapshot by re-running the pipeline. TerrainVersion is a
// monotonically increasing integer the embedder assigns each time the
// snapshot changes — the core never assigns it.
type Snapshot struct {
	SchemaVersion  int      `json:"schemaVersion"`
	Controls       Controls `json:"controls"`
	MapWidth       int      `json:"mapWidth"`
	MapHeight      int      `json:"mapHeight"`
	TerrainVersion int64    `json:"terrainVersion"`
}

// Marshal encodes the snapshot as JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a snapshot previously produced by Marshal.
// Unknown fields in data are ignored, matching the controls schema's
// "unknown fields are dropped during normalization" rule.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	if s.SchemaVersion == 0 {
		s.SchemaVersion = 1
	}
	return s, nil
}
