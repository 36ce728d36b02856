package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// versionBumpEvent is the payload published on terrain.version.bumped,
// mirrored after the {Center, Radius, Type, Data} broadcast shape the
// teacher's NATSAreaBroadcaster documents for cross-service events.
type versionBumpEvent struct {
	WorldID        uuid.UUID `json:"worldId"`
	TerrainVersion int64     `json:"terrainVersion"`
}

const subjectVersionBumped = "terrain.version.bumped"

// natsPublisher implements worldregistry.Publisher over a NATS connection,
// following the teacher's NATSPublisherWrapper (a thin Conn.Publish
// adapter satisfying a narrow domain interface).
type natsPublisher struct {
	nc *nats.Conn
}

func newNATSPublisher(nc *nats.Conn) *natsPublisher {
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) PublishVersionBumped(_ context.Context, worldID uuid.UUID, version int64) error {
	data, err := json.Marshal(versionBumpEvent{WorldID: worldID, TerrainVersion: version})
	if err != nil {
		return fmt.Errorf("marshal version bump event: %w", err)
	}
	return p.nc.Publish(subjectVersionBumped, data)
}

// multiPublisher fans a version bump out to every Publisher, so a rebuild
// can notify both NATS subscribers and the WebSocket notifier hub.
type multiPublisher struct {
	publishers []publisher
}

type publisher interface {
	PublishVersionBumped(ctx context.Context, worldID uuid.UUID, version int64) error
}

func newMultiPublisher(publishers ...publisher) *multiPublisher {
	return &multiPublisher{publishers: publishers}
}

func (m *multiPublisher) PublishVersionBumped(ctx context.Context, worldID uuid.UUID, version int64) error {
	for _, p := range m.publishers {
		if err := p.PublishVersionBumped(ctx, worldID, version); err != nil {
			return err
		}
	}
	return nil
}

// buildPublisher assembles the registry's Publisher from whichever
// collaborators are actually available: the WebSocket notifier hub always
// participates, and the NATS publisher joins in only if the connection
// succeeded at startup (§4: NATS is best-effort, never a hard dependency).
func buildPublisher(nc *nats.Conn, notifier publisher) *multiPublisher {
	publishers := []publisher{notifier}
	if nc != nil {
		publishers = append(publishers, newNATSPublisher(nc))
	}
	return newMultiPublisher(publishers...)
}
