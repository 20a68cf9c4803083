package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the gateway.
const (
	MeasurementPosition    = "player_position"
	MeasurementWorldChange = "world_change"
)

// WritePosition records the player's position in a world.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WritePosition("Steve", "minecraft:overworld", 12.5, 64, -3, time.Now())
func (c *Client) WritePosition(player, world string, x, y, z float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(PositionPoint(player, world, x, y, z, at))
}

// WriteWorldChange records the player moving from one world to another.
func (c *Client) WriteWorldChange(player, from, to string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(WorldChangePoint(player, from, to, at))
}

// PositionPoint builds a player_position point tagged by player and world.
func PositionPoint(player, world string, x, y, z float64, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementPosition,
		map[string]string{
			"player": player,
			"world":  world,
		},
		map[string]interface{}{
			"x": x,
			"y": y,
			"z": z,
		},
		at,
	)
}

// WorldChangePoint builds a world_change point. The previous world is
// stored as a field since it only matters when reading the event back.
func WorldChangePoint(player, from, to string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementWorldChange,
		map[string]string{
			"player": player,
			"world":  to,
		},
		map[string]interface{}{
			"from": from,
		},
		at,
	)
}
