// Package influxdb provides InfluxDB connectivity for player telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management and batched writes of the points the gateway records:
//
//	player_position  tags: player, world   fields: x, y, z
//	world_change     tags: player, world   fields: from
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WritePosition("Steve", "minecraft:overworld", 0.5, 64, 0.5, time.Now())
//
// # Error Handling
//
// Writes are non-blocking. Batch errors are delivered, wrapped in
// ErrWriteFailed, to the callback set with SetOnError. Connection errors are returned directly from Connect.
package influxdb
