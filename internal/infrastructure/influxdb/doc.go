// Package influxdb records controller timing metrics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health checks.
//
// # Measurements
//
//   - timeline_firing: lateness of each scheduled action (tags: vehicle, timeline, action)
//   - axis_position: commanded servo positions (tags: vehicle, axis)
//   - audio_command: audio player round trips and acknowledgements (tags: vehicle, command)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Vehicle.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAxisPosition("tilt", 120, time.Now())
//
// Writes are batched according to config.yaml settings (batch_size,
// flush_interval). Async write errors are delivered through SetOnError.
package influxdb
