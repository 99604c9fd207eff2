// Package mqtt publishes controller telemetry to an MQTT broker.
//
// Events go to aerialhk/event/<kind>, the latest vehicle snapshot is
// retained on aerialhk/state/vehicle, and a retained presence document on
// aerialhk/system/status says whether the controller is online. The broker
// flips presence to offline through the will when the link drops.
//
// The link is outbound only. Nothing received over MQTT can move the vehicle.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Vehicle.ID, log)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.PublishEvent("timeline_started", []byte(`{"timeline":"power-on"}`))
package mqtt
