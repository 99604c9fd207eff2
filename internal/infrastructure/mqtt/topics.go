package mqtt

import "fmt"

// Topic prefixes for controller telemetry.
const (
	// TopicPrefix is the root of every topic this controller publishes.
	TopicPrefix = "aerialhk"

	// TopicPrefixSystem is the base for process status topics.
	TopicPrefixSystem = "aerialhk/system"
)

// Topics provides builders for the controller's MQTT topics.
//
//	topic := mqtt.Topics{}.Event("action_fired")
//	// Returns: "aerialhk/event/action_fired"
type Topics struct{}

// Event returns the topic for one kind of observation.
//
// Example: aerialhk/event/timeline_started
func (Topics) Event(kind string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, kind)
}

// VehicleState returns the retained topic holding the latest state snapshot.
//
// Example: aerialhk/state/vehicle
func (Topics) VehicleState() string {
	return fmt.Sprintf("%s/state/vehicle", TopicPrefix)
}

// SystemStatus returns the online/offline status topic (also the LWT topic).
//
// Example: aerialhk/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
