// Package mqtt provides the gateway's MQTT connectivity.
//
// The gateway mirrors position and world-change events to the broker and
// accepts chat messages and commands from it, so home-automation and
// overlay tooling can follow the player without holding an HTTP stream
// open.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions restored after reconnect
//   - Last Will and Testament (LWT) on the status topic
//
// # Topics
//
//	{prefix}/status                 retained online/offline status
//	{prefix}/events/{event}         mirrored stream events
//	{prefix}/command/chat/message   inbound chat message (raw payload)
//	{prefix}/command/chat/command   inbound chat command (raw payload)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
//	err = client.Publish(topics.Event("position"), payload, 1, false)
package mqtt
