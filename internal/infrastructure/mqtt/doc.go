// Package mqtt publishes huelink state onto an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Outbound publishing with QoS guarantees
//   - Last Will and Testament (LWT) on the availability topic
//   - Connection health monitoring
//
// # Architecture
//
// huelink is a publisher only. The monitor mirrors bridge resource
// state and event streams onto retained topics so home-automation
// consumers (Home Assistant, Node-RED, dashboards) can follow along
// without talking to the bridges themselves.
//
//	Hue bridges → huelink monitor → MQTT broker → consumers
//
// Topic hierarchy:
//
//	huelink/availability                                      retained, LWT
//	huelink/{bridge_id}/{resource_type}/{resource_id}/state   retained
//	huelink/{bridge_id}/events                                not retained
//
// # Security Considerations
//
//   - TLS is recommended for non-local brokers (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Bridge application keys and cloud tokens are never published
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := client.Topics().ResourceState("ecb5fafffe001122", "light", "1a2b3c")
//	err = client.PublishJSON(topic, state, true)
package mqtt
