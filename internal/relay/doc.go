// Package relay connects the gateway to the home-automation side: it
// mirrors stream events to MQTT, forwards chat published on MQTT to the
// host, and records position telemetry in InfluxDB.
//
// Every relay is a gateway service, so it runs only while the HTTP server
// does. Mirror and Telemetry are also tracker observers; the detector calls
// them on the tick thread, so they only enqueue and a worker goroutine does
// the I/O. When the queue is full the event is dropped and counted.
package relay
