// Package notify stores booking notifications in an outbox and relays them
// to Kafka. Emitter implements application.Notifier; Relay drains the
// outbox on a cron schedule.
package notify
