// Package workshopservice implements the ideation workshop inside the
// ideation context.
//
// The module owns the session lifecycle state machine, the topic registry,
// the participant roster, contribution submission, the vote ledger and the
// ranked report. Every mutation runs inside one store transaction and emits
// outbox events in that same transaction. Business rules stay in the
// application/domain layers; persistence and transport live behind ports and
// adapters.
package workshopservice
