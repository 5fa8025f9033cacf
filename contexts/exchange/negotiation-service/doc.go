// Package negotiationservice implements the negotiation lifecycle of the
// exchange context: a publication and its competing offers.
//
// Layering:
// - domain: entities with pure transition methods, invariants, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence and events
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - All writes to a publication and its offers go through the commands in
//   application/commands; nothing else mutates negotiation state.
// - The repository serializes mutating operations per publication, so at
//   most one offer is ever accepted on a publication.
// - The authenticated actor is passed explicitly into every command.
package negotiationservice
