// Package strategy provides the selection algorithms used for automatic
// conversation assignment.
//
// Each strategy receives the agents that already passed eligibility,
// availability and working-hours filters, and picks exactly one of them.
// The built-in strategies are:
//
//   - RoundRobin: per-tenant rotation, even distribution over time
//   - LoadBalanced: agent with the lowest current workload
//   - SkillBased: matches conversation topic tags against agent skills
//   - PriorityBased: highest availability for urgent conversations
//
// SkillBased has no topic classifier wired in yet; until one exists it
// behaves identically to LoadBalanced, and the tests pin that down.
//
// Custom strategies can be added by satisfying the Strategy interface and
// registering them under an algorithm name.
package strategy
