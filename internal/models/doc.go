// Package models defines the core domain models for Signalhub.
//
// # Entities
//
//   - Signal: a single observed data point about an emerging change
//   - Trend: an aggregated pattern connecting multiple signals
//   - Group: a named collection of users with shared access to a set of
//     signals, having members, admins and per-signal collaborators
//   - User: a registered platform account with a global role
//
// Signals and trends share the Entity base (status, audit fields, free
// text, classification facets). Connections link signals and trends
// many-to-many.
//
// # Design Principles
//
//  1. Relationships are expressed through IDs, not pointers, to avoid
//     circular references.
//  2. Multi-valued facets (secondary STEEP categories, secondary
//     signature solutions, SDGs, keywords) are plain string slices backed
//     by typed relation tables, never ad hoc JSON.
//  3. The edit flag (CanEdit) is always computed and populated when an
//     entity is returned to a caller, never attached optionally.
package models
